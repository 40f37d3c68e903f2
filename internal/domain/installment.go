package domain

import (
	"math"
	"time"
)

// Installment allocation. A purchase split into N installments starting at
// month M contributes to exactly the months M..M+N-1. The same calendar-month
// arithmetic is used everywhere an installment window is evaluated (bill
// aggregation, projections, monthly charts) so the paths cannot disagree near
// month boundaries.

// HasInstallmentPlan reports whether the installment metadata is usable.
// Rows flagged is_installment with a missing start date or fewer than two
// installments are treated as plain transactions.
func (t *Transaction) HasInstallmentPlan() bool {
	return t.IsInstallment && t.TotalInstallments >= 2 && t.InstallmentStartDate != nil
}

// InstallmentShare returns the amount of t attributed to the given calendar
// month. The second return is false when the month falls outside the
// installment window or the plan metadata is malformed.
func (t *Transaction) InstallmentShare(year int, month time.Month) (float64, bool) {
	if !t.HasInstallmentPlan() {
		return 0, false
	}
	start := *t.InstallmentStartDate
	diff := (year-start.Year())*12 + int(month) - int(start.Month())
	if diff < 0 || diff >= t.TotalInstallments {
		return 0, false
	}

	// An explicit per-installment value wins over the derived split, even
	// when it disagrees with amount/total (irregular plans).
	if t.InstallmentValue != nil {
		return *t.InstallmentValue, true
	}

	per, final := SplitInstallments(t.Amount, t.TotalInstallments)
	if diff == t.TotalInstallments-1 {
		return final, true
	}
	return per, true
}

// SplitInstallments divides amount into n cent-exact parts. The division
// remainder lands on the final part so the series always sums back to amount.
func SplitInstallments(amount float64, n int) (per, final float64) {
	totalCents := int64(math.Round(amount * 100))
	perCents := totalCents / int64(n)
	finalCents := totalCents - perCents*int64(n-1)
	return float64(perCents) / 100, float64(finalCents) / 100
}

// RoundCents rounds a monetary value to two decimal places. Aggregations sum
// float64 contributions; rounding once at the end keeps displayed totals
// cent-exact.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
