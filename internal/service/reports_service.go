package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

var reportsTracer = otel.Tracer("service/reports")

// ReportsService builds the chart series and dashboard aggregations.
type ReportsService struct {
	core  *FinanceService
	bills *BillsService
	now   func() time.Time
}

// NewReportsService creates a new reports service.
func NewReportsService(core *FinanceService, bills *BillsService) *ReportsService {
	return &ReportsService{core: core, bills: bills, now: time.Now}
}

// MonthlyChart returns one point per month for the last months months,
// ending at the current one.
func (s *ReportsService) MonthlyChart(ctx context.Context, authID string, months int) ([]domain.ChartPoint, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.MonthlyChart")
	defer span.End()
	span.SetAttributes(attribute.Int("months", months))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []domain.ChartPoint{}, nil
	}

	transactions, err := s.core.OwnerTransactions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if months < 1 {
		months = 12
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	points := make([]domain.ChartPoint, 0, months)
	for i := 0; i < months; i++ {
		ref := first.AddDate(0, i, 0)
		point := monthPoint(transactions, ref.Year(), ref.Month())
		point.PeriodLabel = monthLabel(ref.Year(), ref.Month())
		points = append(points, point)
	}
	return points, nil
}

// DailyChart returns one point per day over a trailing window of 7 or 30
// days ending today. Rows are bucketed by their exact transaction date;
// installment and recurring amounts are not spread.
func (s *ReportsService) DailyChart(ctx context.Context, authID string, days int) ([]domain.ChartPoint, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.DailyChart")
	defer span.End()
	span.SetAttributes(attribute.Int("days", days))

	if days != 7 && days != 30 {
		return nil, &domain.ErrValidation{Field: "days", Message: "deve ser 7 ou 30"}
	}

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []domain.ChartPoint{}, nil
	}

	transactions, err := s.core.OwnerTransactions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(days - 1))

	points := make([]domain.ChartPoint, 0, days)
	for i := 0; i < days; i++ {
		ref := first.AddDate(0, 0, i)
		point := dayPoint(transactions, ref)
		point.PeriodLabel = fmt.Sprintf("%02d/%02d", ref.Day(), int(ref.Month()))
		points = append(points, point)
	}
	return points, nil
}

// CategoryBreakdown returns the expense pie for a month, largest slice
// first. Colors are assigned by slice position so they are stable for a
// given breakdown.
func (s *ReportsService) CategoryBreakdown(ctx context.Context, authID, month string) ([]domain.CategorySlice, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.CategoryBreakdown")
	defer span.End()

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []domain.CategorySlice{}, nil
	}

	ref, err := s.parseMonth(month)
	if err != nil {
		return nil, err
	}

	transactions, err := s.core.OwnerTransactions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	totals := map[string]float64{}
	for i := range transactions {
		t := &transactions[i]
		if !t.IsExpense() {
			continue
		}
		if amount, ok := monthShare(t, ref.Year(), ref.Month()); ok {
			totals[t.Category] += amount
		}
	}

	slices := make([]domain.CategorySlice, 0, len(totals))
	for name, value := range totals {
		slices = append(slices, domain.CategorySlice{
			Name:  name,
			Value: domain.RoundCents(value),
			Icon:  domain.CategoryIcon(name),
		})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Value != slices[j].Value {
			return slices[i].Value > slices[j].Value
		}
		return slices[i].Name < slices[j].Name
	})
	for i := range slices {
		slices[i].Color = domain.CategoryColor(i)
	}
	return slices, nil
}

// Dashboard assembles the dashboard header: overall balance, the current
// month's totals and the cards' current bills, fetched concurrently.
func (s *ReportsService) Dashboard(ctx context.Context, authID string) (*domain.DashboardSummary, error) {
	ctx, span := reportsTracer.Start(ctx, "ReportsService.Dashboard")
	defer span.End()

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return &domain.DashboardSummary{Bills: []domain.CreditCardBill{}}, nil
	}

	transactions, err := s.core.OwnerTransactions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := &domain.DashboardSummary{Bills: []domain.CreditCardBill{}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary.Saldo = balance(transactions, now)
		current := monthPoint(transactions, now.Year(), now.Month())
		summary.ReceitasMes = current.Receitas
		summary.DespesasMes = current.Despesas
		summary.GastosRecorrentes = current.GastosRecorrentes
		return nil
	})

	g.Go(func() error {
		cards, err := s.core.store.ListCreditCards(gctx, user.ID)
		if err != nil {
			return fmt.Errorf("list credit cards: %w", err)
		}
		month := fmt.Sprintf("%04d-%02d", now.Year(), int(now.Month()))
		for i := range cards {
			bill, err := s.bills.GetBillForMonth(gctx, authID, cards[i].ID, month)
			if err != nil {
				return err
			}
			if bill.BillAmount > 0 || bill.PaidAmount > 0 {
				summary.Bills = append(summary.Bills, *bill)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}

// ============================================================
// Bucket math
// ============================================================

// parseMonth parses "YYYY-MM", defaulting to the current month.
func (s *ReportsService) parseMonth(month string) (time.Time, error) {
	if month == "" {
		now := s.now()
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	ref, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: "month", Message: "formato esperado: YYYY-MM"}
	}
	return ref, nil
}

// monthShare returns the amount of a transaction that lands in a calendar
// month. Installment plans contribute their share while the plan covers the
// month; everything else, recurring rows included, counts only in the month
// it was recorded. Repeating recurrences forward is the projection's job.
func monthShare(t *domain.Transaction, year int, month time.Month) (float64, bool) {
	if share, ok := t.InstallmentShare(year, month); ok {
		return share, true
	}
	if t.HasInstallmentPlan() {
		return 0, false
	}

	if t.TransactionDate.Year() == year && t.TransactionDate.Month() == month {
		return t.Amount, true
	}
	return 0, false
}

// monthPoint sums a calendar month into one chart bucket.
func monthPoint(transactions []domain.Transaction, year int, month time.Month) domain.ChartPoint {
	var point domain.ChartPoint

	for i := range transactions {
		t := &transactions[i]
		amount, ok := monthShare(t, year, month)
		if !ok {
			continue
		}
		if t.IsExpense() {
			point.Despesas += amount
			if t.IsRecurring {
				point.GastosRecorrentes += amount
			}
		} else {
			point.Receitas += amount
		}
	}

	point.Receitas = domain.RoundCents(point.Receitas)
	point.Despesas = domain.RoundCents(point.Despesas)
	point.GastosRecorrentes = domain.RoundCents(point.GastosRecorrentes)
	point.FluxoLiquido = domain.RoundCents(point.Receitas - point.Despesas)
	return point
}

// dayPoint sums the rows recorded on a single calendar day.
func dayPoint(transactions []domain.Transaction, ref time.Time) domain.ChartPoint {
	var point domain.ChartPoint

	for i := range transactions {
		t := &transactions[i]
		d := t.TransactionDate
		if d.Year() != ref.Year() || d.Month() != ref.Month() || d.Day() != ref.Day() {
			continue
		}

		if t.IsExpense() {
			point.Despesas += t.Amount
			if t.IsRecurring {
				point.GastosRecorrentes += t.Amount
			}
		} else {
			point.Receitas += t.Amount
		}
	}

	point.Receitas = domain.RoundCents(point.Receitas)
	point.Despesas = domain.RoundCents(point.Despesas)
	point.GastosRecorrentes = domain.RoundCents(point.GastosRecorrentes)
	point.FluxoLiquido = domain.RoundCents(point.Receitas - point.Despesas)
	return point
}

// balance is the running net of everything that already happened.
func balance(transactions []domain.Transaction, now time.Time) float64 {
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	total := 0.0
	for i := range transactions {
		t := &transactions[i]

		// Walk every month from the first transaction to the current one so
		// installment shares accumulate correctly.
		start := t.TransactionDate
		cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !cursor.After(firstOfMonth) {
			amount, ok := monthShare(t, cursor.Year(), cursor.Month())
			if ok {
				if t.IsExpense() {
					total -= amount
				} else {
					total += amount
				}
			}
			cursor = cursor.AddDate(0, 1, 0)
		}
	}
	return domain.RoundCents(total)
}

// Portuguese short month names for chart labels.
var monthNames = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s/%d", monthNames[int(month)-1], year)
}
