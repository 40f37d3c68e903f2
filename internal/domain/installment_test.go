package domain_test

import (
	"testing"
	"time"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestInstallmentShare_WindowBounds(t *testing.T) {
	tx := &domain.Transaction{
		Amount:               1200,
		Type:                 domain.TypeDespesa,
		IsInstallment:        true,
		TotalInstallments:    12,
		InstallmentStartDate: datePtr(2024, time.January, 15),
	}

	// One month before the window
	if _, ok := tx.InstallmentShare(2023, time.December); ok {
		t.Error("expected no contribution for Dec 2023")
	}

	// Every month of the window contributes 100
	for m := time.January; m <= time.December; m++ {
		share, ok := tx.InstallmentShare(2024, m)
		if !ok {
			t.Fatalf("expected contribution for 2024-%02d", m)
		}
		if share != 100 {
			t.Errorf("expected 100 for 2024-%02d, got %.2f", m, share)
		}
	}

	// One month after the window
	if _, ok := tx.InstallmentShare(2025, time.January); ok {
		t.Error("expected no contribution for Jan 2025")
	}
}

func TestInstallmentShare_ExplicitValueWins(t *testing.T) {
	val := 33.34
	tx := &domain.Transaction{
		Amount:               100,
		Type:                 domain.TypeDespesa,
		IsInstallment:        true,
		TotalInstallments:    3,
		InstallmentStartDate: datePtr(2024, time.March, 1),
		InstallmentValue:     &val,
	}

	share, ok := tx.InstallmentShare(2024, time.March)
	if !ok {
		t.Fatal("expected contribution for start month")
	}
	if share != 33.34 {
		t.Errorf("expected explicit installment value 33.34, got %.2f", share)
	}
}

func TestInstallmentShare_RemainderOnFinalInstallment(t *testing.T) {
	tx := &domain.Transaction{
		Amount:               100,
		Type:                 domain.TypeDespesa,
		IsInstallment:        true,
		TotalInstallments:    3,
		InstallmentStartDate: datePtr(2024, time.January, 10),
	}

	var total float64
	for _, m := range []time.Month{time.January, time.February, time.March} {
		share, ok := tx.InstallmentShare(2024, m)
		if !ok {
			t.Fatalf("expected contribution for 2024-%02d", m)
		}
		total += share
	}

	if domain.RoundCents(total) != 100 {
		t.Errorf("expected installment series to sum to 100, got %.2f", total)
	}

	first, _ := tx.InstallmentShare(2024, time.January)
	last, _ := tx.InstallmentShare(2024, time.March)
	if first != 33.33 {
		t.Errorf("expected 33.33 for first installment, got %.2f", first)
	}
	if last != 33.34 {
		t.Errorf("expected 33.34 for final installment, got %.2f", last)
	}
}

func TestInstallmentShare_MalformedMetadataExcluded(t *testing.T) {
	// total_installments below 2
	tx := &domain.Transaction{
		Amount:               300,
		IsInstallment:        true,
		TotalInstallments:    0,
		InstallmentStartDate: datePtr(2024, time.May, 1),
	}
	if _, ok := tx.InstallmentShare(2024, time.May); ok {
		t.Error("expected malformed plan (total=0) to be excluded")
	}

	// missing start date
	tx = &domain.Transaction{
		Amount:            300,
		IsInstallment:     true,
		TotalInstallments: 3,
	}
	if _, ok := tx.InstallmentShare(2024, time.May); ok {
		t.Error("expected malformed plan (no start date) to be excluded")
	}
}

func TestSplitInstallments(t *testing.T) {
	per, final := domain.SplitInstallments(100, 3)
	if per != 33.33 || final != 33.34 {
		t.Errorf("expected 33.33/33.34, got %.2f/%.2f", per, final)
	}

	per, final = domain.SplitInstallments(1200, 12)
	if per != 100 || final != 100 {
		t.Errorf("expected even 100/100 split, got %.2f/%.2f", per, final)
	}
}

func TestDeriveStatus_PaidBeatsOverdue(t *testing.T) {
	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	bill := &domain.CreditCardBill{
		BillAmount:      500,
		PaidAmount:      500,
		RemainingAmount: 0,
		DueDate:         "2026-08-10", // in the past
	}

	if got := bill.DeriveStatus(now); got != domain.BillStatusPaid {
		t.Errorf("expected paid, got %s", got)
	}
}

func TestDeriveStatus_Overdue(t *testing.T) {
	now := time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)
	bill := &domain.CreditCardBill{
		BillAmount:      500,
		PaidAmount:      0,
		RemainingAmount: 500,
		DueDate:         "2026-08-10",
	}

	if got := bill.DeriveStatus(now); got != domain.BillStatusOverdue {
		t.Errorf("expected overdue, got %s", got)
	}
}

func TestDeriveStatus_Partial(t *testing.T) {
	now := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	bill := &domain.CreditCardBill{
		BillAmount:      500,
		PaidAmount:      200,
		RemainingAmount: 300,
		DueDate:         "2026-08-10",
	}

	if got := bill.DeriveStatus(now); got != domain.BillStatusPartial {
		t.Errorf("expected partial, got %s", got)
	}
}

func TestIsDueSoon(t *testing.T) {
	now := time.Date(2026, time.August, 8, 12, 0, 0, 0, time.UTC)

	bill := &domain.CreditCardBill{DueDate: "2026-08-10", RemainingAmount: 100}
	if !bill.IsDueSoon(now) {
		t.Error("expected bill due in 2 days to be due soon")
	}

	bill = &domain.CreditCardBill{DueDate: "2026-08-20", RemainingAmount: 100}
	if bill.IsDueSoon(now) {
		t.Error("expected bill due in 12 days to not be due soon")
	}

	bill = &domain.CreditCardBill{DueDate: "2026-08-05", RemainingAmount: 100}
	if bill.IsDueSoon(now) {
		t.Error("expected overdue bill to not be due soon")
	}
}

func TestCategoryColor_Deterministic(t *testing.T) {
	if domain.CategoryColor(0) != "hsl(0, 70%, 50%)" {
		t.Errorf("unexpected color for index 0: %s", domain.CategoryColor(0))
	}
	if domain.CategoryColor(1) != "hsl(137, 70%, 50%)" {
		t.Errorf("unexpected color for index 1: %s", domain.CategoryColor(1))
	}
	if domain.CategoryColor(3) != "hsl(52, 70%, 50%)" {
		t.Errorf("unexpected color for index 3: %s", domain.CategoryColor(3))
	}
}

func TestCategoryIcon_Fallback(t *testing.T) {
	if domain.CategoryIcon("transporte") != "car" {
		t.Errorf("unexpected icon: %s", domain.CategoryIcon("transporte"))
	}
	if domain.CategoryIcon("nao-existe") != domain.IconUnknown {
		t.Errorf("expected fallback icon, got %s", domain.CategoryIcon("nao-existe"))
	}
}
