package service

import (
	"context"
	"testing"
	"time"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

func newProjectionFixture(t *testing.T) (*ProjectionService, *mockStore) {
	t.Helper()

	store := newMockStore()
	store.users = append(store.users, domain.User{ID: 1, AuthID: "auth-1"})

	svc := NewProjectionService(newTestCore(store))
	svc.now = func() time.Time { return date(2026, time.March, 15) }
	return svc, store
}

func TestProject_RecurringRepeatsEveryMonth(t *testing.T) {
	svc, store := newProjectionFixture(t)
	store.transactions = append(store.transactions,
		domain.Transaction{
			ID: 1, UserID: 1, Amount: 5000, Type: domain.TypeReceita,
			Category: "salario", TransactionDate: date(2025, time.June, 5),
			IsRecurring: true, RecurringDate: 5,
		},
		domain.Transaction{
			ID: 2, UserID: 1, Amount: 1800, Type: domain.TypeDespesa,
			Category: "moradia", TransactionDate: date(2025, time.June, 10),
			IsRecurring: true, RecurringDate: 10,
		},
	)

	points, err := svc.Project(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 24 {
		t.Fatalf("expected full 24-month projection, got %d", len(points))
	}

	for _, p := range points {
		if !p.IsFuture {
			t.Errorf("%s: projection points must be marked future", p.PeriodLabel)
		}
		if p.Receitas != 5000 {
			t.Errorf("%s: expected receitas 5000, got %.2f", p.PeriodLabel, p.Receitas)
		}
		if p.Despesas != 1800 {
			t.Errorf("%s: expected despesas 1800, got %.2f", p.PeriodLabel, p.Despesas)
		}
		if p.GastosRecorrentes != 1800 {
			t.Errorf("%s: expected gastos recorrentes 1800, got %.2f", p.PeriodLabel, p.GastosRecorrentes)
		}
		if p.FluxoLiquido != 3200 {
			t.Errorf("%s: expected fluxo 3200, got %.2f", p.PeriodLabel, p.FluxoLiquido)
		}
	}

	if points[0].PeriodLabel != "abr/2026" {
		t.Errorf("projection starts the month after the current one, got %s", points[0].PeriodLabel)
	}
}

func TestProject_InstallmentSharesSumToTotal(t *testing.T) {
	svc, store := newProjectionFixture(t)

	// 1000.00 in 7 installments starting April 2026 (all in the future)
	start := date(2026, time.April, 1)
	store.transactions = append(store.transactions, domain.Transaction{
		ID: 3, UserID: 1, Amount: 1000, Type: domain.TypeDespesa,
		Category: "eletronicos", TransactionDate: start,
		IsInstallment: true, TotalInstallments: 7,
		InstallmentStartDate: timePtr(start),
	})

	points, err := svc.Project(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := 0.0
	nonZero := 0
	for _, p := range points {
		sum += p.Despesas
		if p.Despesas > 0 {
			nonZero++
		}
	}
	if nonZero != 7 {
		t.Errorf("expected 7 months with installment shares, got %d", nonZero)
	}
	if domain.RoundCents(sum) != 1000 {
		t.Errorf("shares must sum to the purchase total, got %.2f", sum)
	}
}

func TestProject_StopsAfterSixEmptyMonths(t *testing.T) {
	svc, store := newProjectionFixture(t)

	// A 4-month plan starting April, then nothing: the projection should
	// end after the plan instead of padding out 24 empty months.
	start := date(2026, time.April, 1)
	store.transactions = append(store.transactions, domain.Transaction{
		ID: 4, UserID: 1, Amount: 400, Type: domain.TypeDespesa,
		Category: "viagem", TransactionDate: start,
		IsInstallment: true, TotalInstallments: 4,
		InstallmentStartDate: timePtr(start),
	})

	points, err := svc.Project(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected projection truncated to the 4 active months, got %d", len(points))
	}
	for _, p := range points {
		if p.Despesas != 100 {
			t.Errorf("%s: expected share 100, got %.2f", p.PeriodLabel, p.Despesas)
		}
	}
}

func TestProject_UnresolvedOwnerIsEmpty(t *testing.T) {
	svc, _ := newProjectionFixture(t)

	points, err := svc.Project(context.Background(), "auth-unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("expected empty projection for unresolved owner, got %d points", len(points))
	}
}
