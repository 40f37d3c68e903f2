package service

import (
	"context"
	"errors"
	"testing"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

func newTransactionsFixture(t *testing.T) (*TransactionsService, *mockStore) {
	t.Helper()

	store := newMockStore()
	store.users = append(store.users, domain.User{ID: 1, AuthID: "auth-1"})
	return NewTransactionsService(newTestCore(store)), store
}

func TestCreateTransaction_Valid(t *testing.T) {
	svc, _ := newTransactionsFixture(t)

	created, err := svc.Create(context.Background(), "auth-1", &domain.TransactionRequest{
		Amount:          150.5,
		Type:            domain.TypeDespesa,
		Category:        "mercado",
		TransactionDate: "2026-03-10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected generated ID")
	}
	if created.Amount != 150.5 {
		t.Errorf("expected amount 150.5, got %.2f", created.Amount)
	}
}

func TestCreateTransaction_Validation(t *testing.T) {
	svc, _ := newTransactionsFixture(t)

	cases := []struct {
		name string
		req  domain.TransactionRequest
	}{
		{"bad type", domain.TransactionRequest{Amount: 10, Type: "transfer", Category: "x", TransactionDate: "2026-03-10"}},
		{"zero amount", domain.TransactionRequest{Amount: 0, Type: domain.TypeDespesa, Category: "x", TransactionDate: "2026-03-10"}},
		{"missing category", domain.TransactionRequest{Amount: 10, Type: domain.TypeDespesa, TransactionDate: "2026-03-10"}},
		{"bad date", domain.TransactionRequest{Amount: 10, Type: domain.TypeDespesa, Category: "x", TransactionDate: "10/03/2026"}},
		{"single installment", domain.TransactionRequest{Amount: 10, Type: domain.TypeDespesa, Category: "x", TransactionDate: "2026-03-10", IsInstallment: true, TotalInstallments: 1}},
		{"installment income", domain.TransactionRequest{Amount: 10, Type: domain.TypeReceita, Category: "x", TransactionDate: "2026-03-10", IsInstallment: true, TotalInstallments: 3}},
		{"recurring day out of range", domain.TransactionRequest{Amount: 10, Type: domain.TypeDespesa, Category: "x", TransactionDate: "2026-03-10", IsRecurring: true, RecurringDate: 32}},
		{"recurring and installment", domain.TransactionRequest{Amount: 10, Type: domain.TypeDespesa, Category: "x", TransactionDate: "2026-03-10", IsInstallment: true, TotalInstallments: 3, IsRecurring: true, RecurringDate: 5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "auth-1", &tc.req)
			var validation *domain.ErrValidation
			if !errors.As(err, &validation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateTransaction_UnknownCardRejected(t *testing.T) {
	svc, _ := newTransactionsFixture(t)

	_, err := svc.Create(context.Background(), "auth-1", &domain.TransactionRequest{
		Amount:          50,
		Type:            domain.TypeDespesa,
		Category:        "mercado",
		TransactionDate: "2026-03-10",
		CreditCardID:    int64Ptr(999),
	})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found for unknown card, got %v", err)
	}
}

func TestCreateTransaction_InstallmentStartDefaultsToPurchaseDate(t *testing.T) {
	svc, _ := newTransactionsFixture(t)

	created, err := svc.Create(context.Background(), "auth-1", &domain.TransactionRequest{
		Amount:            300,
		Type:              domain.TypeDespesa,
		Category:          "eletronicos",
		TransactionDate:   "2026-03-10",
		IsInstallment:     true,
		TotalInstallments: 3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.InstallmentStartDate == nil {
		t.Fatal("expected installment start date to default")
	}
	if got := created.InstallmentStartDate.Format("2006-01-02"); got != "2026-03-10" {
		t.Errorf("expected start 2026-03-10, got %s", got)
	}
}

func TestListTransactions_UsesCacheUntilMutation(t *testing.T) {
	svc, store := newTransactionsFixture(t)
	store.transactions = append(store.transactions, domain.Transaction{
		ID: 1, UserID: 1, Amount: 10, Type: domain.TypeDespesa,
		Category: "mercado", TransactionDate: date(2026, 3, 1),
	})

	if _, err := svc.List(context.Background(), "auth-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.List(context.Background(), "auth-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.listTransactionsCalls != 1 {
		t.Fatalf("expected second list served from cache, got %d store calls", store.listTransactionsCalls)
	}

	if _, err := svc.Create(context.Background(), "auth-1", &domain.TransactionRequest{
		Amount: 20, Type: domain.TypeDespesa, Category: "lazer", TransactionDate: "2026-03-12",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The mutation invalidated the cache: the next read sees the new row
	txs, err := svc.List(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Errorf("expected 2 transactions after create, got %d", len(txs))
	}
	if store.listTransactionsCalls != 2 {
		t.Errorf("expected a fresh store read after mutation, got %d calls", store.listTransactionsCalls)
	}
}

func TestDeleteTransaction_ScopedToOwner(t *testing.T) {
	svc, store := newTransactionsFixture(t)
	store.transactions = append(store.transactions, domain.Transaction{
		ID: 1, UserID: 2, Amount: 10, Type: domain.TypeDespesa,
		Category: "mercado", TransactionDate: date(2026, 3, 1),
	})

	err := svc.Delete(context.Background(), "auth-1", 1)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found for another user's row, got %v", err)
	}
}

func TestListTransactions_UnresolvedOwnerIsEmpty(t *testing.T) {
	svc, _ := newTransactionsFixture(t)

	txs, err := svc.List(context.Background(), "auth-unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected empty list for unresolved owner, got %d", len(txs))
	}
}
