package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

// ============================================================
// Transactions
// ============================================================

type transactionRow struct {
	ID                   int64    `json:"id"`
	UserID               int64    `json:"user_id"`
	Amount               float64  `json:"amount"`
	Type                 string   `json:"type"`
	Category             string   `json:"category"`
	Description          string   `json:"description"`
	TransactionDate      string   `json:"transaction_date"`
	IsInstallment        bool     `json:"is_installment"`
	InstallmentNumber    int      `json:"installment_number"`
	TotalInstallments    int      `json:"total_installments"`
	InstallmentStartDate *string  `json:"installment_start_date"`
	InstallmentValue     *float64 `json:"installment_value"`
	IsRecurring          bool     `json:"is_recurring"`
	RecurringDate        int      `json:"recurring_date"`
	CreditCardID         *int64   `json:"credit_card_id"`
	CreatedAt            string   `json:"created_at"`
}

func (r transactionRow) toDomain() domain.Transaction {
	t := domain.Transaction{
		ID:                r.ID,
		UserID:            r.UserID,
		Amount:            r.Amount,
		Type:              r.Type,
		Category:          r.Category,
		Description:       r.Description,
		TransactionDate:   parseTimestamp(r.TransactionDate),
		IsInstallment:     r.IsInstallment,
		InstallmentNumber: r.InstallmentNumber,
		TotalInstallments: r.TotalInstallments,
		InstallmentValue:  r.InstallmentValue,
		IsRecurring:       r.IsRecurring,
		RecurringDate:     r.RecurringDate,
		CreditCardID:      r.CreditCardID,
		CreatedAt:         parseTimestamp(r.CreatedAt),
	}
	if r.InstallmentStartDate != nil {
		start := parseTimestamp(*r.InstallmentStartDate)
		if !start.IsZero() {
			t.InstallmentStartDate = &start
		}
	}
	return t
}

func transactionPayload(t *domain.Transaction) map[string]any {
	data := map[string]any{
		"user_id":          t.UserID,
		"amount":           t.Amount,
		"type":             t.Type,
		"category":         t.Category,
		"description":      t.Description,
		"transaction_date": t.TransactionDate.Format("2006-01-02"),
		"is_installment":   t.IsInstallment,
		"is_recurring":     t.IsRecurring,
	}
	if t.IsInstallment {
		data["installment_number"] = t.InstallmentNumber
		data["total_installments"] = t.TotalInstallments
		if t.InstallmentStartDate != nil {
			data["installment_start_date"] = t.InstallmentStartDate.Format("2006-01-02")
		}
		if t.InstallmentValue != nil {
			data["installment_value"] = *t.InstallmentValue
		}
	}
	if t.IsRecurring {
		data["recurring_date"] = t.RecurringDate
	}
	if t.CreditCardID != nil {
		data["credit_card_id"] = *t.CreditCardID
	}
	return data
}

// ListTransactions fetches all transactions for a user, newest first.
func (c *Client) ListTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var transactions []domain.Transaction

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("transactions?user_id=eq.%d&order=transaction_date.desc", userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			transactions = []domain.Transaction{}
			return nil
		}

		var rows []transactionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode transactions: %w", err)
		}

		transactions = make([]domain.Transaction, 0, len(rows))
		for _, r := range rows {
			transactions = append(transactions, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return transactions, nil
}

// GetTransaction fetches a single transaction scoped by owner.
func (c *Client) GetTransaction(ctx context.Context, userID, txID int64) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	var transaction *domain.Transaction

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("transactions?id=eq.%d&user_id=eq.%d&limit=1", txID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", txID)}
		}

		var rows []transactionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode transaction: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", txID)}
		}

		t := rows[0].toDomain()
		transaction = &t
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return transaction, nil
}

// CreateTransaction inserts a transaction and returns it with the generated ID.
func (c *Client) CreateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	var created *domain.Transaction

	err := c.executeWrite(ctx, func() error {
		body, err := c.doPost(ctx, "transactions", transactionPayload(t))
		if err != nil {
			return err
		}

		var rows []transactionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created transaction: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("supabase returned no row for created transaction")
		}

		row := rows[0].toDomain()
		created = &row
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return created, nil
}

// UpdateTransaction replaces the mutable fields of a transaction.
func (c *Client) UpdateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	var updated *domain.Transaction

	err := c.executeWrite(ctx, func() error {
		path := fmt.Sprintf("transactions?id=eq.%d&user_id=eq.%d", t.ID, t.UserID)
		body, err := c.doPatch(ctx, path, transactionPayload(t))
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", t.ID)}
		}

		var rows []transactionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode updated transaction: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", t.ID)}
		}

		row := rows[0].toDomain()
		updated = &row
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}

	return updated, nil
}

// DeleteTransaction removes a transaction scoped by owner.
func (c *Client) DeleteTransaction(ctx context.Context, userID, txID int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	err := c.executeWrite(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("transactions?id=eq.%d&user_id=eq.%d", txID, userID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	return nil
}
