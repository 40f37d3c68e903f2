package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

// ============================================================
// Credit card bills + payments
// ============================================================

type billRow struct {
	ID             int64   `json:"id"`
	UserID         int64   `json:"user_id"`
	CreditCardID   int64   `json:"credit_card_id"`
	ReferenceMonth string  `json:"reference_month"`
	PaidAmount     float64 `json:"paid_amount"`
	DueDate        string  `json:"due_date"`
	CloseDate      string  `json:"close_date"`
	Archived       bool    `json:"archived"`
	Version        int64   `json:"version"`
	CreatedAt      string  `json:"created_at"`
}

func (r billRow) toDomain() domain.CreditCardBill {
	return domain.CreditCardBill{
		ID:             r.ID,
		UserID:         r.UserID,
		CreditCardID:   r.CreditCardID,
		ReferenceMonth: r.ReferenceMonth,
		PaidAmount:     r.PaidAmount,
		DueDate:        r.DueDate,
		CloseDate:      r.CloseDate,
		Archived:       r.Archived,
		Version:        r.Version,
		CreatedAt:      parseTimestamp(r.CreatedAt),
	}
}

// GetBill fetches a single bill row scoped by owner. Amounts other than
// paid_amount are recomputed by the service layer, not stored.
func (c *Client) GetBill(ctx context.Context, userID, billID int64) (*domain.CreditCardBill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBill")
	defer span.End()
	span.SetAttributes(attribute.Int64("bill.id", billID))

	path := fmt.Sprintf("credit_card_bills?id=eq.%d&user_id=eq.%d&limit=1", billID, userID)
	return c.fetchBill(ctx, path, fmt.Sprintf("%d", billID))
}

// GetBillByMonth fetches the bill row for a card's reference month.
func (c *Client) GetBillByMonth(ctx context.Context, userID, cardID int64, month string) (*domain.CreditCardBill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBillByMonth")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("card.id", cardID),
		attribute.String("bill.month", month),
	)

	path := fmt.Sprintf("credit_card_bills?credit_card_id=eq.%d&user_id=eq.%d&reference_month=eq.%s&limit=1",
		cardID, userID, url.QueryEscape(month))
	return c.fetchBill(ctx, path, month)
}

func (c *Client) fetchBill(ctx context.Context, path, id string) (*domain.CreditCardBill, error) {
	var bill *domain.CreditCardBill

	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "bill", ID: id}
		}

		var rows []billRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode bill: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "bill", ID: id}
		}

		row := rows[0].toDomain()
		bill = &row
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/credit_card_bills", Err: err}
	}

	return bill, nil
}

// CreateBill materializes a bill row for a reference month.
func (c *Client) CreateBill(ctx context.Context, bill *domain.CreditCardBill) (*domain.CreditCardBill, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBill")
	defer span.End()

	var created *domain.CreditCardBill

	err := c.executeWrite(ctx, func() error {
		body, err := c.doPost(ctx, "credit_card_bills", map[string]any{
			"user_id":         bill.UserID,
			"credit_card_id":  bill.CreditCardID,
			"reference_month": bill.ReferenceMonth,
			"paid_amount":     bill.PaidAmount,
			"due_date":        bill.DueDate,
			"close_date":      bill.CloseDate,
			"archived":        false,
			"version":         1,
		})
		if err != nil {
			return err
		}

		var rows []billRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created bill: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("supabase returned no row for created bill")
		}

		row := rows[0].toDomain()
		created = &row
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/credit_card_bills", Err: err}
	}

	return created, nil
}

// UpdateBillVersioned applies updates only if the stored version still equals
// version. PostgREST returns the updated rows; an empty result means another
// writer bumped the version first and the caller must re-read and retry.
func (c *Client) UpdateBillVersioned(ctx context.Context, billID, version int64, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateBillVersioned")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("bill.id", billID),
		attribute.Int64("bill.version", version),
	)

	data := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		data[k] = v
	}
	data["version"] = version + 1

	err := c.executeWrite(ctx, func() error {
		path := fmt.Sprintf("credit_card_bills?id=eq.%d&version=eq.%d", billID, version)
		body, err := c.doPatch(ctx, path, data)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrConflict{Message: fmt.Sprintf("bill %d was modified concurrently", billID)}
		}
		return nil
	})
	if err != nil {
		var conflict *domain.ErrConflict
		if errors.As(err, &conflict) {
			return conflict
		}
		return &domain.ErrExternalService{Service: "supabase/credit_card_bills", Err: err}
	}
	return nil
}

type paymentRow struct {
	ID          int64   `json:"id"`
	BillID      int64   `json:"bill_id"`
	UserID      int64   `json:"user_id"`
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date"`
	CreatedAt   string  `json:"created_at"`
}

func (r paymentRow) toDomain() domain.BillPayment {
	return domain.BillPayment{
		ID:          r.ID,
		BillID:      r.BillID,
		UserID:      r.UserID,
		Amount:      r.Amount,
		PaymentDate: r.PaymentDate,
		CreatedAt:   parseTimestamp(r.CreatedAt),
	}
}

// ListBillPayments fetches all payments recorded against a bill.
func (c *Client) ListBillPayments(ctx context.Context, userID, billID int64) ([]domain.BillPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListBillPayments")
	defer span.End()
	span.SetAttributes(attribute.Int64("bill.id", billID))

	var payments []domain.BillPayment

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("bill_payments?bill_id=eq.%d&user_id=eq.%d&order=payment_date.asc", billID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			payments = []domain.BillPayment{}
			return nil
		}

		var rows []paymentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode payments: %w", err)
		}

		payments = make([]domain.BillPayment, 0, len(rows))
		for _, r := range rows {
			payments = append(payments, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/bill_payments", Err: err}
	}

	return payments, nil
}

// GetBillPayment fetches a single payment scoped by owner.
func (c *Client) GetBillPayment(ctx context.Context, userID, paymentID int64) (*domain.BillPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetBillPayment")
	defer span.End()

	var payment *domain.BillPayment

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("bill_payments?id=eq.%d&user_id=eq.%d&limit=1", paymentID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "payment", ID: fmt.Sprintf("%d", paymentID)}
		}

		var rows []paymentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode payment: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "payment", ID: fmt.Sprintf("%d", paymentID)}
		}

		row := rows[0].toDomain()
		payment = &row
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/bill_payments", Err: err}
	}

	return payment, nil
}

// CreateBillPayment inserts a payment and returns it with the generated ID.
func (c *Client) CreateBillPayment(ctx context.Context, p *domain.BillPayment) (*domain.BillPayment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateBillPayment")
	defer span.End()

	var created *domain.BillPayment

	err := c.executeWrite(ctx, func() error {
		body, err := c.doPost(ctx, "bill_payments", map[string]any{
			"bill_id":      p.BillID,
			"user_id":      p.UserID,
			"amount":       p.Amount,
			"payment_date": p.PaymentDate,
		})
		if err != nil {
			return err
		}

		var rows []paymentRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created payment: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("supabase returned no row for created payment")
		}

		row := rows[0].toDomain()
		created = &row
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/bill_payments", Err: err}
	}

	return created, nil
}

// DeleteBillPayment removes a payment scoped by owner.
func (c *Client) DeleteBillPayment(ctx context.Context, userID, paymentID int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteBillPayment")
	defer span.End()

	err := c.executeWrite(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("bill_payments?id=eq.%d&user_id=eq.%d", paymentID, userID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/bill_payments", Err: err}
	}
	return nil
}
