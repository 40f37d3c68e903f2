package domain

import "time"

// ============================================================
// Credit Cards
// ============================================================

// CreditCard represents a user's credit card and its billing cycle.
// CloseDate is the day of month the statement closes; DueDate is the day the
// payment is due. CloseDate is optional — without it the statement window
// falls back to the calendar month.
type CreditCard struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BankName  string    `json:"bank_name"`
	CardName  string    `json:"card_name,omitempty"`
	CloseDate *int      `json:"close_date,omitempty"` // day of month, 1-31
	DueDate   int       `json:"due_date"`             // day of month, 1-31
	CardType  string    `json:"card_type,omitempty"`  // Visa, Mastercard, Elo
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the card name, falling back to the bank name.
func (c *CreditCard) DisplayName() string {
	if c.CardName != "" {
		return c.CardName
	}
	return c.BankName
}

// CreditCardRequest is the payload to create or edit a credit card.
type CreditCardRequest struct {
	BankName  string `json:"bank_name"`
	CardName  string `json:"card_name,omitempty"`
	CloseDate *int   `json:"close_date,omitempty"`
	DueDate   int    `json:"due_date"`
	CardType  string `json:"card_type,omitempty"`
	Color     string `json:"color,omitempty"`
}

// ============================================================
// Credit Card Bills
// ============================================================

// Bill statuses. Archived is a separate terminal flag, not a status.
const (
	BillStatusPending = "pending"
	BillStatusOpen    = "open"
	BillStatusPaid    = "paid"
	BillStatusOverdue = "overdue"
	BillStatusPartial = "partial"
)

// CreditCardBill is the monthly statement of a card: the sum of direct card
// expenses in the statement window plus the installment shares allocated to
// the reference month, with the payments recorded against it.
//
// Bill rows are materialized on demand when an aggregation first touches a
// reference month; amounts are recomputed from the transaction store on every
// read, only paid_amount/archived/version are authoritative on the row.
type CreditCardBill struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	CreditCardID    int64     `json:"credit_card_id"`
	ReferenceMonth  string    `json:"reference_month"` // "2026-08"
	BillAmount      float64   `json:"bill_amount"`
	PaidAmount      float64   `json:"paid_amount"`
	RemainingAmount float64   `json:"remaining_amount"`
	DueDate         string    `json:"due_date"`   // YYYY-MM-DD
	CloseDate       string    `json:"close_date"` // YYYY-MM-DD
	Status          string    `json:"status"`
	Archived        bool      `json:"archived"`
	Version         int64     `json:"version"`
	DueSoon         bool      `json:"due_soon"` // derived, never stored
	CreatedAt       time.Time `json:"created_at"`
}

// DeriveStatus computes the bill status from its amounts and due date.
// Order matters: a fully paid bill is paid even when the due date has passed.
func (b *CreditCardBill) DeriveStatus(now time.Time) string {
	if b.RemainingAmount <= 0 && b.BillAmount > 0 && b.PaidAmount > 0 {
		return BillStatusPaid
	}
	due, err := time.Parse("2006-01-02", b.DueDate)
	if err == nil && due.Before(now.Truncate(24*time.Hour)) && b.RemainingAmount > 0 {
		return BillStatusOverdue
	}
	if b.PaidAmount > 0 && b.RemainingAmount > 0 {
		return BillStatusPartial
	}
	return BillStatusOpen
}

// IsDueSoon reports whether the due date is within the next three days.
// Display emphasis only — overdue bills are not "due soon".
func (b *CreditCardBill) IsDueSoon(now time.Time) bool {
	due, err := time.Parse("2006-01-02", b.DueDate)
	if err != nil {
		return false
	}
	today := now.Truncate(24 * time.Hour)
	if due.Before(today) {
		return false
	}
	return !due.After(today.AddDate(0, 0, 3))
}

// ============================================================
// Bill Payments
// ============================================================

// BillPayment is one full or partial payment against a bill. Payments may be
// undone (deleted) unless the parent bill has been archived.
type BillPayment struct {
	ID          int64     `json:"id"`
	BillID      int64     `json:"bill_id"`
	UserID      int64     `json:"user_id"`
	Amount      float64   `json:"amount"`
	PaymentDate string    `json:"payment_date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
}

// BillPayRequest is the payload for paying a bill.
type BillPayRequest struct {
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date,omitempty"` // defaults to today
}
