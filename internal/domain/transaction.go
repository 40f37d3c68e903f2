package domain

import "time"

// Transaction types. Every row is either income (receita) or expense (despesa).
const (
	TypeReceita = "receita"
	TypeDespesa = "despesa"
)

// Transaction represents a single income or expense event.
// Optional installment metadata spreads the purchase across future months;
// optional recurrence metadata repeats it on a fixed day of every month.
type Transaction struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Amount          float64   `json:"amount"`
	Type            string    `json:"type"` // receita | despesa
	Category        string    `json:"category"`
	Description     string    `json:"description,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`

	// Installment plan (optional)
	IsInstallment        bool       `json:"is_installment"`
	InstallmentNumber    int        `json:"installment_number,omitempty"`
	TotalInstallments    int        `json:"total_installments,omitempty"`
	InstallmentStartDate *time.Time `json:"installment_start_date,omitempty"`
	InstallmentValue     *float64   `json:"installment_value,omitempty"`

	// Recurrence (optional)
	IsRecurring   bool `json:"is_recurring"`
	RecurringDate int  `json:"recurring_date,omitempty"` // day of month, 1-31

	// Credit card linkage (optional). Presence means the expense is
	// billed through that card's statement instead of hitting the
	// balance directly.
	CreditCardID *int64 `json:"credit_card_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsExpense reports whether the transaction is a despesa.
func (t *Transaction) IsExpense() bool { return t.Type == TypeDespesa }

// IsIncome reports whether the transaction is a receita.
func (t *Transaction) IsIncome() bool { return t.Type == TypeReceita }

// TransactionRequest is the payload to create or edit a transaction.
type TransactionRequest struct {
	Amount               float64  `json:"amount"`
	Type                 string   `json:"type"`
	Category             string   `json:"category"`
	Description          string   `json:"description,omitempty"`
	TransactionDate      string   `json:"transaction_date"` // YYYY-MM-DD
	IsInstallment        bool     `json:"is_installment,omitempty"`
	TotalInstallments    int      `json:"total_installments,omitempty"`
	InstallmentStartDate string   `json:"installment_start_date,omitempty"` // YYYY-MM-DD
	InstallmentValue     *float64 `json:"installment_value,omitempty"`
	IsRecurring          bool     `json:"is_recurring,omitempty"`
	RecurringDate        int      `json:"recurring_date,omitempty"`
	CreditCardID         *int64   `json:"credit_card_id,omitempty"`
}
