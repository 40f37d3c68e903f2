package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

var billsTracer = otel.Tracer("service/bills")

// BillsService aggregates credit card statements and manages payments.
//
// Bill rows are materialized on first touch of a reference month; the
// bill amount is always recomputed from the transaction list so edits to
// past purchases are reflected immediately. Only paid_amount, archived
// and version are authoritative on the stored row.
type BillsService struct {
	core *FinanceService
	now  func() time.Time
}

// NewBillsService creates a new bills service.
func NewBillsService(core *FinanceService) *BillsService {
	return &BillsService{core: core, now: time.Now}
}

// ListBills returns the card's bills for the last monthsBack months plus
// upcoming months that already carry installment shares. Months with no
// activity and no stored row are skipped.
func (s *BillsService) ListBills(ctx context.Context, authID string, cardID int64, monthsBack, monthsAhead int) ([]domain.CreditCardBill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.ListBills")
	defer span.End()
	span.SetAttributes(attribute.Int64("card.id", cardID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []domain.CreditCardBill{}, nil
	}

	card, err := s.core.store.GetCreditCard(ctx, user.ID, cardID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.core.OwnerTransactions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if monthsBack < 1 {
		monthsBack = 12
	}
	if monthsAhead < 0 {
		monthsAhead = 3
	}

	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(monthsBack - 1), 0)

	bills := make([]domain.CreditCardBill, 0, monthsBack+monthsAhead)
	for i := 0; i < monthsBack+monthsAhead; i++ {
		ref := first.AddDate(0, i, 0)
		amount := s.billAmount(card, transactions, ref.Year(), ref.Month())

		bill, err := s.materializeBill(ctx, user.ID, card, ref.Year(), ref.Month(), amount)
		if err != nil {
			var notFound *domain.ErrNotFound
			if amount == 0 && errors.As(err, &notFound) {
				continue // nothing billed, nothing stored
			}
			return nil, err
		}
		bills = append(bills, *bill)
	}

	return bills, nil
}

// GetBillForMonth returns (materializing if needed) one card's bill for a
// reference month in "YYYY-MM" form.
func (s *BillsService) GetBillForMonth(ctx context.Context, authID string, cardID int64, month string) (*domain.CreditCardBill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.GetBillForMonth")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("card.id", cardID),
		attribute.String("bill.month", month),
	)

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: month}
	}

	ref, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "month", Message: "formato esperado: YYYY-MM"}
	}

	card, err := s.core.store.GetCreditCard(ctx, user.ID, cardID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.core.OwnerTransactions(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	amount := s.billAmount(card, transactions, ref.Year(), ref.Month())
	bill, err := s.materializeBill(ctx, user.ID, card, ref.Year(), ref.Month(), amount)
	if err != nil {
		var notFound *domain.ErrNotFound
		if amount == 0 && errors.As(err, &notFound) {
			// Nothing billed and nothing stored: answer with a transient
			// empty statement instead of a 404.
			closeDate, dueDate := statementDates(card, ref.Year(), ref.Month())
			empty := &domain.CreditCardBill{
				UserID:         user.ID,
				CreditCardID:   card.ID,
				ReferenceMonth: month,
				CloseDate:      closeDate.Format("2006-01-02"),
				DueDate:        dueDate.Format("2006-01-02"),
			}
			s.fillDerived(empty, 0)
			return empty, nil
		}
		return nil, err
	}
	return bill, nil
}

// PayBill records a full or partial payment. The version check rejects
// concurrent writers; the returned bill reflects the payment.
func (s *BillsService) PayBill(ctx context.Context, authID string, billID int64, req *domain.BillPayRequest) (*domain.CreditCardBill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.PayBill")
	defer span.End()
	span.SetAttributes(attribute.Int64("bill.id", billID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: fmt.Sprintf("%d", billID)}
	}

	if req.Amount <= 0 {
		s.core.metrics.IncrBillPayment("rejected")
		return nil, &domain.ErrValidation{Field: "amount", Message: "deve ser maior que zero"}
	}

	paymentDate := req.PaymentDate
	if paymentDate == "" {
		paymentDate = s.now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", paymentDate); err != nil {
		s.core.metrics.IncrBillPayment("rejected")
		return nil, &domain.ErrValidation{Field: "payment_date", Message: "formato esperado: YYYY-MM-DD"}
	}

	bill, err := s.loadBill(ctx, user.ID, billID)
	if err != nil {
		return nil, err
	}
	if bill.Archived {
		s.core.metrics.IncrBillPayment("rejected")
		return nil, &domain.ErrForbidden{Action: "pagar fatura arquivada"}
	}

	amount := domain.RoundCents(req.Amount)
	if amount > bill.RemainingAmount+0.005 {
		s.core.metrics.IncrBillPayment("rejected")
		return nil, &domain.ErrPaymentExceedsRemaining{
			Remaining: bill.RemainingAmount,
			Attempted: amount,
		}
	}

	newPaid := domain.RoundCents(bill.PaidAmount + amount)
	if err := s.core.store.UpdateBillVersioned(ctx, bill.ID, bill.Version, map[string]any{
		"paid_amount": newPaid,
	}); err != nil {
		var conflict *domain.ErrConflict
		if errors.As(err, &conflict) {
			s.core.metrics.IncrBillPayment("conflict")
		}
		return nil, err
	}

	if _, err := s.core.store.CreateBillPayment(ctx, &domain.BillPayment{
		BillID:      bill.ID,
		UserID:      user.ID,
		Amount:      amount,
		PaymentDate: paymentDate,
	}); err != nil {
		// paid_amount is already authoritative; the missing audit row is logged
		s.core.logger.Error("bill payment row not recorded",
			zap.Int64("bill_id", bill.ID),
			zap.Error(err),
		)
	}

	updated, err := s.loadBill(ctx, user.ID, billID)
	if err != nil {
		return nil, err
	}

	outcome := "partial"
	if updated.Status == domain.BillStatusPaid {
		outcome = "paid"
	}
	s.core.metrics.IncrBillPayment(outcome)
	s.core.logger.Info("bill payment recorded",
		zap.Int64("user_id", user.ID),
		zap.Int64("bill_id", bill.ID),
		zap.Float64("amount", amount),
		zap.String("status", updated.Status),
	)

	return updated, nil
}

// ListPayments returns the payments recorded against a bill.
func (s *BillsService) ListPayments(ctx context.Context, authID string, billID int64) ([]domain.BillPayment, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.ListPayments")
	defer span.End()
	span.SetAttributes(attribute.Int64("bill.id", billID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []domain.BillPayment{}, nil
	}

	if _, err := s.core.store.GetBill(ctx, user.ID, billID); err != nil {
		return nil, err
	}
	return s.core.store.ListBillPayments(ctx, user.ID, billID)
}

// UndoPayment deletes a payment and restores the bill's paid amount.
// Archived bills are immutable.
func (s *BillsService) UndoPayment(ctx context.Context, authID string, billID, paymentID int64) (*domain.CreditCardBill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.UndoPayment")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("bill.id", billID),
		attribute.Int64("payment.id", paymentID),
	)

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "payment", ID: fmt.Sprintf("%d", paymentID)}
	}

	payment, err := s.core.store.GetBillPayment(ctx, user.ID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.BillID != billID {
		return nil, &domain.ErrNotFound{Resource: "payment", ID: fmt.Sprintf("%d", paymentID)}
	}

	bill, err := s.loadBill(ctx, user.ID, billID)
	if err != nil {
		return nil, err
	}
	if bill.Archived {
		return nil, &domain.ErrForbidden{Action: "desfazer pagamento de fatura arquivada"}
	}

	newPaid := domain.RoundCents(bill.PaidAmount - payment.Amount)
	if newPaid < 0 {
		newPaid = 0
	}
	if err := s.core.store.UpdateBillVersioned(ctx, bill.ID, bill.Version, map[string]any{
		"paid_amount": newPaid,
	}); err != nil {
		return nil, err
	}

	if err := s.core.store.DeleteBillPayment(ctx, user.ID, paymentID); err != nil {
		return nil, err
	}

	s.core.logger.Info("bill payment undone",
		zap.Int64("user_id", user.ID),
		zap.Int64("bill_id", billID),
		zap.Int64("payment_id", paymentID),
		zap.Float64("amount", payment.Amount),
	)

	return s.loadBill(ctx, user.ID, billID)
}

// ArchiveBill marks a fully paid bill as archived. Archiving is one-way.
func (s *BillsService) ArchiveBill(ctx context.Context, authID string, billID int64) (*domain.CreditCardBill, error) {
	ctx, span := billsTracer.Start(ctx, "BillsService.ArchiveBill")
	defer span.End()
	span.SetAttributes(attribute.Int64("bill.id", billID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: fmt.Sprintf("%d", billID)}
	}

	bill, err := s.loadBill(ctx, user.ID, billID)
	if err != nil {
		return nil, err
	}
	if bill.Archived {
		return bill, nil // already archived, idempotent
	}
	if bill.Status != domain.BillStatusPaid {
		return nil, &domain.ErrForbidden{Action: "arquivar fatura não quitada"}
	}

	if err := s.core.store.UpdateBillVersioned(ctx, bill.ID, bill.Version, map[string]any{
		"archived": true,
	}); err != nil {
		return nil, err
	}

	return s.loadBill(ctx, user.ID, billID)
}

// ============================================================
// Internals
// ============================================================

// loadBill fetches a stored bill row and recomputes its derived amounts.
func (s *BillsService) loadBill(ctx context.Context, userID, billID int64) (*domain.CreditCardBill, error) {
	bill, err := s.core.store.GetBill(ctx, userID, billID)
	if err != nil {
		return nil, err
	}

	card, err := s.core.store.GetCreditCard(ctx, userID, bill.CreditCardID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.core.OwnerTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	ref, err := time.Parse("2006-01", bill.ReferenceMonth)
	if err != nil {
		return nil, fmt.Errorf("bad reference month on bill %d: %w", bill.ID, err)
	}

	s.fillDerived(bill, s.billAmount(card, transactions, ref.Year(), ref.Month()))
	return bill, nil
}

// materializeBill returns the stored row for a month, creating it when the
// month carries a non-zero amount and no row exists yet.
func (s *BillsService) materializeBill(ctx context.Context, userID int64, card *domain.CreditCard, year int, month time.Month, amount float64) (*domain.CreditCardBill, error) {
	ref := fmt.Sprintf("%04d-%02d", year, int(month))

	bill, err := s.core.store.GetBillByMonth(ctx, userID, card.ID, ref)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
		if amount == 0 {
			return nil, err // caller decides whether an empty month matters
		}

		closeDate, dueDate := statementDates(card, year, month)
		bill, err = s.core.store.CreateBill(ctx, &domain.CreditCardBill{
			UserID:         userID,
			CreditCardID:   card.ID,
			ReferenceMonth: ref,
			CloseDate:      closeDate.Format("2006-01-02"),
			DueDate:        dueDate.Format("2006-01-02"),
		})
		if err != nil {
			return nil, err
		}
	}

	s.fillDerived(bill, amount)
	return bill, nil
}

// fillDerived recomputes the amounts-derived fields of a bill.
func (s *BillsService) fillDerived(bill *domain.CreditCardBill, amount float64) {
	now := s.now()
	bill.BillAmount = amount
	bill.RemainingAmount = domain.RoundCents(amount - bill.PaidAmount)
	bill.Status = bill.DeriveStatus(now)
	bill.DueSoon = bill.IsDueSoon(now)
}

// billAmount computes a card's statement total for a reference month:
// direct card expenses inside the statement window plus the installment
// shares allocated to the month.
func (s *BillsService) billAmount(card *domain.CreditCard, transactions []domain.Transaction, year int, month time.Month) float64 {
	windowStart, windowEnd := statementWindow(card, year, month)

	total := 0.0
	for i := range transactions {
		t := &transactions[i]
		if t.CreditCardID == nil || *t.CreditCardID != card.ID || !t.IsExpense() {
			continue
		}

		if share, ok := t.InstallmentShare(year, month); ok {
			total += share
			continue
		}
		if t.HasInstallmentPlan() {
			continue // plan exists but this month is outside its window
		}

		d := t.TransactionDate
		if !d.Before(windowStart) && d.Before(windowEnd) {
			total += t.Amount
		}
	}
	return domain.RoundCents(total)
}

// statementWindow returns the [start, end) range of purchase dates billed
// to a reference month. With a close day the window runs from the previous
// month's close (exclusive) through this month's close (inclusive);
// without one it is the calendar month.
func statementWindow(card *domain.CreditCard, year int, month time.Month) (time.Time, time.Time) {
	if card.CloseDate == nil {
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}

	end := clampedDay(year, month, *card.CloseDate).AddDate(0, 0, 1)
	prev := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	start := clampedDay(prev.Year(), prev.Month(), *card.CloseDate).AddDate(0, 0, 1)
	return start, end
}

// statementDates returns the close and due dates of a reference month's bill.
// The due date lands after the close; a due day on or before the close day
// rolls into the next month.
func statementDates(card *domain.CreditCard, year int, month time.Month) (closeDate, dueDate time.Time) {
	if card.CloseDate != nil {
		closeDate = clampedDay(year, month, *card.CloseDate)
	} else {
		// Calendar-month fallback: closes on the last day of the month.
		closeDate = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	}

	dueDate = clampedDay(year, month, card.DueDate)
	if !dueDate.After(closeDate) {
		next := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		dueDate = clampedDay(next.Year(), next.Month(), card.DueDate)
	}
	return closeDate, dueDate
}

// clampedDay builds a date clamping the day to the month's length, so a
// close day of 31 works in February.
func clampedDay(year int, month time.Month, day int) time.Time {
	last := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
