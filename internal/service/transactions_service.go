package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

var txTracer = otel.Tracer("service/transactions")

// TransactionsService handles transaction CRUD with validation and
// cache invalidation.
type TransactionsService struct {
	core *FinanceService
}

// NewTransactionsService creates a new transactions service.
func NewTransactionsService(core *FinanceService) *TransactionsService {
	return &TransactionsService{core: core}
}

// List returns all transactions for the authenticated owner, newest first.
// An unresolved owner yields an empty list.
func (s *TransactionsService) List(ctx context.Context, authID string) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.List")
	defer span.End()

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []domain.Transaction{}, nil
	}

	return s.core.OwnerTransactions(ctx, user.ID)
}

// Get returns a single transaction.
func (s *TransactionsService) Get(ctx context.Context, authID string, txID int64) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("transaction.id", txID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", txID)}
	}

	return s.core.store.GetTransaction(ctx, user.ID, txID)
}

// Create validates and persists a new transaction, returning the stored row.
func (s *TransactionsService) Create(ctx context.Context, authID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Create")
	defer span.End()

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "Usuário não encontrado"}
	}

	tx, err := s.buildTransaction(ctx, user.ID, req)
	if err != nil {
		return nil, err
	}

	created, err := s.core.store.CreateTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	s.core.InvalidateTransactions(user.ID)
	s.core.logger.Info("transaction created",
		zap.Int64("user_id", user.ID),
		zap.Int64("transaction_id", created.ID),
		zap.String("type", created.Type),
		zap.Float64("amount", created.Amount),
	)

	return created, nil
}

// Update validates and replaces a transaction, returning the stored row.
func (s *TransactionsService) Update(ctx context.Context, authID string, txID int64, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("transaction.id", txID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", txID)}
	}

	// Ownership check before mutating
	if _, err := s.core.store.GetTransaction(ctx, user.ID, txID); err != nil {
		return nil, err
	}

	tx, err := s.buildTransaction(ctx, user.ID, req)
	if err != nil {
		return nil, err
	}
	tx.ID = txID

	updated, err := s.core.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	s.core.InvalidateTransactions(user.ID)
	return updated, nil
}

// Delete removes a transaction.
func (s *TransactionsService) Delete(ctx context.Context, authID string, txID int64) error {
	ctx, span := txTracer.Start(ctx, "TransactionsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("transaction.id", txID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return err
	}
	if user == nil {
		return &domain.ErrNotFound{Resource: "transaction", ID: fmt.Sprintf("%d", txID)}
	}

	if _, err := s.core.store.GetTransaction(ctx, user.ID, txID); err != nil {
		return err
	}

	if err := s.core.store.DeleteTransaction(ctx, user.ID, txID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.core.InvalidateTransactions(user.ID)
	s.core.logger.Info("transaction deleted",
		zap.Int64("user_id", user.ID),
		zap.Int64("transaction_id", txID),
	)
	return nil
}

// buildTransaction validates the request and assembles the domain row.
func (s *TransactionsService) buildTransaction(ctx context.Context, userID int64, req *domain.TransactionRequest) (*domain.Transaction, error) {
	if req.Type != domain.TypeReceita && req.Type != domain.TypeDespesa {
		return nil, &domain.ErrValidation{Field: "type", Message: "deve ser 'receita' ou 'despesa'"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "deve ser maior que zero"}
	}
	if req.Category == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "obrigatório"}
	}

	txDate, err := time.Parse("2006-01-02", req.TransactionDate)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "transaction_date", Message: "formato esperado: YYYY-MM-DD"}
	}

	tx := &domain.Transaction{
		UserID:          userID,
		Amount:          req.Amount,
		Type:            req.Type,
		Category:        req.Category,
		Description:     req.Description,
		TransactionDate: txDate,
	}

	if req.IsInstallment {
		if req.Type != domain.TypeDespesa {
			return nil, &domain.ErrValidation{Field: "is_installment", Message: "parcelamento só se aplica a despesas"}
		}
		if req.TotalInstallments < 2 {
			return nil, &domain.ErrValidation{Field: "total_installments", Message: "deve ser pelo menos 2"}
		}
		tx.IsInstallment = true
		tx.InstallmentNumber = 1
		tx.TotalInstallments = req.TotalInstallments
		tx.InstallmentValue = req.InstallmentValue

		// Start date defaults to the purchase date.
		start := txDate
		if req.InstallmentStartDate != "" {
			start, err = time.Parse("2006-01-02", req.InstallmentStartDate)
			if err != nil {
				return nil, &domain.ErrValidation{Field: "installment_start_date", Message: "formato esperado: YYYY-MM-DD"}
			}
		}
		tx.InstallmentStartDate = &start
	}

	if req.IsRecurring {
		if req.IsInstallment {
			return nil, &domain.ErrValidation{Field: "is_recurring", Message: "transação não pode ser recorrente e parcelada"}
		}
		if req.RecurringDate < 1 || req.RecurringDate > 31 {
			return nil, &domain.ErrValidation{Field: "recurring_date", Message: "dia deve estar entre 1 e 31"}
		}
		tx.IsRecurring = true
		tx.RecurringDate = req.RecurringDate
	}

	if req.CreditCardID != nil {
		if req.Type != domain.TypeDespesa {
			return nil, &domain.ErrValidation{Field: "credit_card_id", Message: "cartão só se aplica a despesas"}
		}
		// Card must exist and belong to the owner.
		if _, err := s.core.store.GetCreditCard(ctx, userID, *req.CreditCardID); err != nil {
			return nil, err
		}
		tx.CreditCardID = req.CreditCardID
	}

	return tx, nil
}
