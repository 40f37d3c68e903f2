package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

var cardsTracer = otel.Tracer("service/cards")

// CardsService handles credit card CRUD.
type CardsService struct {
	core *FinanceService
}

// NewCardsService creates a new cards service.
func NewCardsService(core *FinanceService) *CardsService {
	return &CardsService{core: core}
}

// List returns the owner's credit cards. An unresolved owner yields an
// empty list.
func (s *CardsService) List(ctx context.Context, authID string) ([]domain.CreditCard, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.List")
	defer span.End()

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []domain.CreditCard{}, nil
	}

	cards, err := s.core.store.ListCreditCards(ctx, user.ID)
	if err != nil {
		s.core.metrics.IncrStoreError("credit_cards")
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	return cards, nil
}

// Get returns a single card.
func (s *CardsService) Get(ctx context.Context, authID string, cardID int64) (*domain.CreditCard, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("card.id", cardID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", cardID)}
	}

	return s.core.store.GetCreditCard(ctx, user.ID, cardID)
}

// Create validates and persists a new card.
func (s *CardsService) Create(ctx context.Context, authID string, req *domain.CreditCardRequest) (*domain.CreditCard, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.Create")
	defer span.End()

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "Usuário não encontrado"}
	}

	card, err := buildCard(user.ID, req)
	if err != nil {
		return nil, err
	}

	created, err := s.core.store.CreateCreditCard(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("create credit card: %w", err)
	}

	s.core.logger.Info("credit card created",
		zap.Int64("user_id", user.ID),
		zap.Int64("card_id", created.ID),
		zap.String("bank", created.BankName),
	)
	return created, nil
}

// Update validates and replaces a card's fields.
func (s *CardsService) Update(ctx context.Context, authID string, cardID int64, req *domain.CreditCardRequest) (*domain.CreditCard, error) {
	ctx, span := cardsTracer.Start(ctx, "CardsService.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("card.id", cardID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", cardID)}
	}

	if _, err := s.core.store.GetCreditCard(ctx, user.ID, cardID); err != nil {
		return nil, err
	}

	card, err := buildCard(user.ID, req)
	if err != nil {
		return nil, err
	}
	card.ID = cardID

	return s.core.store.UpdateCreditCard(ctx, card)
}

// Delete removes a card. Its transactions survive as plain expenses.
func (s *CardsService) Delete(ctx context.Context, authID string, cardID int64) error {
	ctx, span := cardsTracer.Start(ctx, "CardsService.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("card.id", cardID))

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return err
	}
	if user == nil {
		return &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", cardID)}
	}

	if _, err := s.core.store.GetCreditCard(ctx, user.ID, cardID); err != nil {
		return err
	}

	if err := s.core.store.DeleteCreditCard(ctx, user.ID, cardID); err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}

	s.core.InvalidateTransactions(user.ID)
	s.core.logger.Info("credit card deleted",
		zap.Int64("user_id", user.ID),
		zap.Int64("card_id", cardID),
	)
	return nil
}

func buildCard(userID int64, req *domain.CreditCardRequest) (*domain.CreditCard, error) {
	if req.BankName == "" {
		return nil, &domain.ErrValidation{Field: "bank_name", Message: "obrigatório"}
	}
	if req.DueDate < 1 || req.DueDate > 31 {
		return nil, &domain.ErrValidation{Field: "due_date", Message: "dia deve estar entre 1 e 31"}
	}
	if req.CloseDate != nil && (*req.CloseDate < 1 || *req.CloseDate > 31) {
		return nil, &domain.ErrValidation{Field: "close_date", Message: "dia deve estar entre 1 e 31"}
	}

	return &domain.CreditCard{
		UserID:    userID,
		BankName:  req.BankName,
		CardName:  req.CardName,
		CloseDate: req.CloseDate,
		DueDate:   req.DueDate,
		CardType:  req.CardType,
		Color:     req.Color,
	}, nil
}
