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
// Credit cards
// ============================================================

type cardRow struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	BankName  string `json:"bank_name"`
	CardName  string `json:"card_name"`
	CloseDate *int   `json:"close_date"`
	DueDate   int    `json:"due_date"`
	CardType  string `json:"card_type"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
}

func (r cardRow) toDomain() domain.CreditCard {
	return domain.CreditCard{
		ID:        r.ID,
		UserID:    r.UserID,
		BankName:  r.BankName,
		CardName:  r.CardName,
		CloseDate: r.CloseDate,
		DueDate:   r.DueDate,
		CardType:  r.CardType,
		Color:     r.Color,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

func cardPayload(card *domain.CreditCard) map[string]any {
	data := map[string]any{
		"user_id":   card.UserID,
		"bank_name": card.BankName,
		"card_name": card.CardName,
		"due_date":  card.DueDate,
		"card_type": card.CardType,
		"color":     card.Color,
	}
	if card.CloseDate != nil {
		data["close_date"] = *card.CloseDate
	}
	return data
}

// ListCreditCards fetches all cards for a user.
func (c *Client) ListCreditCards(ctx context.Context, userID int64) ([]domain.CreditCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListCreditCards")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var cards []domain.CreditCard

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("credit_cards?user_id=eq.%d&order=created_at.asc", userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			cards = []domain.CreditCard{}
			return nil
		}

		var rows []cardRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode credit cards: %w", err)
		}

		cards = make([]domain.CreditCard, 0, len(rows))
		for _, r := range rows {
			cards = append(cards, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/credit_cards", Err: err}
	}

	return cards, nil
}

// GetCreditCard fetches a single card scoped by owner.
func (c *Client) GetCreditCard(ctx context.Context, userID, cardID int64) (*domain.CreditCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCreditCard")
	defer span.End()

	var card *domain.CreditCard

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("credit_cards?id=eq.%d&user_id=eq.%d&limit=1", cardID, userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", cardID)}
		}

		var rows []cardRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode credit card: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", cardID)}
		}

		row := rows[0].toDomain()
		card = &row
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/credit_cards", Err: err}
	}

	return card, nil
}

// CreateCreditCard inserts a card and returns it with the generated ID.
func (c *Client) CreateCreditCard(ctx context.Context, card *domain.CreditCard) (*domain.CreditCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCreditCard")
	defer span.End()

	var created *domain.CreditCard

	err := c.executeWrite(ctx, func() error {
		body, err := c.doPost(ctx, "credit_cards", cardPayload(card))
		if err != nil {
			return err
		}

		var rows []cardRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created credit card: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("supabase returned no row for created credit card")
		}

		row := rows[0].toDomain()
		created = &row
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/credit_cards", Err: err}
	}

	return created, nil
}

// UpdateCreditCard replaces the mutable fields of a card.
func (c *Client) UpdateCreditCard(ctx context.Context, card *domain.CreditCard) (*domain.CreditCard, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCreditCard")
	defer span.End()

	var updated *domain.CreditCard

	err := c.executeWrite(ctx, func() error {
		path := fmt.Sprintf("credit_cards?id=eq.%d&user_id=eq.%d", card.ID, card.UserID)
		body, err := c.doPatch(ctx, path, cardPayload(card))
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", card.ID)}
		}

		var rows []cardRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode updated credit card: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "credit card", ID: fmt.Sprintf("%d", card.ID)}
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
		return nil, &domain.ErrExternalService{Service: "supabase/credit_cards", Err: err}
	}

	return updated, nil
}

// DeleteCreditCard removes a card scoped by owner.
func (c *Client) DeleteCreditCard(ctx context.Context, userID, cardID int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteCreditCard")
	defer span.End()

	err := c.executeWrite(ctx, func() error {
		return c.doDelete(ctx, fmt.Sprintf("credit_cards?id=eq.%d&user_id=eq.%d", cardID, userID))
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/credit_cards", Err: err}
	}
	return nil
}
