package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

// ============================================================
// Subscriptions
// ============================================================

type subscriptionRow struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Plan        string  `json:"plan"`
	TrialEndsAt *string `json:"trial_ends_at"`
	CreatedAt   string  `json:"created_at"`
}

func (r subscriptionRow) toDomain() *domain.Subscription {
	s := &domain.Subscription{
		ID:        r.ID,
		UserID:    r.UserID,
		Plan:      r.Plan,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
	if r.TrialEndsAt != nil {
		ends := parseTimestamp(*r.TrialEndsAt)
		if !ends.IsZero() {
			s.TrialEndsAt = &ends
		}
	}
	return s
}

// GetSubscription fetches the user's subscription.
func (c *Client) GetSubscription(ctx context.Context, userID int64) (*domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSubscription")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var sub *domain.Subscription

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("subscriptions?user_id=eq.%d&limit=1", userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "subscription", ID: fmt.Sprintf("%d", userID)}
		}

		var rows []subscriptionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode subscription: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "subscription", ID: fmt.Sprintf("%d", userID)}
		}

		sub = rows[0].toDomain()
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/subscriptions", Err: err}
	}

	return sub, nil
}

// CreateSubscription inserts the user's subscription row.
func (c *Client) CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSubscription")
	defer span.End()

	var created *domain.Subscription

	err := c.executeWrite(ctx, func() error {
		data := map[string]any{
			"user_id": sub.UserID,
			"plan":    sub.Plan,
		}
		if sub.TrialEndsAt != nil {
			data["trial_ends_at"] = sub.TrialEndsAt.Format(time.RFC3339)
		}

		body, err := c.doPost(ctx, "subscriptions", data)
		if err != nil {
			return err
		}

		var rows []subscriptionRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created subscription: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("supabase returned no row for created subscription")
		}

		created = rows[0].toDomain()
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/subscriptions", Err: err}
	}

	return created, nil
}

// UpdateSubscriptionPlan changes the user's plan. Moving off trial clears
// the trial window.
func (c *Client) UpdateSubscriptionPlan(ctx context.Context, userID int64, plan string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateSubscriptionPlan")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", userID),
		attribute.String("subscription.plan", plan),
	)

	data := map[string]any{"plan": plan}
	if plan != domain.PlanTrial {
		data["trial_ends_at"] = nil
	}

	err := c.executeWrite(ctx, func() error {
		path := fmt.Sprintf("subscriptions?user_id=eq.%d", userID)
		body, err := c.doPatch(ctx, path, data)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "subscription", ID: fmt.Sprintf("%d", userID)}
		}
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return notFound
		}
		return &domain.ErrExternalService{Service: "supabase/subscriptions", Err: err}
	}
	return nil
}
