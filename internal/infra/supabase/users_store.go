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
// Users (owner resolution)
// ============================================================

type userRow struct {
	ID        int64  `json:"id"`
	AuthID    string `json:"auth_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		AuthID:    r.AuthID,
		Email:     r.Email,
		Name:      r.Name,
		CreatedAt: parseTimestamp(r.CreatedAt),
	}
}

// GetUserByAuthID resolves the row owner for an authenticated identity.
func (c *Client) GetUserByAuthID(ctx context.Context, authID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByAuthID")
	defer span.End()
	span.SetAttributes(attribute.String("auth.id", authID))

	return c.fetchUser(ctx, fmt.Sprintf("users?auth_id=eq.%s&limit=1", url.QueryEscape(authID)), authID)
}

// GetUserByID fetches a user by its integer ID.
func (c *Client) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	return c.fetchUser(ctx, fmt.Sprintf("users?id=eq.%d&limit=1", userID), fmt.Sprintf("%d", userID))
}

// GetUserByEmail fetches a user by email. Used at registration and login.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	return c.fetchUser(ctx, fmt.Sprintf("users?email=eq.%s&limit=1", url.QueryEscape(email)), email)
}

func (c *Client) fetchUser(ctx context.Context, path, id string) (*domain.User, error) {
	var user *domain.User

	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "user", ID: id}
		}

		var rows []userRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode user: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "user", ID: id}
		}

		user = rows[0].toDomain()
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return user, nil
}

// CreateUser inserts a new user row and returns it with the generated ID.
func (c *Client) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	var created *domain.User

	err := c.executeWrite(ctx, func() error {
		body, err := c.doPost(ctx, "users", map[string]any{
			"auth_id": user.AuthID,
			"email":   user.Email,
			"name":    user.Name,
		})
		if err != nil {
			return err
		}

		var rows []userRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created user: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("supabase returned no row for created user")
		}

		created = rows[0].toDomain()
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return created, nil
}
