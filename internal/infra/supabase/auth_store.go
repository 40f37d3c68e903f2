package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

// ============================================================
// Auth credentials + refresh tokens
// ============================================================

type credentialRow struct {
	UserID         int64   `json:"user_id"`
	PasswordHash   string  `json:"password_hash"`
	FailedAttempts int     `json:"failed_attempts"`
	LockedUntil    *string `json:"locked_until"`
}

func (r credentialRow) toDomain() *domain.AuthCredential {
	cred := &domain.AuthCredential{
		UserID:         r.UserID,
		PasswordHash:   r.PasswordHash,
		FailedAttempts: r.FailedAttempts,
	}
	if r.LockedUntil != nil {
		until := parseTimestamp(*r.LockedUntil)
		if !until.IsZero() {
			cred.LockedUntil = &until
		}
	}
	return cred
}

// GetCredentials fetches the stored password hash and lockout state.
func (c *Client) GetCredentials(ctx context.Context, userID int64) (*domain.AuthCredential, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetCredentials")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	var cred *domain.AuthCredential

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("auth_credentials?user_id=eq.%d&limit=1", userID)
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "credentials", ID: fmt.Sprintf("%d", userID)}
		}

		var rows []credentialRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode credentials: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "credentials", ID: fmt.Sprintf("%d", userID)}
		}

		cred = rows[0].toDomain()
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/auth_credentials", Err: err}
	}

	return cred, nil
}

// CreateCredentials stores the password hash for a new user.
func (c *Client) CreateCredentials(ctx context.Context, cred *domain.AuthCredential) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateCredentials")
	defer span.End()

	err := c.executeWrite(ctx, func() error {
		_, err := c.doPost(ctx, "auth_credentials", map[string]any{
			"user_id":         cred.UserID,
			"password_hash":   cred.PasswordHash,
			"failed_attempts": 0,
		})
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth_credentials", Err: err}
	}
	return nil
}

// UpdateCredentials patches credential fields (hash, attempts, lockout).
func (c *Client) UpdateCredentials(ctx context.Context, userID int64, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateCredentials")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	err := c.executeWrite(ctx, func() error {
		path := fmt.Sprintf("auth_credentials?user_id=eq.%d", userID)
		_, err := c.doPatch(ctx, path, updates)
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth_credentials", Err: err}
	}
	return nil
}

type refreshTokenRow struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	TokenHash string `json:"token_hash"`
	ExpiresAt string `json:"expires_at"`
	Revoked   bool   `json:"revoked"`
}

// StoreRefreshToken persists a hashed refresh token.
func (c *Client) StoreRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	err := c.executeWrite(ctx, func() error {
		_, err := c.doPost(ctx, "auth_refresh_tokens", map[string]any{
			"user_id":    userID,
			"token_hash": tokenHash,
			"expires_at": expiresAt.Format(time.RFC3339),
			"revoked":    false,
		})
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}
	return nil
}

// GetRefreshToken looks up a refresh token by its hash.
func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	var token *domain.AuthRefreshToken

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s&limit=1", url.QueryEscape(tokenHash))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if isEmpty(body) {
			return &domain.ErrNotFound{Resource: "refresh token", ID: "hash"}
		}

		var rows []refreshTokenRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode refresh token: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "refresh token", ID: "hash"}
		}

		r := rows[0]
		token = &domain.AuthRefreshToken{
			ID:        r.ID,
			UserID:    r.UserID,
			TokenHash: r.TokenHash,
			ExpiresAt: parseTimestamp(r.ExpiresAt),
			Revoked:   r.Revoked,
		}
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}

	return token, nil
}

// RevokeRefreshToken marks a single token as revoked.
func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	err := c.executeWrite(ctx, func() error {
		path := fmt.Sprintf("auth_refresh_tokens?token_hash=eq.%s", url.QueryEscape(tokenHash))
		_, err := c.doPatch(ctx, path, map[string]any{"revoked": true})
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}
	return nil
}

// RevokeAllRefreshTokens revokes every live token for a user (logout).
func (c *Client) RevokeAllRefreshTokens(ctx context.Context, userID int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeAllRefreshTokens")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID))

	err := c.executeWrite(ctx, func() error {
		path := fmt.Sprintf("auth_refresh_tokens?user_id=eq.%d&revoked=eq.false", userID)
		_, err := c.doPatch(ctx, path, map[string]any{"revoked": true})
		return err
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/auth_refresh_tokens", Err: err}
	}
	return nil
}
