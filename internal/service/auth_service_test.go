package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

func newAuthFixture(t *testing.T) (*AuthService, *mockStore) {
	t.Helper()

	store := newMockStore()
	svc := NewAuthService(store, store, "test-secret", 15*time.Minute, 7*24*time.Hour, 14, zap.NewNop())
	return svc, store
}

func TestRegister_CreatesUserWithTrial(t *testing.T) {
	svc, store := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name:     "Ana",
		Email:    "Ana@Example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected tokens on register")
	}

	if len(store.users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(store.users))
	}
	if store.users[0].Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %s", store.users[0].Email)
	}

	sub, err := store.GetSubscription(context.Background(), resp.UserID)
	if err != nil {
		t.Fatalf("expected subscription, got %v", err)
	}
	if sub.Plan != domain.PlanTrial {
		t.Errorf("expected trial plan, got %s", sub.Plan)
	}
	if sub.TrialEndsAt == nil {
		t.Error("expected trial window to be set")
	}
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	svc, _ := newAuthFixture(t)

	req := &domain.RegisterRequest{Email: "ana@example.com", Password: "correct-horse"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email:    "ana@example.com",
		Password: "short",
	})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLogin_WrongPasswordCountsAttempts(t *testing.T) {
	svc, store := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email: "ana@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err = svc.Login(context.Background(), &domain.LoginRequest{
		Email: "ana@example.com", Password: "wrong",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	cred, _ := store.GetCredentials(context.Background(), resp.UserID)
	if cred.FailedAttempts != 1 {
		t.Errorf("expected 1 failed attempt recorded, got %d", cred.FailedAttempts)
	}

	// A successful login resets the counter
	if _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email: "ana@example.com", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	cred, _ = store.GetCredentials(context.Background(), resp.UserID)
	if cred.FailedAttempts != 0 {
		t.Errorf("expected attempts reset, got %d", cred.FailedAttempts)
	}
}

func TestLogin_LocksAfterMaxAttempts(t *testing.T) {
	svc, _ := newAuthFixture(t)

	if _, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email: "ana@example.com", Password: "correct-horse",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for i := 0; i < maxFailedAttempts; i++ {
		_, _ = svc.Login(context.Background(), &domain.LoginRequest{
			Email: "ana@example.com", Password: "wrong",
		})
	}

	// Even the right password is refused while locked
	_, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email: "ana@example.com", Password: "correct-horse",
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected lockout, got %v", err)
	}
}

func TestValidateAccessToken_RoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email: "ana@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.Sub == "" {
		t.Error("expected subject claim")
	}
	if claims.Type != "access" {
		t.Errorf("expected access token type, got %s", claims.Type)
	}

	if _, err := svc.ValidateAccessToken("garbage"); err == nil {
		t.Error("expected error for malformed token")
	}

	// A refresh token is not an access token
	if _, err := svc.ValidateAccessToken(resp.RefreshToken); err == nil {
		t.Error("expected error validating a refresh token as access")
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email: "ana@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: resp.RefreshToken})
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.RefreshToken == resp.RefreshToken {
		t.Error("expected a new refresh token")
	}

	// The old token is single-use
	_, err = svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: resp.RefreshToken})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected rotation to revoke the old token, got %v", err)
	}
}

func TestLogout_RevokesAllTokens(t *testing.T) {
	svc, store := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Email: "ana@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	authID := store.users[0].AuthID
	if err := svc.Logout(context.Background(), authID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	_, err = svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: resp.RefreshToken})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected refresh rejected after logout, got %v", err)
	}
}
