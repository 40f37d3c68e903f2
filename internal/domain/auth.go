package domain

import "time"

// ============================================================
// Users & Subscriptions
// ============================================================

// User maps an authenticated identity to a finance-data owner. The JWT
// subject carries AuthID; every store query is scoped by the integer ID.
type User struct {
	ID        int64     `json:"id"`
	AuthID    string    `json:"auth_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription plans.
const (
	PlanTrial   = "trial"
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// Subscription statuses (derived, not stored).
const (
	SubscriptionTrialing = "trialing"
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
)

// Subscription holds the user's plan and trial window. Checkout and webhook
// handling live with the payment provider; only the plan state the
// aggregations and the frontend need is kept here.
type Subscription struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Plan        string     `json:"plan"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DeriveStatus computes the subscription status at a point in time.
func (s *Subscription) DeriveStatus(now time.Time) string {
	if s.Plan == PlanTrial {
		if s.TrialEndsAt != nil && s.TrialEndsAt.Before(now) {
			return SubscriptionExpired
		}
		return SubscriptionTrialing
	}
	return SubscriptionActive
}

// ============================================================
// Auth payloads
// ============================================================

// RegisterRequest is the payload for POST /v1/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Plan     string `json:"plan,omitempty"` // defaults to trial
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the payload for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned by login, register and refresh.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       int64  `json:"user_id"`
	Name         string `json:"name,omitempty"`
}

// AuthCredential is the stored password hash and lockout state for a user.
type AuthCredential struct {
	UserID         int64      `json:"user_id"`
	PasswordHash   string     `json:"password_hash"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
}

// AuthRefreshToken is a stored (hashed) refresh token.
type AuthRefreshToken struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}
