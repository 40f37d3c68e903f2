// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// FinanceStore defines all data operations for the finance tracker.
// Implemented by the Supabase adapter (or any other persistence layer).
type FinanceStore interface {
	// Users (owner resolution)
	GetUserByAuthID(ctx context.Context, authID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)

	// Transactions
	ListTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, userID, txID int64) (*domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, txID int64) error

	// Credit cards
	ListCreditCards(ctx context.Context, userID int64) ([]domain.CreditCard, error)
	GetCreditCard(ctx context.Context, userID, cardID int64) (*domain.CreditCard, error)
	CreateCreditCard(ctx context.Context, card *domain.CreditCard) (*domain.CreditCard, error)
	UpdateCreditCard(ctx context.Context, card *domain.CreditCard) (*domain.CreditCard, error)
	DeleteCreditCard(ctx context.Context, userID, cardID int64) error

	// Credit card bills (materialized statement rows)
	GetBill(ctx context.Context, userID, billID int64) (*domain.CreditCardBill, error)
	GetBillByMonth(ctx context.Context, userID, cardID int64, month string) (*domain.CreditCardBill, error)
	CreateBill(ctx context.Context, bill *domain.CreditCardBill) (*domain.CreditCardBill, error)
	// UpdateBillVersioned applies updates only when the stored version still
	// matches; a failed match returns domain.ErrConflict.
	UpdateBillVersioned(ctx context.Context, billID, version int64, updates map[string]any) error

	// Bill payments
	ListBillPayments(ctx context.Context, userID, billID int64) ([]domain.BillPayment, error)
	GetBillPayment(ctx context.Context, userID, paymentID int64) (*domain.BillPayment, error)
	CreateBillPayment(ctx context.Context, payment *domain.BillPayment) (*domain.BillPayment, error)
	DeleteBillPayment(ctx context.Context, userID, paymentID int64) error

	// Subscriptions
	GetSubscription(ctx context.Context, userID int64) (*domain.Subscription, error)
	CreateSubscription(ctx context.Context, sub *domain.Subscription) (*domain.Subscription, error)
	UpdateSubscriptionPlan(ctx context.Context, userID int64, plan string) error
}

// AuthStore defines the data operations for credentials and refresh tokens.
type AuthStore interface {
	GetCredentials(ctx context.Context, userID int64) (*domain.AuthCredential, error)
	CreateCredentials(ctx context.Context, cred *domain.AuthCredential) error
	UpdateCredentials(ctx context.Context, userID int64, updates map[string]any) error

	StoreRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.AuthRefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID int64) error
}
