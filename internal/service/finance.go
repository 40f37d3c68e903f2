// Package service holds the application services: transactions and cards
// CRUD, bill aggregation, cash-flow projection, report aggregations and
// authentication.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/guilhermekollet/financas-api/internal/domain"
	"github.com/guilhermekollet/financas-api/internal/infra/observability"
	"github.com/guilhermekollet/financas-api/internal/port"
)

var tracer = otel.Tracer("service/finance")

// FinanceService is the shared core of the finance services: owner
// resolution and the cached per-owner transaction list every aggregation
// starts from.
type FinanceService struct {
	store   port.FinanceStore
	txCache port.Cache[[]domain.Transaction]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewFinanceService creates the shared finance core.
func NewFinanceService(store port.FinanceStore, txCache port.Cache[[]domain.Transaction], metrics *observability.Metrics, logger *zap.Logger) *FinanceService {
	return &FinanceService{
		store:   store,
		txCache: txCache,
		metrics: metrics,
		logger:  logger,
	}
}

// ResolveOwner maps an authenticated identity to its user row.
// An unknown identity returns (nil, nil): aggregations answer with empty
// results rather than an error, so a half-provisioned account never breaks
// the dashboard.
func (s *FinanceService) ResolveOwner(ctx context.Context, authID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.ResolveOwner")
	defer span.End()

	user, err := s.store.GetUserByAuthID(ctx, authID)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			s.logger.Warn("owner not resolved, serving empty results",
				zap.String("auth_id", authID),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	return user, nil
}

// OwnerTransactions returns the owner's full transaction list, cached.
func (s *FinanceService) OwnerTransactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.OwnerTransactions")
	defer span.End()

	key := txCacheKey(userID)
	if cached, ok := s.txCache.Get(key); ok {
		s.metrics.IncrCacheHit("transactions")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("transactions")

	transactions, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("transactions")
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	s.txCache.Set(key, transactions)
	return transactions, nil
}

// InvalidateTransactions drops the owner's cached transaction list.
// Every mutation calls this so the next read observes its own write.
func (s *FinanceService) InvalidateTransactions(userID int64) {
	s.txCache.Delete(txCacheKey(userID))
}

func txCacheKey(userID int64) string {
	return fmt.Sprintf("user:%d:transactions", userID)
}
