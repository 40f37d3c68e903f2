package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/guilhermekollet/financas-api/internal/domain"
)

var subsTracer = otel.Tracer("service/subscription")

// SubscriptionService exposes the user's plan state.
type SubscriptionService struct {
	core *FinanceService
	now  func() time.Time
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(core *FinanceService) *SubscriptionService {
	return &SubscriptionService{core: core, now: time.Now}
}

// SubscriptionView is the plan state served to the frontend.
type SubscriptionView struct {
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
}

// Get returns the owner's subscription with its derived status.
func (s *SubscriptionService) Get(ctx context.Context, authID string) (*SubscriptionView, error) {
	ctx, span := subsTracer.Start(ctx, "SubscriptionService.Get")
	defer span.End()

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: authID}
	}

	sub, err := s.core.store.GetSubscription(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &SubscriptionView{
		Plan:        sub.Plan,
		Status:      sub.DeriveStatus(s.now()),
		TrialEndsAt: sub.TrialEndsAt,
	}, nil
}

// ChangePlan moves the owner to another plan.
func (s *SubscriptionService) ChangePlan(ctx context.Context, authID, plan string) (*SubscriptionView, error) {
	ctx, span := subsTracer.Start(ctx, "SubscriptionService.ChangePlan")
	defer span.End()

	if plan != domain.PlanTrial && plan != domain.PlanBasic && plan != domain.PlanPremium {
		return nil, &domain.ErrValidation{Field: "plan", Message: "plano desconhecido"}
	}

	user, err := s.core.ResolveOwner(ctx, authID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.ErrNotFound{Resource: "subscription", ID: authID}
	}

	if err := s.core.store.UpdateSubscriptionPlan(ctx, user.ID, plan); err != nil {
		return nil, err
	}

	s.core.logger.Info("subscription plan changed",
		zap.Int64("user_id", user.ID),
		zap.String("plan", plan),
	)

	return s.Get(ctx, authID)
}
