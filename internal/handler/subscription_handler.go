package handler

import (
	"net/http"

	"github.com/guilhermekollet/financas-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Assinatura
// ============================================================

func getSubscriptionHandler(svc *service.SubscriptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/subscription")
		defer span.End()

		view, err := svc.Get(ctx, AuthIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

func changePlanHandler(svc *service.SubscriptionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/subscription")
		defer span.End()

		var req struct {
			Plan string `json:"plan"`
		}
		if !decodeBody(w, r, &req) {
			return
		}

		view, err := svc.ChangePlan(ctx, AuthIDFromContext(ctx), req.Plan)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}
