package handler

import (
	"net/http"

	"github.com/guilhermekollet/financas-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Relatórios, projeção e dashboard
// ============================================================

func monthlyChartHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/monthly")
		defer span.End()

		months := queryInt(r, "months", 12)
		points, err := svc.MonthlyChart(ctx, AuthIDFromContext(ctx), months)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"points": points})
	}
}

func dailyChartHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/daily")
		defer span.End()

		days := queryInt(r, "days", 30)
		points, err := svc.DailyChart(ctx, AuthIDFromContext(ctx), days)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"points": points})
	}
}

func categoryBreakdownHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/categories")
		defer span.End()

		month := r.URL.Query().Get("month")
		slices, err := svc.CategoryBreakdown(ctx, AuthIDFromContext(ctx), month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"categories": slices})
	}
}

func projectionHandler(svc *service.ProjectionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/projection")
		defer span.End()

		points, err := svc.Project(ctx, AuthIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"points": points})
	}
}

func dashboardHandler(svc *service.ReportsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/dashboard")
		defer span.End()

		summary, err := svc.Dashboard(ctx, AuthIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
