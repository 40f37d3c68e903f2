package handler

import (
	"net/http"
	"time"

	"github.com/guilhermekollet/financas-api/internal/domain"
	"github.com/guilhermekollet/financas-api/internal/infra/observability"
	"github.com/guilhermekollet/financas-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the application services the router dispatches to.
type Services struct {
	Core         *service.FinanceService
	Transactions *service.TransactionsService
	Cards        *service.CardsService
	Bills        *service.BillsService
	Projection   *service.ProjectionService
	Reports      *service.ReportsService
	Subscription *service.SubscriptionService
	Auth         *service.AuthService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(requestMetricsMiddleware(metrics))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svcs.Core, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Autenticação (public)
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			if svcs.Auth == nil {
				r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusServiceUnavailable, "auth service unavailable: Supabase not configured")
				}))
				return
			}
			r.Post("/register", authRegisterHandler(svcs.Auth, logger))
			r.Post("/login", authLoginHandler(svcs.Auth, logger))
			r.Post("/refresh", authRefreshHandler(svcs.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(JWTAuthMiddleware(svcs.Auth, logger))
				r.Post("/logout", authLogoutHandler(svcs.Auth, logger))
			})
		})

		// =============================================
		// Protected API (everything below requires a Bearer token)
		// =============================================
		if svcs.Auth == nil {
			return
		}
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svcs.Auth, logger))

			// Transações
			r.Get("/transactions", listTransactionsHandler(svcs.Transactions, logger))
			r.Post("/transactions", createTransactionHandler(svcs.Transactions, logger))
			r.Get("/transactions/{transactionId}", getTransactionHandler(svcs.Transactions, logger))
			r.Put("/transactions/{transactionId}", updateTransactionHandler(svcs.Transactions, logger))
			r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svcs.Transactions, logger))

			// Cartões de crédito
			r.Get("/cards", listCardsHandler(svcs.Cards, logger))
			r.Post("/cards", createCardHandler(svcs.Cards, logger))
			r.Get("/cards/{cardId}", getCardHandler(svcs.Cards, logger))
			r.Put("/cards/{cardId}", updateCardHandler(svcs.Cards, logger))
			r.Delete("/cards/{cardId}", deleteCardHandler(svcs.Cards, logger))
			r.Get("/cards/{cardId}/bills", listCardBillsHandler(svcs.Bills, logger))
			r.Get("/cards/{cardId}/bills/{month}", getCardBillHandler(svcs.Bills, logger))

			// Faturas
			r.Post("/bills/{billId}/pay", payBillHandler(svcs.Bills, logger))
			r.Get("/bills/{billId}/payments", listBillPaymentsHandler(svcs.Bills, logger))
			r.Delete("/bills/{billId}/payments/{paymentId}", undoBillPaymentHandler(svcs.Bills, logger))
			r.Post("/bills/{billId}/archive", archiveBillHandler(svcs.Bills, logger))

			// Relatórios & projeção
			r.Get("/reports/monthly", monthlyChartHandler(svcs.Reports, logger))
			r.Get("/reports/daily", dailyChartHandler(svcs.Reports, logger))
			r.Get("/reports/categories", categoryBreakdownHandler(svcs.Reports, logger))
			r.Get("/projection", projectionHandler(svcs.Projection, logger))
			r.Get("/dashboard", dashboardHandler(svcs.Reports, logger))

			// Assinatura
			r.Get("/subscription", getSubscriptionHandler(svcs.Subscription, logger))
			r.Patch("/subscription", changePlanHandler(svcs.Subscription, logger))

			// Métricas operacionais
			r.Get("/metrics/ops", opsMetricsHandler(metrics))
		})
	})

	return r
}

func requestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			outcome := "success"
			if ww.Status() >= http.StatusInternalServerError {
				outcome = "error"
			}
			metrics.IncrRequest(outcome)
			metrics.RecordRequestDuration(r.Method+" "+r.URL.Path, time.Since(start))
		})
	}
}

// ============================================================
// Métricas & Health
// ============================================================

func healthzHandler(core *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "financas-api", Status: "healthy", LatencyMs: 0, UptimePercent: 99.99, LastChecked: now},
		}

		if core != nil {
			start := time.Now()
			_, err := core.ResolveOwner(ctx, "health-check")
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency,
				UptimePercent: 99.9, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func opsMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetOpsSnapshot())
	}
}
