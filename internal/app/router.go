package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	analytichttp "github.com/odyssey-erp/commesse/internal/analytics/http"
	"github.com/odyssey-erp/commesse/internal/attachments"
	"github.com/odyssey-erp/commesse/internal/auth"
	"github.com/odyssey-erp/commesse/internal/expenses"
	"github.com/odyssey-erp/commesse/internal/observability"
	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/records"
	"github.com/odyssey-erp/commesse/internal/shared"
	"github.com/odyssey-erp/commesse/jobs"
)

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers are skipped.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Auth               auth.Middleware
	AuthHandler        *auth.Handler
	AnalyticsHandler   *analytichttp.Handler
	ExpensesHandler    *expenses.Handler
	RecordsHandler     *records.Handler
	AttachmentsHandler *attachments.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
	ReadyChecks        map[string]Pinger
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(params.ReadyChecks, 5*time.Second))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Group(func(r chi.Router) {
		r.Use(params.Auth.Authenticate)

		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		if params.AnalyticsHandler != nil {
			r.Route("/analytics", params.AnalyticsHandler.MountRoutes)
		}
		if params.ExpensesHandler != nil {
			r.Route("/expense-notes", params.ExpensesHandler.MountRoutes)
		}
		if params.RecordsHandler != nil {
			r.Route("/records", params.RecordsHandler.MountRoutes)
		}
		if params.AttachmentsHandler != nil {
			r.Route("/attachments", func(r chi.Router) {
				params.AttachmentsHandler.MountRoutes(r,
					params.Auth.RequireAny(shared.PermRecordsView),
					params.Auth.RequireAny(shared.PermRecordsEdit),
				)
			})
		}
	})

	return r
}
