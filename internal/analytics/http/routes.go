package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/shared"
)

// MountRoutes registers the analytics endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(h.exportLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export rate limit exceeded")
		}),
	)

	r.Get("/report", h.handleReport)
	r.Get("/breakdown", h.handleBreakdown)
	r.Get("/aging", h.handleAging)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/export.xlsx", h.handleXLSX)
		gr.Get("/export.pdf", h.handlePDF)
		gr.Get("/export.csv", h.handleCSV)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if p, ok := shared.PrincipalFromContext(r.Context()); ok {
		return "user:" + p.UserID.String(), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
