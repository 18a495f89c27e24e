package jobs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
)

// QueueInspector is the subset of *asynq.Inspector used by the health endpoint.
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler serves queue health.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs the jobs HTTP handler. inspector may be nil.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

type queueHealth struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Active  int    `json:"active"`
	Retry   int    `json:"retry"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	known := map[string]bool{}
	if h.inspector != nil {
		names, err := h.inspector.Queues()
		if err != nil {
			h.unavailable(w, "", err)
			return
		}
		for _, name := range names {
			known[name] = true
		}
	}

	out := make([]queueHealth, 0, len(queueNames))
	for _, name := range queueNames {
		q := queueHealth{Queue: name}
		// asynq creates a queue on its first task
		if known[name] {
			info, err := h.inspector.GetQueueInfo(name)
			if err != nil {
				h.unavailable(w, name, err)
				return
			}
			q.Pending, q.Active, q.Retry = info.Pending, info.Active, info.Retry
		}
		out = append(out, q)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"queues": out})
}

func (h *Handler) unavailable(w http.ResponseWriter, queue string, err error) {
	h.logger.Warn("jobs health", slog.String("queue", queue), slog.Any("error", err))
	httpx.Problem(w, http.StatusServiceUnavailable, "Queue unavailable", queue)
}
