package expenses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/shared"
)

// Decider is the workflow the handler drives.
type Decider interface {
	Approve(ctx context.Context, noteID uuid.UUID) (Decision, error)
	Reject(ctx context.Context, noteID uuid.UUID, reason string) (Decision, error)
	History(ctx context.Context, noteID uuid.UUID) ([]shared.ApprovalLog, error)
}

// Handler serves approval endpoints.
type Handler struct {
	logger  *slog.Logger
	service Decider
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service Decider) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the approval routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Get("/{id}/approvals", h.history)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, shared.PermExpensesApprove)
	if !ok {
		return
	}
	d, err := h.service.Approve(r.Context(), id)
	h.respond(w, d, err)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, shared.PermExpensesApprove)
	if !ok {
		return
	}
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.Reject(r.Context(), id, req.Reason)
	h.respond(w, d, err)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r, shared.PermRecordsView)
	if !ok {
		return
	}
	logs, err := h.service.History(r.Context(), id)
	if err != nil {
		h.logger.Error("approval history", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"approvals": logs})
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, perm string) (uuid.UUID, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return uuid.Nil, false
	}
	if !p.HasPermission(perm) {
		httpx.RespondError(w, fmt.Errorf("%w: missing %s", shared.ErrForbidden, perm))
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid expense note id", shared.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}

// respond writes the decision. A state conflict still carries the reconciled
// figures so the caller can refresh its view.
func (h *Handler) respond(w http.ResponseWriter, d Decision, err error) {
	switch {
	case err == nil:
		httpx.JSON(w, http.StatusOK, d)
	case errors.Is(err, shared.ErrStateConflict) && d.NoteID != uuid.Nil:
		httpx.JSON(w, http.StatusConflict, map[string]any{
			"title":    "State Conflict",
			"status":   http.StatusConflict,
			"detail":   err.Error(),
			"decision": d,
		})
	default:
		if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("expense decision", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
