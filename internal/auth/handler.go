package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/shared"
)

// Handler exposes the caller's identity and memberships.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers auth routes on provided router. The router must
// already run Middleware.Authenticate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

type meResponse struct {
	User        User         `json:"user"`
	TenantID    string       `json:"tenant_id"`
	Roles       []string     `json:"roles"`
	Memberships []Membership `json:"memberships"`
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, _ := GetCurrentUser(r.Context())
	principal, ok := shared.PrincipalFromContext(r.Context())
	if user == nil || !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return
	}
	memberships, err := h.service.Memberships(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("list memberships", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		User:        *user,
		TenantID:    principal.TenantID.String(),
		Roles:       principal.Roles,
		Memberships: memberships,
	})
}
