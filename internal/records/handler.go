package records

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/shared"
	"github.com/odyssey-erp/commesse/internal/store"
)

// IdempotencyHeader carries the client key that makes a create retry-safe.
const IdempotencyHeader = "Idempotency-Key"

// Idempotency guards creates against replays.
type Idempotency interface {
	CheckAndInsert(ctx context.Context, tenantID uuid.UUID, key, module string) error
	Delete(ctx context.Context, tenantID uuid.UUID, key string) error
}

// Handler serves /records.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency Idempotency
}

// NewHandler constructs a Handler. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, idempotency Idempotency) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers the CRUD routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listEntities)
	r.Get("/{entity}", h.list)
	r.Post("/{entity}", h.create)
	r.Post("/{entity}/bulk-delete", h.bulkDelete)
	r.Get("/{entity}/{id}", h.get)
	r.Patch("/{entity}/{id}", h.update)
	r.Delete("/{entity}/{id}", h.delete)
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r, shared.PermRecordsView); !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entities": store.Entities()})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r, shared.PermRecordsView)
	if !ok {
		return
	}
	params, page, err := parseListQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.List(r.Context(), p, chi.URLParam(r, "entity"), params)
	if err != nil {
		h.fail(w, "list records", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"rows":     rows,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r, shared.PermRecordsView)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	row, err := h.service.Get(r.Context(), p, chi.URLParam(r, "entity"), id)
	if err != nil {
		h.fail(w, "get record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r, shared.PermRecordsEdit)
	if !ok {
		return
	}
	entity := chi.URLParam(r, "entity")
	var row store.Row
	if err := httpx.DecodeJSON(r, &row); err != nil {
		httpx.RespondError(w, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), p.TenantID, key, "records:"+entity); err != nil {
			h.fail(w, "idempotency check", err)
			return
		}
	}
	created, err := h.service.Create(r.Context(), p, entity, row)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if delErr := h.idempotency.Delete(r.Context(), p.TenantID, key); delErr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", delErr))
			}
		}
		h.fail(w, "create record", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r, shared.PermRecordsEdit)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var patch store.Row
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), p, chi.URLParam(r, "entity"), id, patch); err != nil {
		h.fail(w, "update record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r, shared.PermRecordsEdit)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.remove(w, r, p, []uuid.UUID{id})
}

type bulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r, shared.PermRecordsEdit)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.remove(w, r, p, req.IDs)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, p shared.Principal, ids []uuid.UUID) {
	deleted, err := h.service.Delete(r.Context(), p, chi.URLParam(r, "entity"), ids)
	if err != nil {
		h.fail(w, "delete records", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": deleted.IDs})
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request, perm string) (shared.Principal, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthorized)
		return shared.Principal{}, false
	}
	if !p.HasPermission(perm) {
		httpx.RespondError(w, fmt.Errorf("%w: missing %s", shared.ErrForbidden, perm))
		return shared.Principal{}, false
	}
	return p, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func idParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid id", shared.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}

// parseListQuery reads filter=column:op:value (repeatable; "in" values are
// separated by "|"), order=column or order=-column, page and per_page.
func parseListQuery(r *http.Request) (store.QueryParams, shared.Pagination, error) {
	q := r.URL.Query()
	var params store.QueryParams
	for _, raw := range q["filter"] {
		parts := strings.SplitN(raw, ":", 3)
		if len(parts) < 2 {
			return params, shared.Pagination{}, fmt.Errorf("%w: filter %q must be column:op[:value]", shared.ErrValidation, raw)
		}
		cond := store.Condition{Column: parts[0], Op: store.Operator(parts[1])}
		value := ""
		if len(parts) == 3 {
			value = parts[2]
		}
		switch cond.Op {
		case store.OpIn:
			var values []any
			for _, v := range strings.Split(value, "|") {
				if v != "" {
					values = append(values, v)
				}
			}
			cond.Value = values
		case store.OpIsNull:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return params, shared.Pagination{}, fmt.Errorf("%w: is_null expects true or false", shared.ErrValidation)
			}
			cond.Value = b
		default:
			cond.Value = value
		}
		params.Conditions = append(params.Conditions, cond)
	}
	for _, raw := range q["order"] {
		o := store.Order{Column: strings.TrimPrefix(raw, "-"), Desc: strings.HasPrefix(raw, "-")}
		params.Order = append(params.Order, o)
	}
	pageNum, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	page := shared.NewPagination(pageNum, perPage, 0)
	params.Page = store.Page{Limit: page.PerPage, Offset: page.Offset()}
	return params, page, nil
}
