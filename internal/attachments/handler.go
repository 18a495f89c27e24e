package attachments

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/shared"
)

const maxUploadMemory = 32 << 20

// Handler exposes uploads and signed download links.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the attachments HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers attachment routes. view and edit guard reads and writes.
func (h *Handler) MountRoutes(r chi.Router, view, edit func(http.Handler) http.Handler) {
	r.With(edit).Post("/{kind}/{owner}", h.upload)
	r.With(view).Get("/signed-url", h.signedURL)
}

type itemResponse struct {
	Key   string `json:"key"`
	Error string `json:"error,omitempty"`
}

type batchResponse struct {
	Items  []itemResponse `json:"items"`
	Failed int            `json:"failed"`
}

func toResponse(b BatchResult) batchResponse {
	out := batchResponse{Items: make([]itemResponse, 0, len(b.Items))}
	for _, it := range b.Items {
		item := itemResponse{Key: it.Key}
		if it.Err != nil {
			item.Error = it.Err.Error()
			out.Failed++
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	owner, err := uuid.Parse(chi.URLParam(r, "owner"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "owner must be a uuid")
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "multipart body required")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "no files provided")
		return
	}
	upsert := r.URL.Query().Get("upsert") == "true"
	files := make([]File, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("open multipart file", slog.String("filename", fh.Filename), slog.Any("error", err))
			continue
		}
		opened = append(opened, f)
		files = append(files, File{
			Kind:        chi.URLParam(r, "kind"),
			OwnerID:     owner,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
			Upsert:      upsert,
		})
	}
	result := h.service.UploadAll(r.Context(), principal.TenantID, files)
	status := http.StatusCreated
	switch {
	case result.AllFailed():
		status = http.StatusUnprocessableEntity
	case len(result.Failed()) > 0:
		status = http.StatusMultiStatus
	}
	httpx.JSON(w, status, toResponse(result))
}

func (h *Handler) signedURL(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	key := r.URL.Query().Get("key")
	if key == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "key required")
		return
	}
	url, err := h.service.SignedURL(r.Context(), principal.TenantID, key)
	if err != nil {
		h.logger.Warn("sign attachment url", slog.String("key", key), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": url})
}
