package attachments

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/shared"
)

const defaultCacheControl = "max-age=3600"

// File is an upload request for one attachment.
type File struct {
	Kind        string
	OwnerID     uuid.UUID
	Filename    string
	ContentType string
	Body        io.Reader
	Upsert      bool
}

// Service scopes object storage operations to a tenant.
type Service struct {
	storage ObjectStorage
	ttl     time.Duration
	logger  *slog.Logger
}

// NewService wires storage with the signed URL lifetime.
func NewService(storage ObjectStorage, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{storage: storage, ttl: ttl, logger: logger}
}

// AttachmentPath builds "tenant/kind/owner/filename". Directory components
// in filename are discarded.
func AttachmentPath(tenantID uuid.UUID, kind string, ownerID uuid.UUID, filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	kind = strings.Trim(strings.TrimSpace(kind), "/")
	switch {
	case tenantID == uuid.Nil:
		return "", fmt.Errorf("attachments: %w: tenant required", shared.ErrValidation)
	case kind == "" || strings.Contains(kind, "/"):
		return "", fmt.Errorf("attachments: %w: invalid kind %q", shared.ErrValidation, kind)
	case ownerID == uuid.Nil:
		return "", fmt.Errorf("attachments: %w: owner required", shared.ErrValidation)
	case name == "" || name == "." || name == "/" || name == "..":
		return "", fmt.Errorf("attachments: %w: filename required", shared.ErrValidation)
	}
	return strings.Join([]string{tenantID.String(), kind, ownerID.String(), name}, "/"), nil
}

// UploadAll stores every file, continuing past failures.
func (s *Service) UploadAll(ctx context.Context, tenantID uuid.UUID, files []File) BatchResult {
	var result BatchResult
	for _, f := range files {
		key, err := AttachmentPath(tenantID, f.Kind, f.OwnerID, f.Filename)
		if err != nil {
			result.Add(f.Filename, err)
			continue
		}
		contentType := f.ContentType
		if contentType == "" {
			contentType = httpx.ContentTypeFor(path.Ext(key))
		}
		err = s.storage.Upload(ctx, UploadInput{
			Key:          key,
			Body:         f.Body,
			ContentType:  contentType,
			CacheControl: defaultCacheControl,
			Upsert:       f.Upsert,
		})
		if err != nil {
			s.logger.Warn("attachment upload failed", slog.String("key", key), slog.Any("error", err))
		}
		result.Add(key, err)
	}
	return result
}

// Remove deletes keys owned by tenantID. Keys outside the tenant prefix are
// reported as forbidden without reaching storage.
func (s *Service) Remove(ctx context.Context, tenantID uuid.UUID, keys []string) (BatchResult, error) {
	var (
		result BatchResult
		owned  []string
	)
	for _, key := range keys {
		if err := checkOwnership(tenantID, key); err != nil {
			result.Add(key, err)
			continue
		}
		owned = append(owned, key)
	}
	if len(owned) == 0 {
		return result, nil
	}
	removed, err := s.storage.Remove(ctx, owned)
	if err != nil {
		return result, err
	}
	result.Items = append(result.Items, removed.Items...)
	return result, nil
}

// SignedURL returns a time-limited download link for a tenant's key.
func (s *Service) SignedURL(ctx context.Context, tenantID uuid.UUID, key string) (string, error) {
	if err := checkOwnership(tenantID, key); err != nil {
		return "", err
	}
	return s.storage.SignedURL(ctx, key, s.ttl)
}

func checkOwnership(tenantID uuid.UUID, key string) error {
	if !strings.HasPrefix(key, tenantID.String()+"/") || strings.Contains(key, "..") {
		return fmt.Errorf("attachments: %w: key %q outside tenant", shared.ErrForbidden, key)
	}
	return nil
}
