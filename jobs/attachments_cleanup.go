package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/commesse/internal/attachments"
	jobmetrics "github.com/odyssey-erp/commesse/internal/jobs"
)

// AttachmentRemover deletes tenant-owned object keys.
type AttachmentRemover interface {
	Remove(ctx context.Context, tenantID uuid.UUID, keys []string) (attachments.BatchResult, error)
}

// AttachmentsCleanupJob removes the stored files of deleted invoices.
type AttachmentsCleanupJob struct {
	Attachments AttachmentRemover
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// NewAttachmentsCleanupJob wires dependencies for the cleanup handler.
func NewAttachmentsCleanupJob(remover AttachmentRemover, logger *slog.Logger, metrics *jobmetrics.Metrics) *AttachmentsCleanupJob {
	return &AttachmentsCleanupJob{Attachments: remover, Logger: logger, Metrics: metrics}
}

// Handle removes every key in the payload. Individual failures are logged and
// counted; the task fails (and is retried) only when no key could be removed.
func (j *AttachmentsCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Attachments == nil {
		return errors.New("attachments cleanup: handler not configured")
	}
	var payload CleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("attachments cleanup: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.TenantID == uuid.Nil {
		return fmt.Errorf("attachments cleanup: missing tenant: %w", asynq.SkipRetry)
	}
	if len(payload.Keys) == 0 {
		return nil
	}

	metrics := j.metrics()
	tracker := metrics.Track(TaskAttachmentsCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("tenant_id", payload.TenantID.String()))
	result, err := j.Attachments.Remove(ctx, payload.TenantID, payload.Keys)
	if err != nil {
		logger.Error("remove attachments", slog.Int("keys", len(payload.Keys)), slog.Any("error", err))
		return err
	}
	failed := result.Failed()
	for _, item := range failed {
		logger.Warn("attachment not removed", slog.String("key", item.Key), slog.Any("error", item.Err))
	}
	metrics.AddItemFailures(TaskAttachmentsCleanup, len(failed))

	logger.Info("completed attachments cleanup",
		slog.Int("removed", len(result.Succeeded())),
		slog.Int("failed", len(failed)))
	if result.AllFailed() {
		return fmt.Errorf("attachments cleanup: all %d keys failed: %w", len(failed), failed[0].Err)
	}
	return nil
}

func (j *AttachmentsCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAttachmentsCleanup))
	}
	return slog.Default().With(slog.String("job", TaskAttachmentsCleanup))
}

func (j *AttachmentsCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
