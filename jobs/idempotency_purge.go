package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/commesse/internal/jobs"
)

// defaultKeyRetention bounds how long a create request may be replayed.
const defaultKeyRetention = 7 * 24 * time.Hour

// KeyPurger deletes idempotency keys older than a cutoff.
type KeyPurger interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// IdempotencyPurgeJob keeps the idempotency table small.
type IdempotencyPurgeJob struct {
	Keys      KeyPurger
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIdempotencyPurgeJob wires the purge handler. A zero retention uses seven days.
func NewIdempotencyPurgeJob(keys KeyPurger, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyPurgeJob {
	if retention <= 0 {
		retention = defaultKeyRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &IdempotencyPurgeJob{Keys: keys, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle runs one purge.
func (j *IdempotencyPurgeJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency purge: handler not configured")
	}
	tracker := j.Metrics.Track(TaskIdempotencyPurge)
	if err := j.Keys.Cleanup(ctx, j.Retention); err != nil {
		j.Logger.Error("purge idempotency keys", slog.String("job", TaskIdempotencyPurge), slog.Any("error", err))
		return tracker.End(err)
	}
	return tracker.End(nil)
}
