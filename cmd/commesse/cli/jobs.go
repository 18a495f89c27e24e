package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/commesse/jobs"
)

// JobsCLI wraps manual management helpers for background jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the helpers against the Redis at redisAddr.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// Trigger enqueues a job by name. tenant narrows a warmup to one tenant.
func (c *JobsCLI) Trigger(ctx context.Context, name, tenant string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	var (
		task  *asynq.Task
		err   error
		queue = jobs.QueueDefault
	)
	switch name {
	case jobs.TaskAnalyticsWarmup:
		var tenantID *uuid.UUID
		if tenant != "" {
			id, parseErr := uuid.Parse(tenant)
			if parseErr != nil {
				return nil, fmt.Errorf("jobs cli: invalid tenant %q: %w", tenant, parseErr)
			}
			tenantID = &id
		}
		task, err = jobs.NewWarmupTask(tenantID)
	case jobs.TaskIdempotencyPurge:
		task = asynq.NewTask(jobs.TaskIdempotencyPurge, nil)
		queue = jobs.QueueMaintenance
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(queue), asynq.MaxRetry(3))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueue reports the metrics of the warmup queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}
