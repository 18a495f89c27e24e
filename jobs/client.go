package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Client enqueues commesse tasks.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq-backed Client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueueWarmup enqueues an analytics warmup, scoped to tenantID when set.
func (c *Client) EnqueueWarmup(ctx context.Context, tenantID *uuid.UUID) (*asynq.TaskInfo, error) {
	task, err := NewWarmupTask(tenantID)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

// EnqueueAttachmentCleanup schedules removal of keys owned by tenantID.
// Nothing is enqueued for an empty key list.
func (c *Client) EnqueueAttachmentCleanup(ctx context.Context, tenantID uuid.UUID, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	task, err := NewCleanupTask(tenantID, keys)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueMaintenance), asynq.MaxRetry(5))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
