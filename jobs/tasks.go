package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault carries report warmups.
	QueueDefault = "default"
	// QueueMaintenance carries cleanup and purge work at lower priority.
	QueueMaintenance = "maintenance"
	// TaskAnalyticsWarmup precomputes the current-year report for every tenant.
	TaskAnalyticsWarmup = "analytics:warmup"
	// TaskAttachmentsCleanup removes object keys left behind by deleted invoices.
	TaskAttachmentsCleanup = "attachments:cleanup"
	// TaskIdempotencyPurge drops expired idempotency keys.
	TaskIdempotencyPurge = "maintenance:idempotency_purge"
)

var (
	queueNames   = []string{QueueDefault, QueueMaintenance}
	queueWeights = map[string]int{QueueDefault: 3, QueueMaintenance: 1}
)

// WarmupPayload optionally narrows a warmup run to a single tenant.
type WarmupPayload struct {
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
}

// CleanupPayload lists the object keys to remove for one tenant.
type CleanupPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Keys     []string  `json:"keys"`
}

// NewWarmupTask constructs an analytics warmup task. A nil tenant warms all.
func NewWarmupTask(tenantID *uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(WarmupPayload{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsWarmup, data), nil
}

// NewCleanupTask constructs an attachment cleanup task.
func NewCleanupTask(tenantID uuid.UUID, keys []string) (*asynq.Task, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("jobs: cleanup requires a tenant")
	}
	data, err := json.Marshal(CleanupPayload{TenantID: tenantID, Keys: keys})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAttachmentsCleanup, data), nil
}
