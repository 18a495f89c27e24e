package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ApprovalAction enumerates approval log actions.
type ApprovalAction string

const (
	// ApprovalApprove marks an approve action.
	ApprovalApprove ApprovalAction = "APPROVE"
	// ApprovalReject marks a reject action.
	ApprovalReject ApprovalAction = "REJECT"
)

// ApprovalLog represents a single approval record.
type ApprovalLog struct {
	ID       int64          `json:"id"`
	TenantID uuid.UUID      `json:"tenant_id"`
	Module   string         `json:"module"`
	RefID    uuid.UUID      `json:"ref_id"`
	ActorID  uuid.UUID      `json:"actor_id"`
	Action   ApprovalAction `json:"action"`
	Note     string         `json:"note,omitempty"`
	At       time.Time      `json:"at"`
}

// ApprovalRecorder persists approval history.
type ApprovalRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewApprovalRecorder constructs ApprovalRecorder.
func NewApprovalRecorder(pool *pgxpool.Pool, logger *slog.Logger) *ApprovalRecorder {
	return &ApprovalRecorder{pool: pool, logger: logger}
}

// Validate checks the mandatory fields of an approval entry.
func (l ApprovalLog) Validate() error {
	switch {
	case l.TenantID == uuid.Nil:
		return errors.New("approval tenant required")
	case l.Module == "":
		return errors.New("approval module required")
	case l.ActorID == uuid.Nil:
		return errors.New("approval actor required")
	case l.RefID == uuid.Nil:
		return errors.New("approval ref id required")
	case l.Action == "":
		return errors.New("approval action required")
	}
	return nil
}

// Record writes approval entry to database.
func (r *ApprovalRecorder) Record(ctx context.Context, log ApprovalLog) error {
	if r == nil {
		return errors.New("approval recorder not initialised")
	}
	if err := log.Validate(); err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO approvals (tenant_id, module, ref_id, actor_id, action, note, at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`, log.TenantID, log.Module, log.RefID, log.ActorID, string(log.Action), log.Note, at)
	if err != nil {
		r.logger.Error("record approval", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns approvals for module/ref within a tenant.
func (r *ApprovalRecorder) List(ctx context.Context, tenantID uuid.UUID, module string, ref uuid.UUID) ([]ApprovalLog, error) {
	if r == nil {
		return nil, errors.New("approval recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, module, ref_id, actor_id, action, note, at
FROM approvals WHERE tenant_id=$1 AND module=$2 AND ref_id=$3 ORDER BY at ASC`, tenantID, module, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []ApprovalLog
	for rows.Next() {
		var l ApprovalLog
		var action string
		if err := rows.Scan(&l.ID, &l.TenantID, &l.Module, &l.RefID, &l.ActorID, &action, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Action = ApprovalAction(action)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
