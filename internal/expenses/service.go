// Package expenses runs the expense note approval workflow.
package expenses

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/analytics"
	"github.com/odyssey-erp/commesse/internal/finance"
	"github.com/odyssey-erp/commesse/internal/shared"
)

// ApprovalModule tags expense decisions in the approval log.
const ApprovalModule = "expense_notes"

// Store is the persistence the workflow needs.
type Store interface {
	LoadRecordSet(ctx context.Context, tenantID uuid.UUID, r finance.DateRange) (finance.RecordSet, error)
	ApproveExpenseNote(ctx context.Context, tenantID, noteID, approverID uuid.UUID) error
	RejectExpenseNote(ctx context.Context, tenantID, noteID, rejectorID uuid.UUID, reason string) error
}

// Invalidator drops cached reports for a tenant.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// ApprovalLogger keeps the decision history.
type ApprovalLogger interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
	List(ctx context.Context, tenantID uuid.UUID, module string, ref uuid.UUID) ([]shared.ApprovalLog, error)
}

// Decision is the outcome of an approve or reject call. Optimistic is the
// summary shown while the write was in flight; Summary and Status come from
// the reloaded authoritative data.
type Decision struct {
	NoteID     uuid.UUID             `json:"note_id"`
	Status     finance.ExpenseStatus `json:"status"`
	Optimistic finance.Summary       `json:"optimistic_summary"`
	Summary    finance.Summary       `json:"summary"`
}

// Service coordinates the optimistic patch, the remote decision and the
// reconciliation.
type Service struct {
	store     Store
	cache     Invalidator
	approvals ApprovalLogger
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewService wires the workflow. cache and approvals may be nil.
func NewService(store Store, cache Invalidator, approvals ApprovalLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, approvals: approvals, validate: validator.New(), logger: logger}
}

// History lists the recorded decisions on a note, oldest first.
func (s *Service) History(ctx context.Context, noteID uuid.UUID) ([]shared.ApprovalLog, error) {
	p, ok := shared.PrincipalFromContext(ctx)
	if !ok {
		return nil, shared.ErrUnauthorized
	}
	logs := []shared.ApprovalLog{}
	if s.approvals == nil {
		return logs, nil
	}
	found, err := s.approvals.List(ctx, p.TenantID, ApprovalModule, noteID)
	if err != nil {
		return nil, fmt.Errorf("expenses: history of %s: %w", noteID, err)
	}
	return append(logs, found...), nil
}

type rejectInput struct {
	Reason string `validate:"required,max=500"`
}

// Approve approves a pending note on behalf of the principal in ctx.
func (s *Service) Approve(ctx context.Context, noteID uuid.UUID) (Decision, error) {
	return s.decide(ctx, noteID, finance.ExpenseApproved, "", func(p shared.Principal) error {
		return s.store.ApproveExpenseNote(ctx, p.TenantID, noteID, p.UserID)
	})
}

// Reject rejects a pending note. reason is mandatory.
func (s *Service) Reject(ctx context.Context, noteID uuid.UUID, reason string) (Decision, error) {
	in := rejectInput{Reason: strings.TrimSpace(reason)}
	if err := s.validate.Struct(in); err != nil {
		return Decision{}, fmt.Errorf("expenses: %w: rejection reason required (max 500 characters)", shared.ErrValidation)
	}
	return s.decide(ctx, noteID, finance.ExpenseRejected, in.Reason, func(p shared.Principal) error {
		return s.store.RejectExpenseNote(ctx, p.TenantID, noteID, p.UserID, in.Reason)
	})
}

func (s *Service) decide(ctx context.Context, noteID uuid.UUID, target finance.ExpenseStatus, note string, call func(shared.Principal) error) (Decision, error) {
	p, ok := shared.PrincipalFromContext(ctx)
	if !ok {
		return Decision{}, shared.ErrUnauthorized
	}
	set, err := s.store.LoadRecordSet(ctx, p.TenantID, finance.DateRange{})
	if err != nil {
		return Decision{}, fmt.Errorf("expenses: load records: %w", err)
	}
	ws := analytics.NewWorkspace(set)
	if err := ws.Patch(noteID, target); err != nil {
		return Decision{}, err
	}
	d := Decision{NoteID: noteID, Optimistic: ws.Summary()}

	callErr := call(p)
	if callErr == nil {
		s.afterDecision(ctx, p, noteID, target, note)
	}

	fresh, err := s.store.LoadRecordSet(ctx, p.TenantID, finance.DateRange{})
	if err != nil {
		if callErr != nil {
			return d, callErr
		}
		return d, fmt.Errorf("expenses: reload records: %w", err)
	}
	ws.Reconcile(fresh)
	d.Summary = ws.Summary()
	d.Status = statusOf(fresh, noteID)
	if callErr != nil {
		return d, fmt.Errorf("expenses: %s note %s: %w", verb(target), noteID, callErr)
	}
	return d, nil
}

// afterDecision records the decision and drops cached reports. Failures are
// logged; the decision itself is already committed.
func (s *Service) afterDecision(ctx context.Context, p shared.Principal, noteID uuid.UUID, target finance.ExpenseStatus, note string) {
	logger := s.logger.With(slog.String("tenant_id", p.TenantID.String()), slog.String("note_id", noteID.String()))
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, p.TenantID); err != nil {
			logger.Warn("invalidate analytics cache", slog.Any("error", err))
		}
	}
	if s.approvals != nil {
		action := shared.ApprovalApprove
		if target == finance.ExpenseRejected {
			action = shared.ApprovalReject
		}
		err := s.approvals.Record(ctx, shared.ApprovalLog{
			TenantID: p.TenantID,
			Module:   ApprovalModule,
			RefID:    noteID,
			ActorID:  p.UserID,
			Action:   action,
			Note:     note,
		})
		if err != nil {
			logger.Error("record approval", slog.Any("error", err))
		}
	}
	logger.Info("expense note decided", slog.String("status", string(target)))
}

func statusOf(set finance.RecordSet, noteID uuid.UUID) finance.ExpenseStatus {
	for _, n := range set.ExpenseNotes {
		if n.ID == noteID {
			return n.Status
		}
	}
	return ""
}

func verb(target finance.ExpenseStatus) string {
	if target == finance.ExpenseRejected {
		return "reject"
	}
	return "approve"
}
