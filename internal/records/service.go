// Package records exposes tenant data through a generic CRUD surface.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/finance"
	"github.com/odyssey-erp/commesse/internal/shared"
	"github.com/odyssey-erp/commesse/internal/store"
)

// Store is the generic persistence surface.
type Store interface {
	Query(ctx context.Context, tenantID uuid.UUID, entity string, params store.QueryParams) ([]store.Row, error)
	Get(ctx context.Context, tenantID uuid.UUID, entity string, id uuid.UUID) (store.Row, error)
	Insert(ctx context.Context, tenantID uuid.UUID, entity string, row store.Row) (store.Row, error)
	Update(ctx context.Context, tenantID uuid.UUID, entity string, id uuid.UUID, patch store.Row) error
	BulkDelete(ctx context.Context, tenantID uuid.UUID, entity string, ids []uuid.UUID) (store.Deleted, error)
}

// Invalidator drops cached reports after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// Auditor records writes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CleanupEnqueuer schedules removal of orphaned attachments.
type CleanupEnqueuer interface {
	EnqueueAttachmentCleanup(ctx context.Context, tenantID uuid.UUID, keys []string) error
}

// Service applies tenant scoping, invoice amount rules and the write side
// effects on top of Store.
type Service struct {
	store   Store
	cache   Invalidator
	audit   Auditor
	cleanup CleanupEnqueuer
	logger  *slog.Logger
}

// Option customises Service.
type Option func(*Service)

// WithInvalidator drops analytics caches after every write.
func WithInvalidator(c Invalidator) Option { return func(s *Service) { s.cache = c } }

// WithAuditor records every write.
func WithAuditor(a Auditor) Option { return func(s *Service) { s.audit = a } }

// WithCleanup enqueues attachment removal after deletes.
func WithCleanup(c CleanupEnqueuer) Option { return func(s *Service) { s.cleanup = c } }

// NewService constructs the service.
func NewService(st Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: st, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns rows of entity.
func (s *Service) List(ctx context.Context, p shared.Principal, entity string, params store.QueryParams) ([]store.Row, error) {
	return s.store.Query(ctx, p.TenantID, entity, params)
}

// Get returns one row.
func (s *Service) Get(ctx context.Context, p shared.Principal, entity string, id uuid.UUID) (store.Row, error) {
	return s.store.Get(ctx, p.TenantID, entity, id)
}

// Create inserts a row. Invoice tax and total are derived from net and rate.
func (s *Service) Create(ctx context.Context, p shared.Principal, entity string, row store.Row) (store.Row, error) {
	e, err := store.Lookup(entity)
	if err != nil {
		return nil, err
	}
	if err := checkExpenseStatus(e, row, true); err != nil {
		return nil, err
	}
	if e.Invoice() {
		if err := applyInvoiceAmounts(row, nil); err != nil {
			return nil, err
		}
	}
	created, err := s.store.Insert(ctx, p.TenantID, entity, row)
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, p, "create", entity, fmt.Sprint(created["id"]), map[string]any{"columns": len(row)})
	return created, nil
}

// Update patches a row. Any change to an invoice's amounts recomputes its
// tax and total against the stored values.
func (s *Service) Update(ctx context.Context, p shared.Principal, entity string, id uuid.UUID, patch store.Row) error {
	e, err := store.Lookup(entity)
	if err != nil {
		return err
	}
	if err := checkExpenseStatus(e, patch, false); err != nil {
		return err
	}
	if e.Name == store.EntityExpenseNotes && hasKey(patch, "status") {
		current, err := s.store.Get(ctx, p.TenantID, entity, id)
		if err != nil {
			return err
		}
		if err := checkStatusReopen(current); err != nil {
			return err
		}
	}
	if e.Invoice() && touchesAmounts(patch) {
		current, err := s.store.Get(ctx, p.TenantID, entity, id)
		if err != nil {
			return err
		}
		if err := applyInvoiceAmounts(patch, current); err != nil {
			return err
		}
	}
	if err := s.store.Update(ctx, p.TenantID, entity, id, patch); err != nil {
		return err
	}
	s.afterWrite(ctx, p, "update", entity, id.String(), map[string]any{"columns": keys(patch)})
	return nil
}

// Delete removes rows in one transaction and schedules cleanup of the
// attachments they referenced.
func (s *Service) Delete(ctx context.Context, p shared.Principal, entity string, ids []uuid.UUID) (store.Deleted, error) {
	if len(ids) == 0 {
		return store.Deleted{}, fmt.Errorf("%w: no ids to delete", shared.ErrValidation)
	}
	deleted, err := s.store.BulkDelete(ctx, p.TenantID, entity, ids)
	if err != nil {
		return store.Deleted{}, err
	}
	for _, id := range deleted.IDs {
		s.afterWrite(ctx, p, "delete", entity, id.String(), nil)
	}
	if len(deleted.AttachmentKeys) > 0 && s.cleanup != nil {
		if err := s.cleanup.EnqueueAttachmentCleanup(ctx, p.TenantID, deleted.AttachmentKeys); err != nil {
			s.logger.Error("enqueue attachment cleanup",
				slog.String("tenant_id", p.TenantID.String()),
				slog.Int("keys", len(deleted.AttachmentKeys)),
				slog.Any("error", err))
		}
	}
	return deleted, nil
}

func (s *Service) afterWrite(ctx context.Context, p shared.Principal, action, entity, id string, meta map[string]any) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, p.TenantID); err != nil {
			s.logger.Warn("invalidate analytics cache", slog.String("tenant_id", p.TenantID.String()), slog.Any("error", err))
		}
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			TenantID: p.TenantID,
			ActorID:  p.UserID,
			Action:   action,
			Entity:   entity,
			EntityID: id,
			Meta:     meta,
		})
		if err != nil {
			s.logger.Error("audit write", slog.String("entity", entity), slog.Any("error", err))
		}
	}
}

// checkExpenseStatus keeps decisions out of the generic surface: approved and
// rejected are reachable only through the approval workflow.
func checkExpenseStatus(e store.Entity, row store.Row, creating bool) error {
	if e.Name != store.EntityExpenseNotes {
		return nil
	}
	raw, ok := row["status"]
	if !ok {
		return nil
	}
	switch finance.ExpenseStatus(fmt.Sprint(raw)) {
	case finance.ExpenseDraft, finance.ExpensePendingApproval:
		return nil
	case finance.ExpenseApproved, finance.ExpenseRejected:
		if creating {
			return fmt.Errorf("%w: new expense notes start as draft or pending_approval", shared.ErrValidation)
		}
		return fmt.Errorf("%w: use the approval endpoints to decide an expense note", shared.ErrValidation)
	default:
		return fmt.Errorf("%w: unknown expense status %v", shared.ErrValidation, raw)
	}
}

// checkStatusReopen refuses generic status writes on a decided note; the
// decision columns would otherwise describe a status the note no longer has.
func checkStatusReopen(current store.Row) error {
	switch status := finance.ExpenseStatus(fmt.Sprint(current["status"])); status {
	case finance.ExpenseDraft, finance.ExpensePendingApproval:
		return nil
	default:
		return fmt.Errorf("%w: expense note is %s", shared.ErrStateConflict, status)
	}
}

func touchesAmounts(row store.Row) bool {
	return hasKey(row, "net_amount") || hasKey(row, "tax_rate") ||
		hasKey(row, "tax_amount") || hasKey(row, "total_amount")
}

// applyInvoiceAmounts sets tax_amount and total_amount on row from net_amount
// and tax_rate, falling back to current for whichever is absent. Client values
// for tax_amount and total_amount are never stored.
func applyInvoiceAmounts(row, current store.Row) error {
	derived := hasKey(row, "tax_amount") || hasKey(row, "total_amount")
	delete(row, "tax_amount")
	delete(row, "total_amount")

	pick := func(col string) (float64, bool, error) {
		if v, ok := row[col]; ok {
			f, err := number(v)
			if err != nil {
				return 0, false, fmt.Errorf("%w: %s: %v", shared.ErrValidation, col, err)
			}
			return f, true, nil
		}
		if v, ok := current[col]; ok && v != nil {
			f, err := number(v)
			return f, err == nil, nil
		}
		return 0, false, nil
	}
	net, hasNet, err := pick("net_amount")
	if err != nil {
		return err
	}
	rate, hasRate, err := pick("tax_rate")
	if err != nil {
		return err
	}
	if !hasNet {
		if derived {
			return fmt.Errorf("%w: tax_amount and total_amount are derived from net_amount and tax_rate", shared.ErrValidation)
		}
		return nil
	}
	if net < 0 {
		return fmt.Errorf("%w: net_amount must not be negative", shared.ErrValidation)
	}
	if !hasRate {
		rate = 0
		row["tax_rate"] = 0.0
	}
	tax, total := finance.RecomputeAmounts(net, rate)
	row["tax_amount"] = tax
	row["total_amount"] = total
	return nil
}

func number(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	case nil:
		return 0, fmt.Errorf("value required")
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}

func hasKey(row store.Row, k string) bool {
	_, ok := row[k]
	return ok
}

func keys(row store.Row) []string {
	out := make([]string, 0, len(row))
	for k := range row {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
