package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/commesse/internal/platform/db"
	"github.com/odyssey-erp/commesse/internal/shared"
)

// DB is the subset of *pgxpool.Pool the store relies on.
type DB interface {
	db.TxBeginner
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store is the tenant-scoped persistence adapter.
type Store struct {
	db DB
}

// New wraps a connection pool.
func New(conn DB) *Store {
	return &Store{db: conn}
}

// Row is a generic record keyed by column name.
type Row = map[string]any

// Deleted describes rows removed by Delete or BulkDelete.
type Deleted struct {
	IDs []uuid.UUID
	// AttachmentKeys are the non-empty object keys the removed rows referenced.
	AttachmentKeys []string
}

// QueryParams narrows a generic listing.
type QueryParams struct {
	Conditions []Condition
	Order      []Order
	Page       Page
}

// Query lists rows of entity owned by tenantID.
func (s *Store) Query(ctx context.Context, tenantID uuid.UUID, entity string, params QueryParams) ([]Row, error) {
	e, err := Lookup(entity)
	if err != nil {
		return nil, err
	}
	stmt, err := buildSelect(e, tenantID, params.Conditions, params.Order, params.Page)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return nil, mapError("query "+entity, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapError("query "+entity, err)
	}
	for _, row := range out {
		normalizeRow(row)
	}
	return out, nil
}

// Get loads a single row by id.
func (s *Store) Get(ctx context.Context, tenantID uuid.UUID, entity string, id uuid.UUID) (Row, error) {
	rows, err := s.Query(ctx, tenantID, entity, QueryParams{
		Conditions: []Condition{{Column: "id", Op: OpEq, Value: id}},
		Page:       Page{Limit: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store: get %s %s: %w", entity, id, shared.ErrNotFound)
	}
	return rows[0], nil
}

// Insert stores row under tenantID and returns the persisted record.
func (s *Store) Insert(ctx context.Context, tenantID uuid.UUID, entity string, row Row) (Row, error) {
	e, err := Lookup(entity)
	if err != nil {
		return nil, err
	}
	stmt, err := buildInsert(e, tenantID, row)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return nil, mapError("insert "+entity, err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, mapError("insert "+entity, err)
	}
	normalizeRow(out)
	return out, nil
}

// Update applies patch to the row with id. A missing row is ErrNotFound.
func (s *Store) Update(ctx context.Context, tenantID uuid.UUID, entity string, id uuid.UUID, patch Row) error {
	e, err := Lookup(entity)
	if err != nil {
		return err
	}
	stmt, err := buildUpdate(e, tenantID, id, patch)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, stmt.sql, stmt.args...)
	if err != nil {
		return mapError("update "+entity, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store: update %s %s: %w", entity, id, shared.ErrNotFound)
	}
	return nil
}

// Delete removes one row.
func (s *Store) Delete(ctx context.Context, tenantID uuid.UUID, entity string, id uuid.UUID) (Deleted, error) {
	return s.BulkDelete(ctx, tenantID, entity, []uuid.UUID{id})
}

// BulkDelete removes every id in one transaction. When any id is missing
// nothing is deleted and ErrNotFound is returned.
func (s *Store) BulkDelete(ctx context.Context, tenantID uuid.UUID, entity string, ids []uuid.UUID) (Deleted, error) {
	e, err := Lookup(entity)
	if err != nil {
		return Deleted{}, err
	}
	unique := dedupe(ids)
	if len(unique) == 0 {
		return Deleted{}, fmt.Errorf("store: delete %s: %w: no ids", entity, shared.ErrValidation)
	}
	stmt := buildDelete(e, tenantID, unique)
	var out Deleted
	err = db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, stmt.sql, stmt.args...)
		if err != nil {
			return mapError("delete "+entity, err)
		}
		removed, err := pgx.CollectRows(rows, pgx.RowToMap)
		if err != nil {
			return mapError("delete "+entity, err)
		}
		if len(removed) != len(unique) {
			return fmt.Errorf("store: delete %s: %w: %d of %d ids matched",
				entity, shared.ErrNotFound, len(removed), len(unique))
		}
		out = collectDeleted(e, removed)
		return nil
	})
	if err != nil {
		return Deleted{}, err
	}
	return out, nil
}

func collectDeleted(e Entity, removed []Row) Deleted {
	out := Deleted{IDs: make([]uuid.UUID, 0, len(removed))}
	for _, row := range removed {
		normalizeRow(row)
		if id, err := uuid.Parse(fmt.Sprint(row["id"])); err == nil {
			out.IDs = append(out.IDs, id)
		}
		for _, col := range e.Attachments {
			if key, ok := row[col].(string); ok && strings.TrimSpace(key) != "" {
				out.AttachmentKeys = append(out.AttachmentKeys, key)
			}
		}
	}
	return out
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// TenantIDs lists every tenant with at least one membership.
func (s *Store) TenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT tenant_id FROM tenant_memberships ORDER BY tenant_id`)
	if err != nil {
		return nil, mapError("list tenants", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, mapError("list tenants", err)
	}
	return ids, nil
}

// normalizeRow rewrites driver values into JSON-friendly ones: UUIDs become
// strings, numerics become float64 and *_date columns become ISO dates.
func normalizeRow(row Row) {
	for col, v := range row {
		row[col] = normalizeValue(col, v)
	}
}

func normalizeValue(col string, v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case uuid.UUID:
		return val.String()
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		if strings.HasSuffix(col, "_date") {
			return val.Format("2006-01-02")
		}
		return val.UTC()
	default:
		return v
	}
}
