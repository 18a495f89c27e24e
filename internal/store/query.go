package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/shared"
)

// Operator is a comparison supported by Condition.
type Operator string

const (
	OpEq     Operator = "eq"
	OpNeq    Operator = "neq"
	OpGte    Operator = "gte"
	OpLte    Operator = "lte"
	OpIn     Operator = "in"
	OpIsNull Operator = "is_null"
)

// Condition filters a column.
type Condition struct {
	Column string   `json:"column"`
	Op     Operator `json:"op"`
	Value  any      `json:"value,omitempty"`
}

// Order sorts by a column.
type Order struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// Page bounds a listing.
type Page struct {
	Limit  int
	Offset int
}

type statement struct {
	sql  string
	args []any
}

func buildSelect(e Entity, tenantID uuid.UUID, conds []Condition, orders []Order, page Page) (statement, error) {
	args := []any{tenantID}
	where := []string{"tenant_id = $1"}
	for _, c := range conds {
		if !e.hasColumn(c.Column) {
			return statement{}, fmt.Errorf("%w: unknown column %q on %s", shared.ErrValidation, c.Column, e.Name)
		}
		switch c.Op {
		case OpEq, OpNeq, OpGte, OpLte:
			args = append(args, normalizeInput(c.Value))
			where = append(where, fmt.Sprintf("%s %s $%d", c.Column, sqlOperator(c.Op), len(args)))
		case OpIn:
			values, ok := c.Value.([]any)
			if !ok {
				return statement{}, fmt.Errorf("%w: %q expects a list", shared.ErrValidation, c.Column)
			}
			if len(values) == 0 {
				where = append(where, "false")
				continue
			}
			placeholders := make([]string, 0, len(values))
			for _, v := range values {
				args = append(args, normalizeInput(v))
				placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
			}
			where = append(where, fmt.Sprintf("%s IN (%s)", c.Column, strings.Join(placeholders, ", ")))
		case OpIsNull:
			if want, ok := c.Value.(bool); ok && !want {
				where = append(where, c.Column+" IS NOT NULL")
			} else {
				where = append(where, c.Column+" IS NULL")
			}
		default:
			return statement{}, fmt.Errorf("%w: unsupported operator %q", shared.ErrValidation, c.Op)
		}
	}
	if len(orders) == 0 && e.DefaultOrder.Column != "" {
		orders = []Order{e.DefaultOrder}
	}
	orderBy := make([]string, 0, len(orders)+1)
	for _, o := range orders {
		if !e.hasColumn(o.Column) {
			return statement{}, fmt.Errorf("%w: unknown order column %q", shared.ErrValidation, o.Column)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		orderBy = append(orderBy, o.Column+" "+dir)
	}
	orderBy = append(orderBy, "id ASC")

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s WHERE %s ORDER BY %s",
		strings.Join(e.selectList(), ", "), e.Name, strings.Join(where, " AND "), strings.Join(orderBy, ", "))
	if page.Limit > 0 {
		args = append(args, page.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if page.Offset > 0 {
		args = append(args, page.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return statement{sql: b.String(), args: args}, nil
}

func sqlOperator(op Operator) string {
	switch op {
	case OpNeq:
		return "<>"
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	default:
		return "="
	}
}

// writableColumns validates row keys and returns them sorted for stable SQL.
func writableColumns(e Entity, row map[string]any) ([]string, error) {
	cols := make([]string, 0, len(row))
	for col := range row {
		if !e.writable(col) {
			return nil, fmt.Errorf("%w: column %q is not writable on %s", shared.ErrValidation, col, e.Name)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}

func buildInsert(e Entity, tenantID uuid.UUID, row map[string]any) (statement, error) {
	cols, err := writableColumns(e, row)
	if err != nil {
		return statement{}, err
	}
	names := append([]string{"tenant_id"}, cols...)
	args := []any{tenantID}
	placeholders := []string{"$1"}
	for _, col := range cols {
		args = append(args, normalizeInput(row[col]))
		placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		e.Name, strings.Join(names, ", "), strings.Join(placeholders, ", "), strings.Join(e.selectList(), ", "))
	return statement{sql: sql, args: args}, nil
}

func buildUpdate(e Entity, tenantID, id uuid.UUID, patch map[string]any) (statement, error) {
	if len(patch) == 0 {
		return statement{}, fmt.Errorf("%w: empty patch", shared.ErrValidation)
	}
	cols, err := writableColumns(e, patch)
	if err != nil {
		return statement{}, err
	}
	args := []any{tenantID, id}
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		args = append(args, normalizeInput(patch[col]))
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE tenant_id = $1 AND id = $2", e.Name, strings.Join(sets, ", "))
	return statement{sql: sql, args: args}, nil
}

func buildDelete(e Entity, tenantID uuid.UUID, ids []uuid.UUID) statement {
	returning := append([]string{"id"}, e.Attachments...)
	return statement{
		sql: fmt.Sprintf("DELETE FROM %s WHERE tenant_id = $1 AND id = ANY($2) RETURNING %s",
			e.Name, strings.Join(returning, ", ")),
		args: []any{tenantID, ids},
	}
}

// normalizeInput converts JSON-decoded values into types pgx encodes directly.
func normalizeInput(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}
