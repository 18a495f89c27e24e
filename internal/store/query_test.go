package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/commesse/internal/shared"
)

var tenant = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func mustEntity(t *testing.T, name string) Entity {
	t.Helper()
	e, err := Lookup(name)
	require.NoError(t, err)
	return e
}

func TestBuildSelectScopesTenantAndDefaultOrder(t *testing.T) {
	e := mustEntity(t, EntityTimeEntries)
	stmt, err := buildSelect(e, tenant, nil, nil, Page{})
	require.NoError(t, err)
	require.Equal(t,
		"SELECT id, tenant_id, employee_id, project_id, work_date, hours, description FROM time_entries WHERE tenant_id = $1 ORDER BY work_date DESC, id ASC",
		stmt.sql)
	require.Equal(t, []any{tenant}, stmt.args)
}

func TestBuildSelectConditions(t *testing.T) {
	e := mustEntity(t, EntityExpenseNotes)
	stmt, err := buildSelect(e, tenant, []Condition{
		{Column: "status", Op: OpIn, Value: []any{"approved", "pending_approval"}},
		{Column: "note_date", Op: OpGte, Value: "2025-01-01"},
		{Column: "amount", Op: OpNeq, Value: json.Number("0")},
		{Column: "project_id", Op: OpIsNull},
		{Column: "receipt_path", Op: OpIsNull, Value: false},
	}, []Order{{Column: "amount"}}, Page{Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Contains(t, stmt.sql, "WHERE tenant_id = $1 AND status IN ($2, $3) AND note_date >= $4 AND amount <> $5 AND project_id IS NULL AND receipt_path IS NOT NULL")
	require.Contains(t, stmt.sql, "ORDER BY amount ASC, id ASC LIMIT $6 OFFSET $7")
	require.Equal(t, []any{tenant, "approved", "pending_approval", "2025-01-01", int64(0), 10, 20}, stmt.args)
}

func TestBuildSelectEmptyInMatchesNothing(t *testing.T) {
	stmt, err := buildSelect(mustEntity(t, EntityClients), tenant,
		[]Condition{{Column: "id", Op: OpIn, Value: []any{}}}, nil, Page{})
	require.NoError(t, err)
	require.Contains(t, stmt.sql, "AND false")
}

func TestBuildSelectRejectsUnknownColumns(t *testing.T) {
	e := mustEntity(t, EntityClients)
	cases := map[string]struct {
		conds  []Condition
		orders []Order
	}{
		"condition column": {conds: []Condition{{Column: "password", Op: OpEq, Value: "x"}}},
		"injection":        {conds: []Condition{{Column: "id; DROP TABLE clients", Op: OpEq}}},
		"operator":         {conds: []Condition{{Column: "email", Op: "like", Value: "%"}}},
		"in without list":  {conds: []Condition{{Column: "email", Op: OpIn, Value: "a"}}},
		"order column":     {orders: []Order{{Column: "secret"}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := buildSelect(e, tenant, tc.conds, tc.orders, Page{})
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestBuildInsertSortsColumnsAndReturnsRow(t *testing.T) {
	e := mustEntity(t, EntityF24Allocations)
	stmt, err := buildInsert(e, tenant, Row{"year": json.Number("2025"), "month": 3, "allocated_amount": json.Number("12.5")})
	require.NoError(t, err)
	require.Equal(t,
		"INSERT INTO f24_allocations (tenant_id, allocated_amount, month, year) VALUES ($1, $2, $3, $4) RETURNING id, tenant_id, year, month, project_id, allocated_amount",
		stmt.sql)
	require.Equal(t, []any{tenant, 12.5, 3, int64(2025)}, stmt.args)
}

func TestBuildInsertRejectsProtectedColumns(t *testing.T) {
	e := mustEntity(t, EntityExpenseNotes)
	for _, col := range []string{"id", "tenant_id", "decided_by", "created_at", "unknown"} {
		_, err := buildInsert(e, tenant, Row{col: "x"})
		require.ErrorIs(t, err, shared.ErrValidation, col)
	}
}

func TestBuildUpdate(t *testing.T) {
	id := uuid.New()
	stmt, err := buildUpdate(mustEntity(t, EntityProjects), tenant, id, Row{"status": "closed", "budget": 100.0})
	require.NoError(t, err)
	require.Equal(t, "UPDATE projects SET budget = $3, status = $4 WHERE tenant_id = $1 AND id = $2", stmt.sql)
	require.Equal(t, []any{tenant, id, 100.0, "closed"}, stmt.args)

	_, err = buildUpdate(mustEntity(t, EntityProjects), tenant, id, Row{})
	require.True(t, errors.Is(err, shared.ErrValidation))
}

func TestBuildDeleteReturnsAttachmentColumns(t *testing.T) {
	ids := []uuid.UUID{uuid.New()}
	stmt := buildDelete(mustEntity(t, EntityIssuedInvoices), tenant, ids)
	require.Equal(t, "DELETE FROM issued_invoices WHERE tenant_id = $1 AND id = ANY($2) RETURNING id, attachment_path", stmt.sql)

	stmt = buildDelete(mustEntity(t, EntityClients), tenant, ids)
	require.Equal(t, "DELETE FROM clients WHERE tenant_id = $1 AND id = ANY($2) RETURNING id", stmt.sql)
}

func TestLookupUnknownEntity(t *testing.T) {
	_, err := Lookup("users")
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, Entities(), EntityTeamAssignments)
	require.Len(t, Entities(), 11)
}
