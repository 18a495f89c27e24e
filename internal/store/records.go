package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/commesse/internal/finance"
)

// LoadRecordSet reads every collection the engine aggregates. Dated rows are
// limited to r; invoices still awaiting settlement are always included so
// aging and cash-flow projections see the full open position.
func (s *Store) LoadRecordSet(ctx context.Context, tenantID uuid.UUID, r finance.DateRange) (finance.RecordSet, error) {
	set := finance.RecordSet{TenantID: tenantID}
	from, to := dateParam(r.From), dateParam(r.To)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		set.Clients, err = s.loadParties(ctx, "clients", tenantID)
		return err
	})
	g.Go(func() (err error) {
		set.Suppliers, err = s.loadParties(ctx, "suppliers", tenantID)
		return err
	})
	g.Go(func() (err error) {
		set.Employees, err = s.loadEmployees(ctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		set.Projects, err = s.loadProjects(ctx, tenantID)
		return err
	})
	g.Go(func() (err error) {
		set.Issued, err = s.loadIssued(ctx, tenantID, from, to)
		return err
	})
	g.Go(func() (err error) {
		set.Received, err = s.loadReceived(ctx, tenantID, from, to)
		return err
	})
	g.Go(func() (err error) {
		set.Payroll, err = s.loadPayroll(ctx, tenantID, from, to)
		return err
	})
	g.Go(func() (err error) {
		set.TaxFilings, err = s.loadTaxFilings(ctx, tenantID, from, to)
		return err
	})
	g.Go(func() (err error) {
		set.ExpenseNotes, err = s.loadExpenseNotes(ctx, tenantID, from, to)
		return err
	})
	g.Go(func() (err error) {
		set.TimeEntries, err = s.loadTimeEntries(ctx, tenantID, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return finance.RecordSet{}, err
	}
	return set, nil
}

// WeeklyHours returns the contracted weekly hours of every employee that has them.
func (s *Store) WeeklyHours(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]float64, error) {
	rows, err := s.db.Query(ctx, `SELECT id, weekly_hours FROM employees
WHERE tenant_id = $1 AND weekly_hours IS NOT NULL AND weekly_hours > 0`, tenantID)
	if err != nil {
		return nil, mapError("weekly hours", err)
	}
	defer rows.Close()
	out := make(map[uuid.UUID]float64)
	for rows.Next() {
		var (
			id    uuid.UUID
			hours pgtype.Numeric
		)
		if err := rows.Scan(&id, &hours); err != nil {
			return nil, mapError("weekly hours", err)
		}
		if v := numericPtr(hours); v != nil {
			out[id] = *v
		}
	}
	return out, mapError("weekly hours", rows.Err())
}

func (s *Store) loadParties(ctx context.Context, table string, tenantID uuid.UUID) ([]finance.Party, error) {
	rows, err := s.db.Query(ctx, `SELECT id, tenant_id, legal_form, first_name, last_name, company_name
FROM `+table+` WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, mapError("load "+table, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.Party, error) {
		var (
			p                 finance.Party
			form              string
			first, last, comp pgtype.Text
		)
		err := row.Scan(&p.ID, &p.TenantID, &form, &first, &last, &comp)
		p.LegalForm = finance.LegalForm(form)
		p.FirstName, p.LastName, p.CompanyName = first.String, last.String, comp.String
		return p, err
	})
	return out, mapError("load "+table, err)
}

func (s *Store) loadEmployees(ctx context.Context, tenantID uuid.UUID) ([]finance.Employee, error) {
	rows, err := s.db.Query(ctx, `SELECT id, tenant_id, first_name, last_name
FROM employees WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, mapError("load employees", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.Employee, error) {
		var e finance.Employee
		err := row.Scan(&e.ID, &e.TenantID, &e.FirstName, &e.LastName)
		return e, err
	})
	return out, mapError("load employees", err)
}

func (s *Store) loadProjects(ctx context.Context, tenantID uuid.UUID) ([]finance.Project, error) {
	rows, err := s.db.Query(ctx, `SELECT id, tenant_id, title, client_id, start_date, expected_end_date,
       status, budget, materials_cost, COALESCE(completion_percentage, 0)
FROM projects WHERE tenant_id = $1 ORDER BY id`, tenantID)
	if err != nil {
		return nil, mapError("load projects", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.Project, error) {
		var (
			p                 finance.Project
			start, end        pgtype.Date
			budget, materials pgtype.Numeric
			completion        pgtype.Numeric
		)
		err := row.Scan(&p.ID, &p.TenantID, &p.Title, &p.ClientID, &start, &end,
			&p.Status, &budget, &materials, &completion)
		p.StartDate, p.ExpectedEndDate = datePtr(start), datePtr(end)
		p.Budget, p.MaterialsCost = numericPtr(budget), numericPtr(materials)
		if c := numericPtr(completion); c != nil {
			p.CompletionPercentage = *c
		}
		return p, err
	})
	return out, mapError("load projects", err)
}

const invoiceRangeClause = `tenant_id = $1 AND (
       (($2::date IS NULL OR issue_date >= $2) AND ($3::date IS NULL OR issue_date <= $3))
       OR payment_status = $4)`

func (s *Store) loadIssued(ctx context.Context, tenantID uuid.UUID, from, to pgtype.Date) ([]finance.IssuedInvoice, error) {
	rows, err := s.db.Query(ctx, `SELECT id, tenant_id, number, client_id, project_id, issue_date, due_date, paid_date,
       net_amount, tax_rate, tax_amount, total_amount, payment_status, COALESCE(category, ''), attachment_path
FROM issued_invoices WHERE `+invoiceRangeClause+` ORDER BY issue_date, id`,
		tenantID, from, to, string(finance.IssuedAwaitingCollection))
	if err != nil {
		return nil, mapError("load issued invoices", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.IssuedInvoice, error) {
		var (
			inv                   finance.IssuedInvoice
			project               pgtype.UUID
			issue, due, paid      pgtype.Date
			net, rate, tax, total pgtype.Numeric
			status                string
			attachment            pgtype.Text
		)
		err := row.Scan(&inv.ID, &inv.TenantID, &inv.Number, &inv.ClientID, &project, &issue, &due, &paid,
			&net, &rate, &tax, &total, &status, &inv.Category, &attachment)
		inv.ProjectID = uuidPtr(project)
		inv.IssueDate, inv.DueDate, inv.PaidDate = dateVal(issue), datePtr(due), datePtr(paid)
		inv.NetAmount, inv.TaxRate, inv.TaxAmount, inv.TotalAmount = numericPtr(net), numericPtr(rate), numericPtr(tax), numericPtr(total)
		inv.PaymentStatus = finance.IssuedPaymentStatus(status)
		inv.AttachmentPath = textPtr(attachment)
		return inv, err
	})
	return out, mapError("load issued invoices", err)
}

func (s *Store) loadReceived(ctx context.Context, tenantID uuid.UUID, from, to pgtype.Date) ([]finance.ReceivedInvoice, error) {
	rows, err := s.db.Query(ctx, `SELECT id, tenant_id, number, supplier_id, project_id, issue_date, due_date, paid_date,
       net_amount, tax_rate, tax_amount, total_amount, payment_status, COALESCE(category, ''), attachment_path,
       iban, bank_name
FROM received_invoices WHERE `+invoiceRangeClause+` ORDER BY issue_date, id`,
		tenantID, from, to, string(finance.ReceivedUnpaid))
	if err != nil {
		return nil, mapError("load received invoices", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.ReceivedInvoice, error) {
		var (
			inv                    finance.ReceivedInvoice
			project                pgtype.UUID
			issue, due, paid       pgtype.Date
			net, rate, tax, total  pgtype.Numeric
			status                 string
			attachment, iban, bank pgtype.Text
		)
		err := row.Scan(&inv.ID, &inv.TenantID, &inv.Number, &inv.SupplierID, &project, &issue, &due, &paid,
			&net, &rate, &tax, &total, &status, &inv.Category, &attachment, &iban, &bank)
		inv.ProjectID = uuidPtr(project)
		inv.IssueDate, inv.DueDate, inv.PaidDate = dateVal(issue), datePtr(due), datePtr(paid)
		inv.NetAmount, inv.TaxRate, inv.TaxAmount, inv.TotalAmount = numericPtr(net), numericPtr(rate), numericPtr(tax), numericPtr(total)
		inv.PaymentStatus = finance.ReceivedPaymentStatus(status)
		inv.AttachmentPath, inv.IBAN, inv.BankName = textPtr(attachment), textPtr(iban), textPtr(bank)
		return inv, err
	})
	return out, mapError("load received invoices", err)
}

const allocationRangeClause = `tenant_id = $1
  AND ($2::date IS NULL OR make_date(year, month, 1) >= $2)
  AND ($3::date IS NULL OR make_date(year, month, 1) <= $3)`

func (s *Store) loadPayroll(ctx context.Context, tenantID uuid.UUID, from, to pgtype.Date) ([]finance.PayrollAllocation, error) {
	rows, err := s.db.Query(ctx, `SELECT tenant_id, month, year, employee_id, project_id, allocated_amount
FROM payroll_allocations WHERE `+allocationRangeClause+` ORDER BY year, month, id`, tenantID, from, to)
	if err != nil {
		return nil, mapError("load payroll allocations", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.PayrollAllocation, error) {
		var (
			a      finance.PayrollAllocation
			amount pgtype.Numeric
		)
		err := row.Scan(&a.TenantID, &a.Month, &a.Year, &a.EmployeeID, &a.ProjectID, &amount)
		a.AllocatedAmount = numericPtr(amount)
		return a, err
	})
	return out, mapError("load payroll allocations", err)
}

func (s *Store) loadTaxFilings(ctx context.Context, tenantID uuid.UUID, from, to pgtype.Date) ([]finance.TaxFilingAllocation, error) {
	rows, err := s.db.Query(ctx, `SELECT tenant_id, month, year, project_id, allocated_amount
FROM f24_allocations WHERE `+allocationRangeClause+` ORDER BY year, month, id`, tenantID, from, to)
	if err != nil {
		return nil, mapError("load f24 allocations", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.TaxFilingAllocation, error) {
		var (
			a      finance.TaxFilingAllocation
			amount pgtype.Numeric
		)
		err := row.Scan(&a.TenantID, &a.Month, &a.Year, &a.ProjectID, &amount)
		a.AllocatedAmount = numericPtr(amount)
		return a, err
	})
	return out, mapError("load f24 allocations", err)
}

func (s *Store) loadExpenseNotes(ctx context.Context, tenantID uuid.UUID, from, to pgtype.Date) ([]finance.ExpenseNote, error) {
	rows, err := s.db.Query(ctx, `SELECT id, tenant_id, employee_id, project_id, note_date, amount, COALESCE(category, ''), status
FROM expense_notes
WHERE tenant_id = $1 AND ($2::date IS NULL OR note_date >= $2) AND ($3::date IS NULL OR note_date <= $3)
ORDER BY note_date, id`, tenantID, from, to)
	if err != nil {
		return nil, mapError("load expense notes", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.ExpenseNote, error) {
		var (
			n       finance.ExpenseNote
			project pgtype.UUID
			date    pgtype.Date
			amount  pgtype.Numeric
			status  string
		)
		err := row.Scan(&n.ID, &n.TenantID, &n.EmployeeID, &project, &date, &amount, &n.Category, &status)
		n.ProjectID = uuidPtr(project)
		n.NoteDate = dateVal(date)
		n.Amount = numericPtr(amount)
		n.Status = finance.ExpenseStatus(status)
		return n, err
	})
	return out, mapError("load expense notes", err)
}

func (s *Store) loadTimeEntries(ctx context.Context, tenantID uuid.UUID, from, to pgtype.Date) ([]finance.TimeEntry, error) {
	rows, err := s.db.Query(ctx, `SELECT tenant_id, employee_id, project_id, work_date, hours
FROM time_entries
WHERE tenant_id = $1 AND ($2::date IS NULL OR work_date >= $2) AND ($3::date IS NULL OR work_date <= $3)
ORDER BY work_date, id`, tenantID, from, to)
	if err != nil {
		return nil, mapError("load time entries", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (finance.TimeEntry, error) {
		var (
			t     finance.TimeEntry
			date  pgtype.Date
			hours pgtype.Numeric
		)
		err := row.Scan(&t.TenantID, &t.EmployeeID, &t.ProjectID, &date, &hours)
		t.WorkDate = dateVal(date)
		t.Hours = numericPtr(hours)
		return t, err
	})
	return out, mapError("load time entries", err)
}

func dateParam(d finance.Date) pgtype.Date {
	t, ok := finance.ParseDate(d)
	if !ok {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

func dateVal(d pgtype.Date) finance.Date {
	if !d.Valid {
		return ""
	}
	return finance.DateOf(d.Time)
}

func datePtr(d pgtype.Date) *finance.Date {
	if !d.Valid {
		return nil
	}
	v := finance.DateOf(d.Time)
	return &v
}

func numericPtr(n pgtype.Numeric) *float64 {
	if !n.Valid {
		return nil
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return &f.Float64
}

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	v := t.String
	return &v
}
