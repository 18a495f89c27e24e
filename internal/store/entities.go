package store

import (
	"fmt"
	"sort"

	"github.com/odyssey-erp/commesse/internal/shared"
)

// Entity names accepted by the generic query surface.
const (
	EntityClients            = "clients"
	EntitySuppliers          = "suppliers"
	EntityEmployees          = "employees"
	EntityProjects           = "projects"
	EntityIssuedInvoices     = "issued_invoices"
	EntityReceivedInvoices   = "received_invoices"
	EntityPayrollAllocations = "payroll_allocations"
	EntityF24Allocations     = "f24_allocations"
	EntityExpenseNotes       = "expense_notes"
	EntityTimeEntries        = "time_entries"
	EntityTeamAssignments    = "team_assignments"
)

// Entity describes a tenant-scoped table exposed through Query/Insert/Update.
type Entity struct {
	Name string
	// Columns are readable in addition to id and tenant_id.
	Columns []string
	// ReadOnly columns are returned but never written through the generic surface.
	ReadOnly     []string
	DefaultOrder Order
	// Attachments lists columns holding object storage keys.
	Attachments []string
}

// Invoice reports whether the entity carries net/tax/total amounts.
func (e Entity) Invoice() bool {
	return e.Name == EntityIssuedInvoices || e.Name == EntityReceivedInvoices
}

func (e Entity) hasColumn(col string) bool {
	if col == "id" || col == "tenant_id" {
		return true
	}
	for _, c := range e.Columns {
		if c == col {
			return true
		}
	}
	return false
}

func (e Entity) writable(col string) bool {
	if col == "id" || col == "tenant_id" {
		return false
	}
	for _, c := range e.ReadOnly {
		if c == col {
			return false
		}
	}
	return e.hasColumn(col)
}

func (e Entity) selectList() []string {
	out := make([]string, 0, len(e.Columns)+2)
	out = append(out, "id", "tenant_id")
	return append(out, e.Columns...)
}

var invoiceColumns = []string{
	"number", "project_id", "issue_date", "due_date", "paid_date",
	"net_amount", "tax_rate", "tax_amount", "total_amount",
	"payment_status", "category", "attachment_path", "created_at",
}

var registry = map[string]Entity{
	EntityClients: {
		Name:         EntityClients,
		Columns:      []string{"legal_form", "first_name", "last_name", "company_name", "vat_number", "email", "created_at"},
		ReadOnly:     []string{"created_at"},
		DefaultOrder: Order{Column: "created_at", Desc: true},
	},
	EntitySuppliers: {
		Name:         EntitySuppliers,
		Columns:      []string{"legal_form", "first_name", "last_name", "company_name", "vat_number", "email", "created_at"},
		ReadOnly:     []string{"created_at"},
		DefaultOrder: Order{Column: "created_at", Desc: true},
	},
	EntityEmployees: {
		Name:         EntityEmployees,
		Columns:      []string{"first_name", "last_name", "email", "weekly_hours", "created_at"},
		ReadOnly:     []string{"created_at"},
		DefaultOrder: Order{Column: "last_name"},
	},
	EntityProjects: {
		Name: EntityProjects,
		Columns: []string{"title", "client_id", "start_date", "expected_end_date", "status",
			"budget", "materials_cost", "completion_percentage", "created_at"},
		ReadOnly:     []string{"created_at"},
		DefaultOrder: Order{Column: "created_at", Desc: true},
	},
	EntityIssuedInvoices: {
		Name:         EntityIssuedInvoices,
		Columns:      append([]string{"client_id"}, invoiceColumns...),
		ReadOnly:     []string{"created_at"},
		DefaultOrder: Order{Column: "issue_date", Desc: true},
		Attachments:  []string{"attachment_path"},
	},
	EntityReceivedInvoices: {
		Name:         EntityReceivedInvoices,
		Columns:      append([]string{"supplier_id", "iban", "bank_name"}, invoiceColumns...),
		ReadOnly:     []string{"created_at"},
		DefaultOrder: Order{Column: "issue_date", Desc: true},
		Attachments:  []string{"attachment_path"},
	},
	EntityPayrollAllocations: {
		Name:         EntityPayrollAllocations,
		Columns:      []string{"year", "month", "employee_id", "project_id", "allocated_amount"},
		DefaultOrder: Order{Column: "year", Desc: true},
	},
	EntityF24Allocations: {
		Name:         EntityF24Allocations,
		Columns:      []string{"year", "month", "project_id", "allocated_amount"},
		DefaultOrder: Order{Column: "year", Desc: true},
	},
	EntityExpenseNotes: {
		Name: EntityExpenseNotes,
		Columns: []string{"employee_id", "project_id", "note_date", "amount", "category", "status",
			"receipt_path", "decided_by", "decided_at", "rejection_reason", "created_at"},
		// status transitions out of pending_approval go through the approval procedures
		ReadOnly:     []string{"decided_by", "decided_at", "rejection_reason", "created_at"},
		DefaultOrder: Order{Column: "note_date", Desc: true},
		Attachments:  []string{"receipt_path"},
	},
	EntityTimeEntries: {
		Name:         EntityTimeEntries,
		Columns:      []string{"employee_id", "project_id", "work_date", "hours", "description"},
		DefaultOrder: Order{Column: "work_date", Desc: true},
	},
	EntityTeamAssignments: {
		Name:         EntityTeamAssignments,
		Columns:      []string{"project_id", "employee_id", "role", "created_at"},
		ReadOnly:     []string{"created_at"},
		DefaultOrder: Order{Column: "created_at"},
	},
}

// Lookup returns the registered entity or a validation error.
func Lookup(name string) (Entity, error) {
	e, ok := registry[name]
	if !ok {
		return Entity{}, fmt.Errorf("%w: unknown entity %q", shared.ErrValidation, name)
	}
	return e, nil
}

// Entities lists registered entity names in alphabetical order.
func Entities() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
