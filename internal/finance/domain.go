package finance

import (
	"strings"

	"github.com/google/uuid"
)

// Date is an ISO YYYY-MM-DD calendar date. ISO dates sort correctly as strings.
type Date string

// IsZero reports whether the date is absent.
func (d Date) IsZero() bool {
	return strings.TrimSpace(string(d)) == ""
}

// IssuedPaymentStatus enumerates collection states of issued invoices.
type IssuedPaymentStatus string

const (
	IssuedPaid               IssuedPaymentStatus = "paid"
	IssuedAwaitingCollection IssuedPaymentStatus = "awaiting_collection"
)

// ReceivedPaymentStatus enumerates payment states of received invoices.
type ReceivedPaymentStatus string

const (
	ReceivedPaid   ReceivedPaymentStatus = "paid"
	ReceivedUnpaid ReceivedPaymentStatus = "unpaid"
)

// ExpenseStatus enumerates the expense note lifecycle.
type ExpenseStatus string

const (
	ExpenseDraft           ExpenseStatus = "draft"
	ExpensePendingApproval ExpenseStatus = "pending_approval"
	ExpenseApproved        ExpenseStatus = "approved"
	ExpenseRejected        ExpenseStatus = "rejected"
)

// CountsAsCost reports whether a note in this status is part of cost totals.
func (s ExpenseStatus) CountsAsCost() bool {
	return s == ExpenseApproved || s == ExpensePendingApproval
}

// LegalForm distinguishes natural persons from legal entities.
type LegalForm string

const (
	NaturalPerson LegalForm = "natural_person"
	LegalEntity   LegalForm = "legal_entity"
)

// IssuedInvoice is a sales invoice sent to a client.
type IssuedInvoice struct {
	ID             uuid.UUID           `json:"id"`
	TenantID       uuid.UUID           `json:"tenant_id"`
	Number         string              `json:"number"`
	ClientID       uuid.UUID           `json:"client_id"`
	ProjectID      *uuid.UUID          `json:"project_id,omitempty"`
	IssueDate      Date                `json:"issue_date"`
	DueDate        *Date               `json:"due_date,omitempty"`
	PaidDate       *Date               `json:"paid_date,omitempty"`
	NetAmount      *float64            `json:"net_amount"`
	TaxRate        *float64            `json:"tax_rate"`
	TaxAmount      *float64            `json:"tax_amount"`
	TotalAmount    *float64            `json:"total_amount"`
	PaymentStatus  IssuedPaymentStatus `json:"payment_status"`
	Category       string              `json:"category"`
	AttachmentPath *string             `json:"attachment_path,omitempty"`
}

// ReceivedInvoice is a purchase invoice received from a supplier.
type ReceivedInvoice struct {
	ID             uuid.UUID             `json:"id"`
	TenantID       uuid.UUID             `json:"tenant_id"`
	Number         string                `json:"number"`
	SupplierID     uuid.UUID             `json:"supplier_id"`
	ProjectID      *uuid.UUID            `json:"project_id,omitempty"`
	IssueDate      Date                  `json:"issue_date"`
	DueDate        *Date                 `json:"due_date,omitempty"`
	PaidDate       *Date                 `json:"paid_date,omitempty"`
	NetAmount      *float64              `json:"net_amount"`
	TaxRate        *float64              `json:"tax_rate"`
	TaxAmount      *float64              `json:"tax_amount"`
	TotalAmount    *float64              `json:"total_amount"`
	PaymentStatus  ReceivedPaymentStatus `json:"payment_status"`
	Category       string                `json:"category"`
	AttachmentPath *string               `json:"attachment_path,omitempty"`
	IBAN           *string               `json:"iban,omitempty"`
	BankName       *string               `json:"bank_name,omitempty"`
}

// PayrollAllocation apportions a payroll run's cost to a project.
type PayrollAllocation struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	Month           int       `json:"month"`
	Year            int       `json:"year"`
	EmployeeID      uuid.UUID `json:"employee_id"`
	ProjectID       uuid.UUID `json:"project_id"`
	AllocatedAmount *float64  `json:"allocated_amount"`
}

// TaxFilingAllocation apportions an F24 tax filing's cost to a project.
type TaxFilingAllocation struct {
	TenantID        uuid.UUID `json:"tenant_id"`
	Month           int       `json:"month"`
	Year            int       `json:"year"`
	ProjectID       uuid.UUID `json:"project_id"`
	AllocatedAmount *float64  `json:"allocated_amount"`
}

// ExpenseNote is an employee expense claim.
type ExpenseNote struct {
	ID         uuid.UUID     `json:"id"`
	TenantID   uuid.UUID     `json:"tenant_id"`
	EmployeeID uuid.UUID     `json:"employee_id"`
	ProjectID  *uuid.UUID    `json:"project_id,omitempty"`
	NoteDate   Date          `json:"note_date"`
	Amount     *float64      `json:"amount"`
	Category   string        `json:"category"`
	Status     ExpenseStatus `json:"status"`
}

// Project is a commessa executed for a client.
type Project struct {
	ID                   uuid.UUID `json:"id"`
	TenantID             uuid.UUID `json:"tenant_id"`
	Title                string    `json:"title"`
	ClientID             uuid.UUID `json:"client_id"`
	StartDate            *Date     `json:"start_date,omitempty"`
	ExpectedEndDate      *Date     `json:"expected_end_date,omitempty"`
	Status               string    `json:"status"`
	Budget               *float64  `json:"budget,omitempty"`
	MaterialsCost        *float64  `json:"materials_cost,omitempty"`
	CompletionPercentage float64   `json:"completion_percentage"`
}

// Party is a client or supplier.
type Party struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	LegalForm   LegalForm `json:"legal_form"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
}

// DisplayName renders "{last} {first}" for natural persons and the company
// name for legal entities.
func (p Party) DisplayName() string {
	if p.LegalForm == NaturalPerson {
		return strings.TrimSpace(p.LastName + " " + p.FirstName)
	}
	return strings.TrimSpace(p.CompanyName)
}

// Employee is a member of staff whose cost and hours are tracked.
type Employee struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// DisplayName renders "{last} {first}".
func (e Employee) DisplayName() string {
	return strings.TrimSpace(e.LastName + " " + e.FirstName)
}

// TimeEntry records hours worked by an employee on a project.
type TimeEntry struct {
	TenantID   uuid.UUID `json:"tenant_id"`
	EmployeeID uuid.UUID `json:"employee_id"`
	ProjectID  uuid.UUID `json:"project_id"`
	WorkDate   Date      `json:"work_date"`
	Hours      *float64  `json:"hours"`
}

// RecordSet bundles every collection the engine aggregates for one tenant.
type RecordSet struct {
	TenantID     uuid.UUID             `json:"tenant_id"`
	Clients      []Party               `json:"clients"`
	Suppliers    []Party               `json:"suppliers"`
	Employees    []Employee            `json:"employees"`
	Projects     []Project             `json:"projects"`
	Issued       []IssuedInvoice       `json:"issued"`
	Received     []ReceivedInvoice     `json:"received"`
	Payroll      []PayrollAllocation   `json:"payroll"`
	TaxFilings   []TaxFilingAllocation `json:"tax_filings"`
	ExpenseNotes []ExpenseNote         `json:"expense_notes"`
	TimeEntries  []TimeEntry           `json:"time_entries"`
}

// ForTenant returns a copy holding only rows owned by tenantID.
func (s RecordSet) ForTenant(tenantID uuid.UUID) RecordSet {
	out := RecordSet{TenantID: tenantID}
	out.Clients = keep(s.Clients, func(p Party) bool { return p.TenantID == tenantID })
	out.Suppliers = keep(s.Suppliers, func(p Party) bool { return p.TenantID == tenantID })
	out.Employees = keep(s.Employees, func(e Employee) bool { return e.TenantID == tenantID })
	out.Projects = keep(s.Projects, func(p Project) bool { return p.TenantID == tenantID })
	out.Issued = keep(s.Issued, func(i IssuedInvoice) bool { return i.TenantID == tenantID })
	out.Received = keep(s.Received, func(i ReceivedInvoice) bool { return i.TenantID == tenantID })
	out.Payroll = keep(s.Payroll, func(a PayrollAllocation) bool { return a.TenantID == tenantID })
	out.TaxFilings = keep(s.TaxFilings, func(a TaxFilingAllocation) bool { return a.TenantID == tenantID })
	out.ExpenseNotes = keep(s.ExpenseNotes, func(n ExpenseNote) bool { return n.TenantID == tenantID })
	out.TimeEntries = keep(s.TimeEntries, func(t TimeEntry) bool { return t.TenantID == tenantID })
	return out
}

func keep[T any](rows []T, pred func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if pred(row) {
			out = append(out, row)
		}
	}
	return out
}

// val dereferences an optional amount, treating nil as zero.
func val(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Amount is a convenience constructor for optional amounts.
func Amount(v float64) *float64 {
	return &v
}
