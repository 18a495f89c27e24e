package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const isoLayout = "2006-01-02"

// DateRange bounds a filter. Empty bounds are unbounded; both bounds are inclusive.
type DateRange struct {
	From Date `json:"from,omitempty"`
	To   Date `json:"to,omitempty"`
}

// Active reports whether at least one bound is set.
func (r DateRange) Active() bool {
	return !r.From.IsZero() || !r.To.IsZero()
}

// Contains reports whether d falls within the range. An empty date only
// passes an inactive range.
func (r DateRange) Contains(d Date) bool {
	if !r.Active() {
		return true
	}
	if d.IsZero() {
		return false
	}
	if !r.From.IsZero() && d < r.From {
		return false
	}
	if !r.To.IsZero() && d > r.To {
		return false
	}
	return true
}

// FilterByDateRange keeps records whose date falls inside r.
func FilterByDateRange[T any](records []T, date func(T) Date, r DateRange) []T {
	if !r.Active() {
		out := make([]T, len(records))
		copy(out, records)
		return out
	}
	return keep(records, func(rec T) bool { return r.Contains(date(rec)) })
}

// AllocationDate synthesises the first day of the allocation month.
func AllocationDate(year, month int) Date {
	if year <= 0 || month < 1 || month > 12 {
		return ""
	}
	return Date(fmt.Sprintf("%04d-%02d-01", year, month))
}

// ParseDate converts an ISO date into a UTC midnight time.
func ParseDate(d Date) (time.Time, bool) {
	t, err := time.Parse(isoLayout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateOf formats t as an ISO date.
func DateOf(t time.Time) Date {
	return Date(t.Format(isoLayout))
}

// DaysBetween returns to − from in whole days. The second value is false when
// either date is malformed.
func DaysBetween(from, to Date) (int, bool) {
	a, ok := ParseDate(from)
	if !ok {
		return 0, false
	}
	b, ok := ParseDate(to)
	if !ok {
		return 0, false
	}
	return int(b.Sub(a).Hours() / 24), true
}

func dateOrEmpty(d *Date) Date {
	if d == nil {
		return ""
	}
	return *d
}

// Filter narrows a RecordSet by date range and optional dimensions.
type Filter struct {
	Range      DateRange  `json:"range"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	ProjectID  *uuid.UUID `json:"project_id,omitempty"`
	EmployeeID *uuid.UUID `json:"employee_id,omitempty"`
}

func matchID(want *uuid.UUID, got uuid.UUID) bool {
	return want == nil || *want == got
}

func matchOptionalID(want *uuid.UUID, got *uuid.UUID) bool {
	if want == nil {
		return true
	}
	return got != nil && *got == *want
}

// Apply returns the subset of s matching f. Master data (parties, employees,
// projects) is narrowed only by the dimension it represents.
func (s RecordSet) Apply(f Filter) RecordSet {
	out := RecordSet{
		TenantID:  s.TenantID,
		Clients:   keep(s.Clients, func(p Party) bool { return matchID(f.ClientID, p.ID) }),
		Suppliers: keep(s.Suppliers, func(Party) bool { return true }),
		Employees: keep(s.Employees, func(e Employee) bool { return matchID(f.EmployeeID, e.ID) }),
		Projects: keep(s.Projects, func(p Project) bool {
			return matchID(f.ProjectID, p.ID) && matchID(f.ClientID, p.ClientID)
		}),
	}
	clientProjects := make(map[uuid.UUID]bool)
	if f.ClientID != nil {
		for _, p := range s.Projects {
			if p.ClientID == *f.ClientID {
				clientProjects[p.ID] = true
			}
		}
	}
	inClientScope := func(projectID *uuid.UUID) bool {
		if f.ClientID == nil {
			return true
		}
		return projectID != nil && clientProjects[*projectID]
	}

	issued := FilterByDateRange(s.Issued, func(i IssuedInvoice) Date { return i.IssueDate }, f.Range)
	out.Issued = keep(issued, func(i IssuedInvoice) bool {
		return matchID(f.ClientID, i.ClientID) && matchOptionalID(f.ProjectID, i.ProjectID)
	})
	received := FilterByDateRange(s.Received, func(i ReceivedInvoice) Date { return i.IssueDate }, f.Range)
	out.Received = keep(received, func(i ReceivedInvoice) bool {
		return matchOptionalID(f.ProjectID, i.ProjectID) && inClientScope(i.ProjectID)
	})
	payroll := FilterByDateRange(s.Payroll, func(a PayrollAllocation) Date { return AllocationDate(a.Year, a.Month) }, f.Range)
	out.Payroll = keep(payroll, func(a PayrollAllocation) bool {
		return matchID(f.ProjectID, a.ProjectID) && matchID(f.EmployeeID, a.EmployeeID) && inClientScope(&a.ProjectID)
	})
	filings := FilterByDateRange(s.TaxFilings, func(a TaxFilingAllocation) Date { return AllocationDate(a.Year, a.Month) }, f.Range)
	out.TaxFilings = keep(filings, func(a TaxFilingAllocation) bool {
		return matchID(f.ProjectID, a.ProjectID) && inClientScope(&a.ProjectID)
	})
	notes := FilterByDateRange(s.ExpenseNotes, func(n ExpenseNote) Date { return n.NoteDate }, f.Range)
	out.ExpenseNotes = keep(notes, func(n ExpenseNote) bool {
		return matchOptionalID(f.ProjectID, n.ProjectID) && matchID(f.EmployeeID, n.EmployeeID) && inClientScope(n.ProjectID)
	})
	entries := FilterByDateRange(s.TimeEntries, func(t TimeEntry) Date { return t.WorkDate }, f.Range)
	out.TimeEntries = keep(entries, func(t TimeEntry) bool {
		return matchID(f.ProjectID, t.ProjectID) && matchID(f.EmployeeID, t.EmployeeID) && inClientScope(&t.ProjectID)
	})
	return out
}
