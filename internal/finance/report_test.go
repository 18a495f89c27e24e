package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func scenarioSet(tenant uuid.UUID) RecordSet {
	client := Party{ID: uuid.New(), TenantID: tenant, LegalForm: NaturalPerson, FirstName: "Mario", LastName: "Rossi"}
	project := Project{ID: uuid.New(), TenantID: tenant, Title: "Ristrutturazione", ClientID: client.ID, Budget: Amount(1000)}
	employee := Employee{ID: uuid.New(), TenantID: tenant, FirstName: "Anna", LastName: "Bianchi"}
	return RecordSet{
		TenantID:  tenant,
		Clients:   []Party{client},
		Projects:  []Project{project},
		Employees: []Employee{employee},
		Issued: []IssuedInvoice{{
			TenantID: tenant, ClientID: client.ID, ProjectID: &project.ID, IssueDate: "2024-03-10",
			NetAmount: Amount(1000), TaxRate: Amount(22), TaxAmount: Amount(220), TotalAmount: Amount(1220),
			PaymentStatus: IssuedAwaitingCollection,
		}},
		Received: []ReceivedInvoice{{
			TenantID: tenant, SupplierID: uuid.New(), ProjectID: &project.ID, IssueDate: "2024-03-12",
			NetAmount: Amount(400), TaxRate: Amount(22), TaxAmount: Amount(88), TotalAmount: Amount(488),
			PaymentStatus: ReceivedPaid, Category: "Materiali",
		}},
		Payroll: []PayrollAllocation{{
			TenantID: tenant, Year: 2024, Month: 3, EmployeeID: employee.ID, ProjectID: project.ID, AllocatedAmount: Amount(200),
		}},
		ExpenseNotes: []ExpenseNote{{
			TenantID: tenant, EmployeeID: employee.ID, ProjectID: &project.ID, NoteDate: "2024-03-20",
			Amount: Amount(50), Status: ExpenseApproved, Category: "Trasferte",
		}},
		TimeEntries: []TimeEntry{{
			TenantID: tenant, EmployeeID: employee.ID, ProjectID: project.ID, WorkDate: "2024-03-05", Hours: Amount(120),
		}},
	}
}

func TestBuildReportScenario(t *testing.T) {
	tenant := uuid.New()
	set := scenarioSet(tenant)

	r := BuildReport(set, ReportOptions{
		Filter: Filter{Range: DateRange{From: "2024-03-01", To: "2024-03-31"}},
		AsOf:   "2024-04-30",
		AvailableHours: map[uuid.UUID]float64{
			set.Employees[0].ID: 160,
		},
	})

	require.Equal(t, 1000.0, r.Summary.RevenueNet)
	require.Equal(t, 400.0, r.Summary.CostNet)
	require.Equal(t, 200.0, r.Summary.PersonnelCost)
	require.Equal(t, 50.0, r.Summary.ExpenseNoteCost)
	require.Equal(t, 350.0, r.Summary.GrossMargin)
	require.Equal(t, 132.0, r.Summary.VATBalance)
	require.Equal(t, VATPayable, r.VATPosition)

	require.Len(t, r.Monthly, 1)
	require.Equal(t, "2024-03", r.Monthly[0].Month)
	require.Equal(t, 350.0, r.Monthly[0].Margin)

	require.Len(t, r.TopClients, 1)
	require.Equal(t, "Rossi Mario", r.TopClients[0].ClientName)
	require.Equal(t, 1220.0, r.TopClients[0].Outstanding)

	require.Len(t, r.ProjectVariance, 1)
	require.Equal(t, 350.0, r.ProjectVariance[0].VarianceAmount)
	require.Equal(t, 1220.0, r.Receivables.TotalOpen)
	require.True(t, r.WorkingCapital.RatioUnbounded)
	require.Equal(t, CapitalHealthy, r.WorkingCapital.Health)

	require.Len(t, r.EmployeeHours, 1)
	require.Equal(t, Optimal, r.Utilization[0].Band)

	require.Equal(t, []AlertSeverity{AlertInfo, AlertSuccess}, severities(r.Alerts))
}

func TestBuildReportIgnoresForeignTenantRows(t *testing.T) {
	tenant := uuid.New()
	set := scenarioSet(tenant)
	foreign := scenarioSet(uuid.New())
	set.Issued = append(set.Issued, foreign.Issued...)

	r := BuildReport(set, ReportOptions{AsOf: "2024-04-30"})
	require.Equal(t, 1000.0, r.Summary.RevenueNet)
}

func TestBuildReportOutsideRange(t *testing.T) {
	set := scenarioSet(uuid.New())
	r := BuildReport(set, ReportOptions{
		Filter: Filter{Range: DateRange{From: "2025-01-01"}},
		AsOf:   "2025-02-01",
	})
	require.Zero(t, r.Summary.RevenueNet)
	require.Empty(t, r.Monthly)
	require.Equal(t, 1220.0, r.Receivables.TotalOpen)
}
