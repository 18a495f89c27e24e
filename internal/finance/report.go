package finance

import "github.com/google/uuid"

// ReportOptions parameterise BuildReport. AsOf anchors aging, the cash-flow
// windows and overdue checks; it is never read from the clock here.
type ReportOptions struct {
	Filter         Filter                `json:"filter"`
	AsOf           Date                  `json:"as_of"`
	OpeningBalance float64               `json:"opening_balance"`
	CashOnHand     float64               `json:"cash_on_hand"`
	AvailableHours map[uuid.UUID]float64 `json:"available_hours,omitempty"`
	TopN           int                   `json:"top_n,omitempty"`
}

// Report is the full aggregation output for one tenant and filter.
type Report struct {
	TenantID        uuid.UUID         `json:"tenant_id"`
	Range           DateRange         `json:"range"`
	AsOf            Date              `json:"as_of"`
	Summary         Summary           `json:"summary"`
	VATPosition     VATPosition       `json:"vat_position"`
	Breakdown       Breakdown         `json:"breakdown"`
	Receivables     AgingReport       `json:"receivables"`
	Payables        AgingReport       `json:"payables"`
	Monthly         []MonthlyPoint    `json:"monthly"`
	CostByCategory  []CategoryCost    `json:"cost_by_category"`
	ProjectMargins  []ProjectMargin   `json:"project_margins"`
	ProjectVariance []ProjectVariance `json:"project_variance"`
	TopClients      []ClientRevenue   `json:"top_clients"`
	EmployeeHours   []EmployeeHours   `json:"employee_hours"`
	Utilization     []Utilization     `json:"utilization"`
	CashFlow        CashFlowForecast  `json:"cash_flow"`
	WorkingCapital  WorkingCapital    `json:"working_capital"`
	Alerts          []Alert           `json:"alerts"`
}

// BuildReport runs every aggregation over set. Period figures use the full
// filter; open positions (aging, cash flow, working capital) ignore the date
// range and are evaluated as of opts.AsOf.
func BuildReport(set RecordSet, opts ReportOptions) Report {
	set = set.ForTenant(set.TenantID)
	period := set.Apply(opts.Filter)
	dims := opts.Filter
	dims.Range = DateRange{}
	positions := set.Apply(dims)

	r := Report{
		TenantID: set.TenantID,
		Range:    opts.Filter.Range,
		AsOf:     opts.AsOf,
	}
	r.Summary = SummaryOf(period)
	r.VATPosition = r.Summary.VATPosition()
	r.Breakdown = ComputeInvoiceBreakdown(period.Issued, period.Received)
	r.Receivables = ComputeAging(positions.Issued, set.Clients, opts.AsOf, opts.TopN)
	r.Payables = ComputePayablesAging(positions.Received, opts.AsOf)
	r.Monthly = MonthlySeries(period)
	r.CostByCategory = CostByCategory(period)

	actuals := ProjectCosts(period)
	r.ProjectMargins = ComputeProjectMargins(period, actuals)
	r.ProjectVariance = ComputeProjectVariance(BudgetsOf(period, actuals))
	r.TopClients = TopClients(period.Issued, set.Clients, opts.TopN)
	r.EmployeeHours = HoursByEmployee(period.TimeEntries, set.Employees)
	r.Utilization = UtilizationOf(r.EmployeeHours, opts.AvailableHours)

	inflow, outflow := ProjectCashFlow(positions.Issued, positions.Received, opts.AsOf)
	r.CashFlow = ComputeCashFlowForecast(opts.OpeningBalance, inflow, outflow)
	r.WorkingCapital = ComputeWorkingCapital(WorkingCapitalInput{
		Receivables: r.Receivables.TotalOpen,
		CashOnHand:  opts.CashOnHand,
		Payables:    r.Payables.TotalOpen,
		DSO:         r.Receivables.DaysOutstanding,
		DPO:         r.Payables.DaysOutstanding,
	})

	r.Alerts = DeriveAlerts(AlertInput{
		Summary:        r.Summary,
		Aging:          r.Receivables,
		Utilization:    r.Utilization,
		Variance:       r.ProjectVariance,
		CashFlow:       &r.CashFlow,
		WorkingCapital: &r.WorkingCapital,
	})
	return r
}
