package finance

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// variance thresholds in percent of budget.
const varianceTolerancePct = 5

// VarianceStatus classifies a project's budget position.
type VarianceStatus string

const (
	OverBudget  VarianceStatus = "over_budget"
	UnderBudget VarianceStatus = "under_budget"
	OnBudget    VarianceStatus = "on_budget"
)

// ProjectActuals are the revenue and cost attributed to one project.
type ProjectActuals struct {
	ProjectID uuid.UUID `json:"project_id"`
	Revenue   float64   `json:"revenue"`
	Cost      float64   `json:"cost"`
}

// ProjectBudget pairs a project's budget with its actual cost.
type ProjectBudget struct {
	ProjectID  uuid.UUID `json:"project_id"`
	Title      string    `json:"title"`
	Budget     float64   `json:"budget"`
	ActualCost float64   `json:"actual_cost"`
}

// ProjectVariance is a budget vs actual comparison.
type ProjectVariance struct {
	ProjectID          uuid.UUID      `json:"project_id"`
	Title              string         `json:"title"`
	Budget             float64        `json:"budget"`
	ActualCost         float64        `json:"actual_cost"`
	VarianceAmount     float64        `json:"variance_amount"`
	VariancePercentage float64        `json:"variance_percentage"`
	Status             VarianceStatus `json:"status"`
}

// ProjectMargin is the profitability of one project.
type ProjectMargin struct {
	ProjectID        uuid.UUID `json:"project_id"`
	Title            string    `json:"title"`
	Revenue          float64   `json:"revenue"`
	Cost             float64   `json:"cost"`
	Margin           float64   `json:"margin"`
	MarginPercentage float64   `json:"margin_percentage"`
}

// percentOf returns part/whole*100, or 0 when whole is zero.
func percentOf(part, whole float64) float64 {
	return round2(rawPercent(part, whole))
}

// rawPercent is percentOf before rounding; thresholds compare against it.
func rawPercent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	pct := part / whole * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return pct
}

// ProjectCosts joins invoices, allocations and expense notes onto projects.
// Cost includes received net, payroll, F24, counted expense notes and the
// project's own materials cost.
func ProjectCosts(set RecordSet) map[uuid.UUID]ProjectActuals {
	out := make(map[uuid.UUID]ProjectActuals, len(set.Projects))
	add := func(id uuid.UUID, revenue, cost float64) {
		a := out[id]
		a.ProjectID = id
		a.Revenue += revenue
		a.Cost += cost
		out[id] = a
	}
	for _, p := range set.Projects {
		add(p.ID, 0, val(p.MaterialsCost))
	}
	for _, inv := range set.Issued {
		if inv.ProjectID != nil {
			add(*inv.ProjectID, val(inv.NetAmount), 0)
		}
	}
	for _, inv := range set.Received {
		if inv.ProjectID != nil {
			add(*inv.ProjectID, 0, val(inv.NetAmount))
		}
	}
	for _, a := range set.Payroll {
		add(a.ProjectID, 0, val(a.AllocatedAmount))
	}
	for _, a := range set.TaxFilings {
		add(a.ProjectID, 0, val(a.AllocatedAmount))
	}
	for _, n := range set.ExpenseNotes {
		if n.ProjectID != nil && n.Status.CountsAsCost() {
			add(*n.ProjectID, 0, val(n.Amount))
		}
	}
	return out
}

// ClassifyVariance maps a variance percentage onto a status.
func ClassifyVariance(pct float64) VarianceStatus {
	switch {
	case pct < -varianceTolerancePct:
		return OverBudget
	case pct > varianceTolerancePct:
		return UnderBudget
	default:
		return OnBudget
	}
}

// ComputeProjectVariance compares budget with actual cost per project.
func ComputeProjectVariance(projects []ProjectBudget) []ProjectVariance {
	rows := make([]ProjectVariance, 0, len(projects))
	for _, p := range projects {
		variance := p.Budget - p.ActualCost
		pct := rawPercent(variance, p.Budget)
		rows = append(rows, ProjectVariance{
			ProjectID:          p.ProjectID,
			Title:              p.Title,
			Budget:             round2(p.Budget),
			ActualCost:         round2(p.ActualCost),
			VarianceAmount:     round2(variance),
			VariancePercentage: round2(pct),
			Status:             ClassifyVariance(pct),
		})
	}
	return rows
}

// BudgetsOf lists projects carrying a budget with their actual cost.
func BudgetsOf(set RecordSet, actuals map[uuid.UUID]ProjectActuals) []ProjectBudget {
	out := make([]ProjectBudget, 0, len(set.Projects))
	for _, p := range set.Projects {
		if p.Budget == nil {
			continue
		}
		out = append(out, ProjectBudget{
			ProjectID:  p.ID,
			Title:      p.Title,
			Budget:     *p.Budget,
			ActualCost: actuals[p.ID].Cost,
		})
	}
	return out
}

// ComputeProjectMargins derives margin and margin percentage per project,
// sorted by margin descending.
func ComputeProjectMargins(set RecordSet, actuals map[uuid.UUID]ProjectActuals) []ProjectMargin {
	rows := make([]ProjectMargin, 0, len(set.Projects))
	for _, p := range set.Projects {
		a := actuals[p.ID]
		margin := round2(a.Revenue - a.Cost)
		rows = append(rows, ProjectMargin{
			ProjectID:        p.ID,
			Title:            p.Title,
			Revenue:          round2(a.Revenue),
			Cost:             round2(a.Cost),
			Margin:           margin,
			MarginPercentage: percentOf(margin, a.Revenue),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Margin != rows[j].Margin {
			return rows[i].Margin > rows[j].Margin
		}
		return rows[i].Title < rows[j].Title
	})
	return rows
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
