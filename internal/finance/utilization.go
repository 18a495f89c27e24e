package finance

import (
	"sort"

	"github.com/google/uuid"
)

// UtilizationBand classifies workload against capacity.
type UtilizationBand string

const (
	Overutilized  UtilizationBand = "overutilized"
	NearCapacity  UtilizationBand = "near_capacity"
	Optimal       UtilizationBand = "optimal"
	Underutilized UtilizationBand = "underutilized"
	NoCapacity    UtilizationBand = "no_capacity_data"
)

// Utilization is an employee's worked hours over available hours.
type Utilization struct {
	EmployeeID     uuid.UUID       `json:"employee_id"`
	EmployeeName   string          `json:"employee_name,omitempty"`
	WorkedHours    float64         `json:"worked_hours"`
	AvailableHours float64         `json:"available_hours"`
	Percentage     float64         `json:"percentage"`
	Band           UtilizationBand `json:"band"`
	NoCapacityData bool            `json:"no_capacity_data"`
}

// ComputeUtilization derives the utilization percentage and its band. Zero
// available hours yield 0% flagged as missing capacity data.
func ComputeUtilization(employeeID uuid.UUID, worked, available float64) Utilization {
	u := Utilization{EmployeeID: employeeID, WorkedHours: worked, AvailableHours: available}
	if available == 0 {
		u.Band = NoCapacity
		u.NoCapacityData = true
		return u
	}
	pct := rawPercent(worked, available)
	u.Percentage = round2(pct)
	u.Band = ClassifyUtilization(pct)
	return u
}

// ClassifyUtilization maps a percentage onto its band.
func ClassifyUtilization(pct float64) UtilizationBand {
	switch {
	case pct > 100:
		return Overutilized
	case pct >= 85:
		return NearCapacity
	case pct >= 70:
		return Optimal
	default:
		return Underutilized
	}
}

// EmployeeHours is the total logged by one employee.
type EmployeeHours struct {
	EmployeeID   uuid.UUID `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	Hours        float64   `json:"hours"`
	Projects     int       `json:"projects"`
}

// HoursByEmployee totals time entries per employee, sorted by hours descending.
func HoursByEmployee(entries []TimeEntry, employees []Employee) []EmployeeHours {
	names := make(map[uuid.UUID]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.DisplayName()
	}
	totals := make(map[uuid.UUID]*EmployeeHours)
	projects := make(map[uuid.UUID]map[uuid.UUID]struct{})
	for _, t := range entries {
		row := totals[t.EmployeeID]
		if row == nil {
			row = &EmployeeHours{EmployeeID: t.EmployeeID, EmployeeName: names[t.EmployeeID]}
			totals[t.EmployeeID] = row
			projects[t.EmployeeID] = make(map[uuid.UUID]struct{})
		}
		row.Hours += val(t.Hours)
		projects[t.EmployeeID][t.ProjectID] = struct{}{}
	}
	out := make([]EmployeeHours, 0, len(totals))
	for id, row := range totals {
		row.Hours = round2(row.Hours)
		row.Projects = len(projects[id])
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hours != out[j].Hours {
			return out[i].Hours > out[j].Hours
		}
		return out[i].EmployeeName < out[j].EmployeeName
	})
	return out
}

// UtilizationOf computes utilization for every employee with logged hours or
// declared capacity.
func UtilizationOf(hours []EmployeeHours, available map[uuid.UUID]float64) []Utilization {
	out := make([]Utilization, 0, len(hours))
	seen := make(map[uuid.UUID]bool, len(hours))
	for _, h := range hours {
		u := ComputeUtilization(h.EmployeeID, h.Hours, available[h.EmployeeID])
		u.EmployeeName = h.EmployeeName
		out = append(out, u)
		seen[h.EmployeeID] = true
	}
	idle := make([]uuid.UUID, 0)
	for id := range available {
		if !seen[id] {
			idle = append(idle, id)
		}
	}
	sort.Slice(idle, func(i, j int) bool { return idle[i].String() < idle[j].String() })
	for _, id := range idle {
		out = append(out, ComputeUtilization(id, 0, available[id]))
	}
	return out
}

// CapacityForRange scales weekly contracted hours to the reporting window.
// Open bounds fall back to the earliest time entry and asOf.
func CapacityForRange(weekly map[uuid.UUID]float64, r DateRange, asOf Date, entries []TimeEntry) map[uuid.UUID]float64 {
	from, to := r.From, r.To
	if from.IsZero() {
		from = asOf
		for _, t := range entries {
			if !t.WorkDate.IsZero() && t.WorkDate < from {
				from = t.WorkDate
			}
		}
	}
	if to.IsZero() {
		to = asOf
	}
	days, ok := DaysBetween(from, to)
	if !ok || days < 0 {
		return map[uuid.UUID]float64{}
	}
	weeks := float64(days+1) / 7
	out := make(map[uuid.UUID]float64, len(weekly))
	for id, hours := range weekly {
		if hours > 0 {
			out[id] = round2(hours * weeks)
		}
	}
	return out
}
