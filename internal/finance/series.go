package finance

import (
	"sort"

	"github.com/google/uuid"
)

// Cost categories used when the source row carries none.
const (
	CategorySuppliers = "Fornitori"
	CategoryPayroll   = "Personale"
	CategoryF24       = "F24"
	CategoryExpenses  = "Note spese"
)

// MonthlyPoint is one month of the revenue trend.
type MonthlyPoint struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Costs   float64 `json:"costs"`
	Margin  float64 `json:"margin"`
}

// CategoryCost is the total cost booked under one category.
type CategoryCost struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Share    float64 `json:"share"`
}

// ClientRevenue ranks clients by invoiced revenue.
type ClientRevenue struct {
	ClientID     uuid.UUID `json:"client_id"`
	ClientName   string    `json:"client_name"`
	Revenue      float64   `json:"revenue"`
	InvoiceCount int       `json:"invoice_count"`
	Outstanding  float64   `json:"outstanding"`
}

func monthOf(d Date) string {
	if len(d) < 7 {
		return ""
	}
	return string(d[:7])
}

// MonthlySeries buckets revenue and costs by calendar month, oldest first.
func MonthlySeries(set RecordSet) []MonthlyPoint {
	points := make(map[string]*MonthlyPoint)
	at := func(month string) *MonthlyPoint {
		if month == "" {
			return nil
		}
		p := points[month]
		if p == nil {
			p = &MonthlyPoint{Month: month}
			points[month] = p
		}
		return p
	}
	for _, inv := range set.Issued {
		if p := at(monthOf(inv.IssueDate)); p != nil {
			p.Revenue += val(inv.NetAmount)
		}
	}
	for _, inv := range set.Received {
		if p := at(monthOf(inv.IssueDate)); p != nil {
			p.Costs += val(inv.NetAmount)
		}
	}
	for _, a := range set.Payroll {
		if p := at(monthOf(AllocationDate(a.Year, a.Month))); p != nil {
			p.Costs += val(a.AllocatedAmount)
		}
	}
	for _, a := range set.TaxFilings {
		if p := at(monthOf(AllocationDate(a.Year, a.Month))); p != nil {
			p.Costs += val(a.AllocatedAmount)
		}
	}
	for _, n := range set.ExpenseNotes {
		if !n.Status.CountsAsCost() {
			continue
		}
		if p := at(monthOf(n.NoteDate)); p != nil {
			p.Costs += val(n.Amount)
		}
	}
	out := make([]MonthlyPoint, 0, len(points))
	for _, p := range points {
		p.Revenue = round2(p.Revenue)
		p.Costs = round2(p.Costs)
		p.Margin = round2(p.Revenue - p.Costs)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CostByCategory splits total cost across categories, largest first. Received
// invoices and expense notes use their own category when set.
func CostByCategory(set RecordSet) []CategoryCost {
	totals := make(map[string]float64)
	for _, inv := range set.Received {
		totals[categoryOr(inv.Category, CategorySuppliers)] += val(inv.NetAmount)
	}
	for _, a := range set.Payroll {
		totals[CategoryPayroll] += val(a.AllocatedAmount)
	}
	for _, a := range set.TaxFilings {
		totals[CategoryF24] += val(a.AllocatedAmount)
	}
	for _, n := range set.ExpenseNotes {
		if n.Status.CountsAsCost() {
			totals[categoryOr(n.Category, CategoryExpenses)] += val(n.Amount)
		}
	}
	var grand float64
	for _, v := range totals {
		grand += v
	}
	out := make([]CategoryCost, 0, len(totals))
	for category, amount := range totals {
		if amount == 0 {
			continue
		}
		out = append(out, CategoryCost{
			Category: category,
			Amount:   round2(amount),
			Share:    percentOf(amount, grand),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func categoryOr(category, fallback string) string {
	if category == "" {
		return fallback
	}
	return category
}

// TopClients ranks clients by issued net revenue, capped to topN (default 5).
func TopClients(issued []IssuedInvoice, clients []Party, topN int) []ClientRevenue {
	if topN <= 0 {
		topN = defaultTopN
	}
	names := make(map[uuid.UUID]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.DisplayName()
	}
	rows := make(map[uuid.UUID]*ClientRevenue)
	for _, inv := range issued {
		row := rows[inv.ClientID]
		if row == nil {
			row = &ClientRevenue{ClientID: inv.ClientID, ClientName: names[inv.ClientID]}
			rows[inv.ClientID] = row
		}
		row.Revenue += val(inv.NetAmount)
		row.InvoiceCount++
		if inv.PaymentStatus == IssuedAwaitingCollection {
			row.Outstanding += val(inv.TotalAmount)
		}
	}
	out := make([]ClientRevenue, 0, len(rows))
	for _, row := range rows {
		row.Revenue = round2(row.Revenue)
		row.Outstanding = round2(row.Outstanding)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		if out[i].ClientName != out[j].ClientName {
			return out[i].ClientName < out[j].ClientName
		}
		return out[i].ClientID.String() < out[j].ClientID.String()
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
