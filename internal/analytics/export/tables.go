// Package export turns an analytics report into tabular and printable
// documents.
package export

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/commesse/internal/finance"
)

// Kind tells writers how to format a column.
type Kind int

const (
	Text Kind = iota
	Currency
	Number
	Percent
)

// Column is a table header cell.
type Column struct {
	Title string
	Kind  Kind
}

// Table is one export section. Cell values are string, float64 or int,
// matching the column kind.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Tables flattens a report into its export sections.
func Tables(r finance.Report) []Table {
	return []Table{
		kpiTable(r),
		monthlyTable(r.Monthly),
		categoryTable(r.CostByCategory),
		marginTable(r.ProjectMargins),
		clientTable(r.TopClients),
		hoursTable(r.EmployeeHours),
		alertTable(r.Alerts),
	}
}

func kpiTable(r finance.Report) Table {
	s := r.Summary
	wc := r.WorkingCapital
	t := Table{
		Name:    "Indicatori",
		Columns: []Column{{Title: "Indicatore"}, {Title: "Valore", Kind: Currency}},
	}
	add := func(label string, v float64) { t.Rows = append(t.Rows, []any{label, v}) }
	add("Ricavi netti", s.RevenueNet)
	add("Costi fornitori", s.CostNet)
	add("Costo del personale", s.PersonnelCost)
	add("Note spese", s.ExpenseNoteCost)
	add("Costi totali", s.TotalCost)
	add("Margine lordo", s.GrossMargin)
	add("Saldo IVA", s.VATBalance)
	add("Crediti aperti", r.Receivables.TotalOpen)
	add("Crediti scaduti", r.Receivables.OverdueAmount)
	add("Debiti aperti", r.Payables.TotalOpen)
	add("Capitale circolante netto", wc.NetWorkingCapital)
	t.Rows = append(t.Rows,
		[]any{"Periodo", periodLabel(r.Range)},
		[]any{"Situazione al", string(r.AsOf)},
	)
	return t
}

func monthlyTable(points []finance.MonthlyPoint) Table {
	t := Table{
		Name: "Andamento mensile",
		Columns: []Column{
			{Title: "Mese"},
			{Title: "Ricavi", Kind: Currency},
			{Title: "Costi", Kind: Currency},
			{Title: "Margine", Kind: Currency},
		},
	}
	for _, p := range points {
		t.Rows = append(t.Rows, []any{p.Month, p.Revenue, p.Costs, p.Margin})
	}
	return t
}

func categoryTable(costs []finance.CategoryCost) Table {
	t := Table{
		Name: "Costi per categoria",
		Columns: []Column{
			{Title: "Categoria"},
			{Title: "Importo", Kind: Currency},
			{Title: "Quota %", Kind: Percent},
		},
	}
	for _, c := range costs {
		t.Rows = append(t.Rows, []any{c.Category, c.Amount, c.Share})
	}
	return t
}

func marginTable(margins []finance.ProjectMargin) Table {
	t := Table{
		Name: "Margini commesse",
		Columns: []Column{
			{Title: "Commessa"},
			{Title: "Ricavi", Kind: Currency},
			{Title: "Costi", Kind: Currency},
			{Title: "Margine", Kind: Currency},
			{Title: "Margine %", Kind: Percent},
		},
	}
	for _, m := range margins {
		t.Rows = append(t.Rows, []any{m.Title, m.Revenue, m.Cost, m.Margin, m.MarginPercentage})
	}
	return t
}

func clientTable(clients []finance.ClientRevenue) Table {
	t := Table{
		Name: "Clienti principali",
		Columns: []Column{
			{Title: "Cliente"},
			{Title: "Fatturato", Kind: Currency},
			{Title: "Fatture", Kind: Number},
			{Title: "Da incassare", Kind: Currency},
		},
	}
	for _, c := range clients {
		t.Rows = append(t.Rows, []any{c.ClientName, c.Revenue, c.InvoiceCount, c.Outstanding})
	}
	return t
}

func hoursTable(hours []finance.EmployeeHours) Table {
	t := Table{
		Name: "Ore per dipendente",
		Columns: []Column{
			{Title: "Dipendente"},
			{Title: "Ore", Kind: Number},
			{Title: "Commesse", Kind: Number},
		},
	}
	for _, h := range hours {
		t.Rows = append(t.Rows, []any{h.EmployeeName, h.Hours, h.Projects})
	}
	return t
}

func alertTable(alerts []finance.Alert) Table {
	t := Table{
		Name:    "Avvisi",
		Columns: []Column{{Title: "Livello"}, {Title: "Titolo"}, {Title: "Dettaglio"}},
	}
	for _, a := range alerts {
		t.Rows = append(t.Rows, []any{string(a.Severity), a.Title, a.Message})
	}
	return t
}

var itPrinter = message.NewPrinter(language.Italian)

// FormatEuro renders an amount for print, e.g. "€ 1.234,50".
func FormatEuro(v float64) string {
	return itPrinter.Sprintf("€ %.2f", v)
}

// formatCell renders a value as plain text. Currency stays machine readable
// unless pretty is set.
func formatCell(v any, kind Kind, pretty bool) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		switch {
		case pretty && kind == Currency:
			return FormatEuro(x)
		case pretty && kind == Percent:
			return itPrinter.Sprintf("%.1f%%", x)
		case pretty:
			return itPrinter.Sprintf("%.2f", x)
		}
		return strconv.FormatFloat(x, 'f', 2, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
