package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/commesse/internal/analytics/svg"
	"github.com/odyssey-erp/commesse/internal/finance"
	"github.com/odyssey-erp/commesse/report"
)

// Renderer converts an HTML document to PDF.
type Renderer interface {
	Render(ctx context.Context, doc report.Document) ([]byte, error)
}

// PDFExporter prints a report through Gotenberg.
type PDFExporter struct {
	Renderer Renderer
	Now      func() time.Time
}

// NewPDFExporter builds an exporter with the wall clock.
func NewPDFExporter(r Renderer) *PDFExporter {
	return &PDFExporter{Renderer: r, Now: time.Now}
}

// Render lays out the report tables and charts and returns the PDF bytes.
func (p *PDFExporter) Render(ctx context.Context, r finance.Report, title string) ([]byte, error) {
	if p == nil || p.Renderer == nil {
		return nil, fmt.Errorf("export: pdf renderer not configured")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return p.Renderer.Render(ctx, report.Document{
		Index:  buildHTML(r, title),
		Footer: footerHTML(now()),
	})
}

const pageStyle = "body{font-family:sans-serif;margin:24px;color:#0f172a;}h1{font-size:20px;}h2{font-size:15px;margin-top:24px;}" +
	"table{width:100%;border-collapse:collapse;margin-bottom:16px;font-size:11px;}th,td{border:1px solid #e2e8f0;padding:5px;text-align:right;}" +
	"th{background:#f1f5f9;}.label{text-align:left;}.alert-error{color:#b91c1c;}.alert-warning{color:#b45309;}figure{margin:0 0 16px;}"

func buildHTML(r finance.Report, title string) string {
	var b strings.Builder
	b.WriteString(`<html><head><meta charset="utf-8"><style>`)
	b.WriteString(pageStyle)
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, "<h1>%s</h1>", templateEscape(title))
	fmt.Fprintf(&b, "<p>Periodo: %s &middot; Situazione al %s</p>", templateEscape(periodLabel(r.Range)), templateEscape(string(r.AsOf)))

	for _, t := range Tables(r) {
		if len(t.Rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "<section><h2>%s</h2>", templateEscape(t.Name))
		if t.Name == "Andamento mensile" {
			writeTrendChart(&b, r.Monthly)
		}
		writeTable(&b, t)
		b.WriteString("</section>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func writeTrendChart(b *strings.Builder, points []finance.MonthlyPoint) {
	labels := make([]string, len(points))
	revenue := make([]float64, len(points))
	costs := make([]float64, len(points))
	for i, p := range points {
		labels[i], revenue[i], costs[i] = p.Month, p.Revenue, p.Costs
	}
	chart, err := svg.Bars([]svg.Series{
		{Name: "Ricavi", Values: revenue, Color: "#1d4ed8"},
		{Name: "Costi", Values: costs, Color: "#dc2626"},
	}, labels, svg.Opts{Title: "Ricavi e costi"})
	if err != nil {
		return
	}
	b.WriteString("<figure>")
	b.WriteString(string(chart))
	b.WriteString("</figure>")
}

func writeTable(b *strings.Builder, t Table) {
	b.WriteString("<table><thead><tr>")
	for _, col := range t.Columns {
		class := ""
		if col.Kind == Text {
			class = ` class="label"`
		}
		fmt.Fprintf(b, "<th%s>%s</th>", class, templateEscape(col.Title))
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range t.Rows {
		b.WriteString("<tr>")
		for i, v := range row {
			kind := kindAt(t.Columns, i)
			class := ""
			if kind == Text {
				class = ` class="label"`
			}
			if t.Name == "Avvisi" && i == 0 {
				class = fmt.Sprintf(` class="label alert-%s"`, templateEscape(formatCell(v, kind, true)))
			}
			fmt.Fprintf(b, "<td%s>%s</td>", class, templateEscape(formatCell(v, kind, true)))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
}

func footerHTML(at time.Time) string {
	return `<html><head><style>body{font-family:sans-serif;font-size:8px;color:#64748b;margin:0 24px;width:100%;}` +
		`.left{float:left;}.right{float:right;}</style></head><body>` +
		`<span class="left">Generato il ` + at.Format("02/01/2006 15:04") + `</span>` +
		`<span class="right">Pagina <span class="pageNumber"></span> di <span class="totalPages"></span></span>` +
		`</body></html>`
}

func periodLabel(r finance.DateRange) string {
	switch {
	case r.From.IsZero() && r.To.IsZero():
		return "tutti i dati"
	case r.From.IsZero():
		return "fino al " + string(r.To)
	case r.To.IsZero():
		return "dal " + string(r.From)
	}
	return string(r.From) + " – " + string(r.To)
}

func templateEscape(v string) string {
	return htmlReplacer.Replace(v)
}

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&#39;",
)
