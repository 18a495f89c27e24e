package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders one polyline per series over shared labels.
func Line(series []Series, labels []string, opts Opts) (template.HTML, error) {
	p, err := newPlot(series, labels, opts)
	if err != nil {
		return "", err
	}
	x := func(i int) float64 {
		if len(labels) == 1 {
			return p.pad + p.w/2
		}
		return p.pad + float64(i)*p.w/float64(len(labels)-1)
	}

	var b strings.Builder
	p.open(&b, opts.Title, "line")
	for i, s := range series {
		color := colorOf(s, i)
		var path strings.Builder
		for j, v := range s.Values {
			cmd := "L"
			if j == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&path, "%s%.2f %.2f ", cmd, x(j), p.y(v))
		}
		fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round"></path>`, strings.TrimSpace(path.String()), color)
		for j, v := range s.Values {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="2.5" fill="%s"></circle>`, x(j), p.y(v), color)
		}
	}
	for i, l := range labels {
		p.label(&b, x(i), l)
	}
	p.legend(&b, series)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
