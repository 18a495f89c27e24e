package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders grouped bars, one group per label and one bar per series.
// Negative values hang below the zero line.
func Bars(series []Series, labels []string, opts Opts) (template.HTML, error) {
	p, err := newPlot(series, labels, opts)
	if err != nil {
		return "", err
	}
	group := p.w / float64(max(len(labels), 1))
	bar := group * 0.8 / float64(len(series))
	zero := p.y(0)

	var b strings.Builder
	p.open(&b, opts.Title, "bar")
	for i, l := range labels {
		left := p.pad + float64(i)*group + group*0.1
		for j, s := range series {
			top := p.y(s.Values[i])
			fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"><title>%s</title></rect>`,
				left+float64(j)*bar, math.Min(top, zero), bar, math.Abs(zero-top), colorOf(s, j),
				template.HTMLEscapeString(s.Name+" "+l))
		}
		p.label(&b, left+group*0.4, l)
	}
	p.legend(&b, series)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
