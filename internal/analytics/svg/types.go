// Package svg renders the small inline charts embedded in printed reports.
package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Defaults for report charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 36.0
	DefaultTicks   = 5
)

// Palette used when a series carries no colour.
var palette = []string{"#1d4ed8", "#dc2626", "#059669", "#d97706"}

var (
	errNoSeries = errors.New("svg: at least one series required")
	errLabels   = errors.New("svg: series length must match labels")
	errViewport = errors.New("svg: viewport too small")
)

// Series is one named run of values.
type Series struct {
	Name   string
	Values []float64
	Color  string
}

// Opts customises a chart.
type Opts struct {
	Title     string
	Width     int
	Height    int
	Padding   float64
	TickCount int
	AxisColor string
	GridColor string
}

// plot is the shared geometry of a chart: a value axis that always includes
// zero and an evenly divided category axis.
type plot struct {
	width, height int
	pad           float64
	w, h          float64
	min, max      float64
	ticks         int
	axis, grid    string
}

func newPlot(series []Series, labels []string, opts Opts) (*plot, error) {
	if len(series) == 0 {
		return nil, errNoSeries
	}
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return nil, errLabels
		}
	}
	p := &plot{
		width:  opts.Width,
		height: opts.Height,
		pad:    opts.Padding,
		ticks:  opts.TickCount,
		axis:   fallback(opts.AxisColor, "#475569"),
		grid:   fallback(opts.GridColor, "#cbd5e1"),
	}
	if p.width <= 0 {
		p.width = DefaultWidth
	}
	if p.height <= 0 {
		p.height = DefaultHeight
	}
	if p.pad <= 0 {
		p.pad = DefaultPadding
	}
	if p.ticks <= 0 {
		p.ticks = DefaultTicks
	}
	p.w = float64(p.width) - 2*p.pad
	p.h = float64(p.height) - 2*p.pad
	if p.w <= 0 || p.h <= 0 {
		return nil, errViewport
	}
	for _, s := range series {
		for _, v := range s.Values {
			p.min = math.Min(p.min, v)
			p.max = math.Max(p.max, v)
		}
	}
	if p.max-p.min < 1e-9 {
		p.max = p.min + 1
	}
	return p, nil
}

// y maps a value onto the vertical pixel axis.
func (p *plot) y(v float64) float64 {
	return p.pad + p.h - (v-p.min)*p.h/(p.max-p.min)
}

func (p *plot) open(b *strings.Builder, title, kind string) {
	id := makeID(title, kind)
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s">`, p.width, p.height, id)
	fmt.Fprintf(b, `<title id="%s">%s</title>`, id, template.HTMLEscapeString(fallback(title, "Grafico")))
	for i := 0; i <= p.ticks; i++ {
		v := p.min + (p.max-p.min)*float64(i)/float64(p.ticks)
		y := p.y(v)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4"></line>`, p.pad, y, p.pad+p.w, y, p.grid)
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="end">%s</text>`, p.pad-6, y+4, p.axis, formatTick(v))
	}
	fmt.Fprintf(b, `<g stroke="%s" stroke-width="1">`, p.axis)
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"></line>`, p.pad, p.pad, p.pad, p.pad+p.h)
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"></line>`, p.pad, p.y(0), p.pad+p.w, p.y(0))
	b.WriteString(`</g>`)
}

func (p *plot) label(b *strings.Builder, x float64, text string) {
	fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="middle">%s</text>`, x, p.pad+p.h+14, p.axis, template.HTMLEscapeString(text))
}

func (p *plot) legend(b *strings.Builder, series []Series) {
	x := p.pad
	for i, s := range series {
		fmt.Fprintf(b, `<rect x="%.2f" y="%.2f" width="10" height="10" fill="%s"></rect>`, x, p.pad-22, colorOf(s, i))
		fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10">%s</text>`, x+14, p.pad-13, p.axis, template.HTMLEscapeString(s.Name))
		x += 100
	}
}

func colorOf(s Series, i int) string {
	return fallback(s.Color, palette[i%len(palette)])
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

var tickPrinter = message.NewPrinter(language.Italian)

// formatTick abbreviates axis values the Italian way: 1,5 Mln, 12 mila.
func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return tickPrinter.Sprintf("%.1f Mln", v/1_000_000)
	case abs >= 1_000:
		return tickPrinter.Sprintf("%.0f mila", v/1_000)
	default:
		return tickPrinter.Sprintf("%.0f", v)
	}
}
