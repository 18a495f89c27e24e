package svg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var months = []string{"2024-01", "2024-02", "2024-03"}

func TestLineDrawsOnePathPerSeries(t *testing.T) {
	out, err := Line([]Series{
		{Name: "Ricavi", Values: []float64{1000, 1500, 1200}},
		{Name: "Costi", Values: []float64{800, 900, 1300}},
	}, months, Opts{Title: "Andamento"})
	require.NoError(t, err)

	html := string(out)
	require.True(t, strings.HasPrefix(html, "<svg"))
	require.Equal(t, 2, strings.Count(html, "<path"))
	require.Equal(t, 6, strings.Count(html, "<circle"))
	require.Contains(t, html, `aria-labelledby="andamento-line"`)
	require.Contains(t, html, "Ricavi")
}

func TestBarsHandlesNegativeValues(t *testing.T) {
	out, err := Bars([]Series{{Name: "Margine", Values: []float64{200, -100, 0}}}, months, Opts{Title: "Margine"})
	require.NoError(t, err)
	require.Equal(t, 3+1, strings.Count(string(out), "<rect"), "three bars plus the legend swatch")
	require.NotContains(t, string(out), `height="-`)
}

func TestChartsEscapeLabels(t *testing.T) {
	out, err := Bars([]Series{{Name: "<b>", Values: []float64{1}}}, []string{"a&b"}, Opts{})
	require.NoError(t, err)
	require.Contains(t, string(out), "a&amp;b")
	require.NotContains(t, string(out), "<b>")
}

func TestChartInputErrors(t *testing.T) {
	_, err := Line(nil, months, Opts{})
	require.ErrorIs(t, err, errNoSeries)

	_, err = Bars([]Series{{Values: []float64{1}}}, months, Opts{})
	require.ErrorIs(t, err, errLabels)

	_, err = Line([]Series{{Values: []float64{1}}}, []string{"x"}, Opts{Width: 40, Height: 40, Padding: 30})
	require.ErrorIs(t, err, errViewport)
}

func TestFormatTick(t *testing.T) {
	require.Equal(t, "1,5 Mln", formatTick(1_500_000))
	require.Equal(t, "12 mila", formatTick(12_000))
	require.Equal(t, "-250", formatTick(-250))
}
