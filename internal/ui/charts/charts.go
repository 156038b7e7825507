// Package charts renders the dashboard's plotted figures as inline SVG.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"slices"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ecom-dashboard/internal/models"
)

// ErrNoData is returned for an empty series; callers show a placeholder.
var ErrNoData = errors.New("no data to plot")

var (
	accent = drawing.ColorFromHex("2A9D8F")
	muted  = drawing.ColorFromHex("264653")

	blueLight = drawing.ColorFromHex("C6DBEF")
	blueDark  = drawing.ColorFromHex("08306B")
)

const (
	height     = 360
	minWidth   = 640
	barSpacing = 44
)

// CountryBar plots total quantity per country in the order given.
func CountryBar(data []models.CountryQuantity) (string, error) {
	if len(data) == 0 {
		return "", ErrNoData
	}

	values := make([]float64, len(data))
	for i, d := range data {
		values[i] = float64(d.Quantity)
	}
	lo, hi := valueRange(values, true)

	bars := make([]chart.Value, len(data))
	for i, d := range data {
		col := Blend(blueLight, blueDark, (values[i]-lo)/(hi-lo))
		// The SVG renderer writes text nodes verbatim.
		bars[i] = chart.Value{
			Label: html.EscapeString(d.Country),
			Value: values[i],
			Style: chart.Style{FillColor: col, StrokeColor: col, StrokeWidth: 1},
		}
	}

	bc := chart.BarChart{
		Title:  "Quantity Sold by Country",
		Width:  max(minWidth, len(bars)*barSpacing+120),
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 90},
		},
		BarWidth:   barSpacing - 14,
		BarSpacing: 14,
		XAxis: chart.Style{
			TextRotationDegrees: 45,
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: intFormatter,
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("render country chart: %w", err)
	}
	return buf.String(), nil
}

// DailyLine plots quantity per day as a line with point markers.
func DailyLine(data []models.DailyQuantity) (string, error) {
	if len(data) == 0 {
		return "", ErrNoData
	}

	xs := make([]time.Time, len(data))
	ys := make([]float64, len(data))
	for i, d := range data {
		xs[i] = d.Date
		ys[i] = float64(d.Quantity)
	}

	style := chart.Style{
		StrokeColor: accent,
		StrokeWidth: 2,
		DotColor:    muted,
		DotWidth:    3,
	}
	// go-chart needs at least two x values
	if len(xs) == 1 {
		xs = append(xs, xs[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
		style.DotWidth = 5
	}

	lo, hi := valueRange(ys, false)
	ch := chart.Chart{
		Title:  "Sales Trend",
		Width:  max(minWidth, min(len(xs)*8, 1400)),
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Quantity",
			Range:          &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: intFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Quantity", XValues: xs, YValues: ys, Style: style},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("render daily chart: %w", err)
	}
	return buf.String(), nil
}

// valueRange returns a non-degenerate axis range covering values. With withZero
// the range always includes the baseline.
func valueRange(values []float64, withZero bool) (float64, float64) {
	lo, hi := slices.Min(values), slices.Max(values)
	if withZero {
		lo, hi = min(lo, 0), max(hi, 0)
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	if withZero && lo == 0 {
		return 0, hi + pad
	}
	return lo - pad, hi + pad
}

// Blend mixes a toward b by t, clamped to [0, 1].
func Blend(a, b drawing.Color, t float64) drawing.Color {
	t = max(0, min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func intFormatter(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprint(v)
}
