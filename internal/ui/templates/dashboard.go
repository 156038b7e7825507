// Package templates renders the dashboard page and the fragments patched into it
// over server-sent events.
package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/a-h/templ"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ecom-dashboard/internal/export"
	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/ui/charts"
)

// Element ids patched by the dashboard stream.
const (
	IDErrorBanner  = "error-banner"
	IDRowCount     = "row-count"
	IDPreview      = "preview"
	IDDownloads    = "downloads"
	IDCountryChart = "chart-country"
	IDProductChart = "chart-products"
	IDDailyChart   = "chart-daily"
	IDCorrelation  = "chart-correlation"
)

// StreamPath is the endpoint the filter widgets call on change.
const StreamPath = "/sse/dashboard"

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

type PageData struct {
	KPIs     models.KPIs
	Options  services.FilterOptions
	Snapshot *services.Snapshot
}

// Signals is the client state sent with every stream request.
type Signals struct {
	Countries []string `json:"countries"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
}

// markup is template source written as is. Only constants convert to it
// implicitly, so runtime strings have to go through text, rawf or templ.Raw.
type markup string

// html accumulates the first write error so templates read straight through.
type html struct {
	w   io.Writer
	err error
}

func (h *html) write(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) raw(s markup) {
	h.write(string(s))
}

func (h *html) text(s string) {
	h.write(templ.EscapeString(s))
}

// rawf formats into markup, escaping every string argument.
func (h *html) rawf(format markup, args ...any) {
	for i, arg := range args {
		if s, ok := arg.(string); ok {
			args[i] = templ.EscapeString(s)
		}
	}
	h.write(fmt.Sprintf(string(format), args...))
}

func (h *html) component(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

// Dashboard is the full page.
func Dashboard(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}

		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>E-Commerce Sales Dashboard</title>`)
		h.rawf(`<script type="module" src="%s"></script>`, datastarScript)
		h.raw(`<style>` + stylesheet + `</style></head><body>`)

		h.raw(`<header><h1>📊 E-Commerce Sales Dashboard</h1></header>`)
		h.raw(`<div class="layout">`)
		h.component(ctx, filters(data.Options))
		h.raw(`<main>`)

		h.raw(`<section><h3>Key Metrics</h3>`)
		h.component(ctx, KPICards(data.KPIs))
		h.raw(`</section>`)

		h.component(ctx, ErrorBanner(""))

		snap := data.Snapshot
		if snap == nil {
			snap = &services.Snapshot{}
		}

		h.raw(`<section><h3>Filtered Data Preview</h3>`)
		h.component(ctx, RowCount(snap.Rows))
		h.component(ctx, Preview(snap.Preview))
		h.component(ctx, Downloads(FilterQuery(snap.Filter)))
		h.raw(`</section>`)

		h.raw(`<section><h3>Visual Analytics</h3><div class="grid">`)
		h.component(ctx, CountryChart(snap.ByCountry))
		h.component(ctx, ProductChart(snap.TopProducts))
		h.raw(`</div>`)
		h.component(ctx, DailyChart(snap.Daily))
		h.component(ctx, CorrelationHeatmap(snap.Correlation))
		h.raw(`</section>`)

		h.raw(`</main></div></body></html>`)
		return h.err
	})
}

// Fragments are the parts of the page that change with the filter, in patch order.
func Fragments(snap *services.Snapshot) []templ.Component {
	return []templ.Component{
		ErrorBanner(""),
		RowCount(snap.Rows),
		Preview(snap.Preview),
		Downloads(FilterQuery(snap.Filter)),
		CountryChart(snap.ByCountry),
		ProductChart(snap.TopProducts),
		DailyChart(snap.Daily),
		CorrelationHeatmap(snap.Correlation),
	}
}

func filters(opts services.FilterOptions) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}

		signals := Signals{Countries: []string{}}
		if opts.HasDates {
			signals.Start = opts.MinDate.Format(dateLayout)
			signals.End = opts.MaxDate.Format(dateLayout)
		}
		encoded, err := json.Marshal(signals)
		if err != nil {
			return err
		}

		onChange := fmt.Sprintf("@get('%s')", StreamPath)

		h.raw(`<aside id="filters" data-signals="`)
		h.text(string(encoded))
		h.raw(`"><h2>Filter Data</h2><p>Apply filters to customize the data view.</p>`)

		h.raw(`<label for="countries">🌍 Select Countries:</label>`)
		h.raw(`<select id="countries" multiple size="10" data-bind:countries data-on:change="`)
		h.text(onChange)
		h.raw(`">`)
		countries := slices.Clone(opts.Countries)
		slices.Sort(countries)
		for _, c := range countries {
			h.raw(`<option value="`)
			h.text(c)
			h.raw(`">`)
			h.text(c)
			h.raw(`</option>`)
		}
		h.raw(`</select><p class="hint">No selection shows every country.</p>`)

		h.raw(`<label>📅 Date Range:</label><div class="dates">`)
		for _, name := range []string{"start", "end"} {
			h.rawf(`<input type="date" name="%s" data-bind:%s`, name, name)
			if opts.HasDates {
				h.rawf(` min="%s" max="%s"`, opts.MinDate.Format(dateLayout), opts.MaxDate.Format(dateLayout))
			}
			h.raw(` data-on:change="`)
			h.text(onChange)
			h.raw(`">`)
		}
		h.raw(`</div></aside>`)
		return h.err
	})
}

func KPICards(kpis models.KPIs) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		card := func(label, value string) {
			h.raw(`<div class="kpi"><span class="label">`)
			h.text(label)
			h.raw(`</span><span class="value">`)
			h.text(value)
			h.raw(`</span></div>`)
		}
		h.raw(`<div class="kpis">`)
		card("🛒 Total Transactions", strconv.Itoa(kpis.TransactionCount))
		card("📦 Total Quantity Sold", FormatInt(kpis.TotalQuantity))
		card("💰 Total Revenue (€)", FormatEuro(kpis.TotalRevenue))
		h.raw(`</div>`)
		return h.err
	})
}

// ErrorBanner shows msg, or an empty placeholder that clears a previous message.
func ErrorBanner(msg string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		if msg == "" {
			h.rawf(`<div id="%s" class="banner" hidden></div>`, IDErrorBanner)
			return h.err
		}
		h.rawf(`<div id="%s" class="banner error" role="alert">`, IDErrorBanner)
		h.text(msg)
		h.raw(`</div>`)
		return h.err
	})
}

func RowCount(n int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.rawf(`<p id="%s" class="rows">%s matching rows</p>`, IDRowCount, FormatInt(int64(n)))
		return h.err
	})
}

func Preview(p services.Preview) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.rawf(`<div id="%s">`, IDPreview)
		if len(p.Rows) == 0 {
			placeholder(h, "No rows match the selected filters.")
			h.raw(`</div>`)
			return h.err
		}
		h.raw(`<table class="preview"><thead><tr>`)
		for _, c := range p.Columns {
			h.raw(`<th>`)
			h.text(c)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, row := range p.Rows {
			h.raw(`<tr>`)
			for _, cell := range row {
				h.raw(`<td>`)
				h.text(cell)
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
		return h.err
	})
}

// Downloads links the export routes with the current filter as query.
func Downloads(query string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		suffix := ""
		if query != "" {
			suffix = "?" + query
		}
		h.rawf(`<div id="%s" class="downloads">`, IDDownloads)
		for _, f := range []export.Format{export.FormatCSV, export.FormatXLSX} {
			h.raw(`<a class="button" download href="`)
			h.text("/download/" + f.Filename() + suffix)
			h.raw(`">⬇️ Download Filtered Data (`)
			h.text(string(f))
			h.raw(`)</a>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

func CountryChart(data []models.CountryQuantity) templ.Component {
	return svgPanel(IDCountryChart, "🌍 Sales by Country", func() (string, error) {
		return charts.CountryBar(data)
	})
}

func DailyChart(data []models.DailyQuantity) templ.Component {
	return svgPanel(IDDailyChart, "📈 Sales Trend Over Time", func() (string, error) {
		return charts.DailyLine(data)
	})
}

// svgPanel renders a chart, or a placeholder when there is nothing to plot or the
// chart library refuses the input.
func svgPanel(id, title string, render func() (string, error)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.rawf(`<div id="%s" class="panel"><h4>`, id)
		h.text(title)
		h.raw(`</h4>`)

		svg, err := render()
		switch {
		case errors.Is(err, charts.ErrNoData):
			placeholder(h, "No data for the selected filters.")
		case err != nil:
			placeholder(h, "Chart unavailable for the selected filters.")
		default:
			h.raw(`<div class="chart">`)
			h.component(ctx, templ.Raw(svg))
			h.raw(`</div>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

var (
	purpleLight = drawing.ColorFromHex("DADAEB")
	purpleDark  = drawing.ColorFromHex("3F007D")
)

// ProductChart draws the top products as horizontal bars, largest on top.
func ProductChart(data []models.ProductQuantity) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.rawf(`<div id="%s" class="panel"><h4>📦 Top Selling Products</h4>`, IDProductChart)
		if len(data) == 0 {
			placeholder(h, "No data for the selected filters.")
			h.raw(`</div>`)
			return h.err
		}

		var peak int64
		for _, p := range data {
			peak = max(peak, p.Quantity)
		}

		h.raw(`<ol class="hbars">`)
		for _, p := range data {
			share := 0.0
			if peak > 0 && p.Quantity > 0 {
				share = float64(p.Quantity) / float64(peak)
			}
			col := charts.Blend(purpleLight, purpleDark, share)
			h.raw(`<li><span class="name">`)
			h.text(p.Description)
			h.rawf(`</span><span class="bar" style="width:%.1f%%;background:#%02x%02x%02x"></span><span class="qty">%s</span></li>`,
				share*100, col.R, col.G, col.B, FormatInt(p.Quantity))
		}
		h.raw(`</ol></div>`)
		return h.err
	})
}

var viridis = []drawing.Color{
	drawing.ColorFromHex("440154"),
	drawing.ColorFromHex("3B528B"),
	drawing.ColorFromHex("21918C"),
	drawing.ColorFromHex("5EC962"),
	drawing.ColorFromHex("FDE725"),
}

// heatColor maps a coefficient in [-1, 1] onto the viridis scale.
func heatColor(v float64) drawing.Color {
	t := (max(-1, min(1, v)) + 1) / 2
	pos := t * float64(len(viridis)-1)
	i := min(int(pos), len(viridis)-2)
	return charts.Blend(viridis[i], viridis[i+1], pos-float64(i))
}

// CorrelationHeatmap renders the matrix as an annotated colour grid. Undefined
// cells are grey and read NaN.
func CorrelationHeatmap(m models.CorrelationMatrix) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.rawf(`<div id="%s" class="panel"><h4>📊 Correlation Analysis</h4>`, IDCorrelation)
		if len(m.Columns) == 0 {
			placeholder(h, "No data for the selected filters.")
			h.raw(`</div>`)
			return h.err
		}
		if !m.Defined() {
			placeholder(h, "Correlation is undefined for the selected filters.")
		}

		h.raw(`<table class="heatmap"><thead><tr><th></th>`)
		for _, c := range m.Columns {
			h.raw(`<th>`)
			h.text(c)
			h.raw(`</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for i, row := range m.Values {
			h.raw(`<tr><th>`)
			h.text(m.Columns[i])
			h.raw(`</th>`)
			for _, v := range row {
				if math.IsNaN(v) {
					h.raw(`<td class="nan">NaN</td>`)
					continue
				}
				bg := heatColor(v)
				fg := "#fff"
				if v > 0 {
					fg = "#000"
				}
				h.rawf(`<td style="background:#%02x%02x%02x;color:%s">%s</td>`, bg.R, bg.G, bg.B, fg, FormatCorrelation(v))
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
		return h.err
	})
}

func placeholder(h *html, msg string) {
	h.raw(`<p class="placeholder">`)
	h.text(msg)
	h.raw(`</p>`)
}

const stylesheet = `
body{margin:0;font-family:system-ui,sans-serif;background:#f7f9fb;color:#1d2b36}
header{padding:1rem 2rem;background:#264653;color:#fff}
header h1{margin:0;font-size:1.6rem}
.layout{display:flex;gap:1.5rem;padding:1.5rem}
aside{flex:0 0 260px;background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 3px #0002}
aside select{width:100%}
aside label{display:block;margin-top:1rem;font-weight:600}
.dates{display:flex;flex-direction:column;gap:.5rem}
.hint{font-size:.8rem;color:#667}
main{flex:1;min-width:0}
.kpis{display:grid;grid-template-columns:repeat(3,1fr);gap:1rem}
.kpi{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 3px #0002}
.kpi .label{display:block;color:#556;font-size:.9rem}
.kpi .value{display:block;font-size:1.6rem;font-weight:700}
.banner.error{background:#fde2e1;color:#8a1c1c;padding:.75rem 1rem;border-radius:6px;margin:1rem 0}
.preview{width:100%;border-collapse:collapse;font-size:.85rem;background:#fff}
.preview th,.preview td{padding:.35rem .5rem;border-bottom:1px solid #e4e8ec;text-align:left}
.downloads{margin:.75rem 0;display:flex;gap:.75rem}
.button{background:#2a9d8f;color:#fff;padding:.45rem .9rem;border-radius:6px;text-decoration:none}
.grid{display:grid;grid-template-columns:1fr 1fr;gap:1rem}
.panel{background:#fff;border-radius:8px;padding:1rem;margin-bottom:1rem;box-shadow:0 1px 3px #0002;overflow-x:auto}
.chart svg{max-width:100%;height:auto}
.hbars{list-style:none;padding:0;margin:0}
.hbars li{display:grid;grid-template-columns:40% 1fr auto;align-items:center;gap:.5rem;margin:.3rem 0;font-size:.85rem}
.hbars .bar{display:block;height:14px;border-radius:3px}
.heatmap{border-collapse:collapse}
.heatmap th,.heatmap td{padding:1rem 1.5rem;text-align:center}
.heatmap td.nan{background:#d5d8dc;color:#444}
.placeholder{color:#778;font-style:italic}
`
