package templates

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecom-dashboard/internal/engine"
	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/services"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func day(d int) time.Time { return time.Date(2010, 12, d, 0, 0, 0, 0, time.UTC) }

func sampleSnapshot() *services.Snapshot {
	return &services.Snapshot{
		Filter: engine.Filter{Countries: []string{"France"}, Start: day(1), End: day(3)},
		Rows:   2,
		Preview: services.Preview{
			Columns: []string{"InvoiceNo", "Description", "Country"},
			Rows: [][]string{
				{"536365", "<b>HEART</b>", "France"},
				{"536366", "HAND WARMER", "France"},
			},
		},
		ByCountry:   []models.CountryQuantity{{Country: "France", Quantity: 12}, {Country: "Spain", Quantity: 4}},
		TopProducts: []models.ProductQuantity{{Description: "HAND WARMER", Quantity: 6}, {Description: "MUG", Quantity: 3}},
		Daily:       []models.DailyQuantity{{Date: day(1), Quantity: 6}, {Date: day(2), Quantity: 6}, {Date: day(3), Quantity: 4}},
		Correlation: models.CorrelationMatrix{
			Columns: []string{"Quantity", "UnitPrice"},
			Values:  [][]float64{{1, -0.25}, {-0.25, 1}},
		},
	}
}

func TestDashboard_FullPage(t *testing.T) {
	page := render(t, Dashboard(PageData{
		KPIs: models.KPIs{TransactionCount: 541909, TotalQuantity: 5176450, TotalRevenue: decimal.RequireFromString("9747747.934")},
		Options: services.FilterOptions{
			Countries: []string{"United Kingdom", "France"},
			MinDate:   day(1),
			MaxDate:   day(9),
			HasDates:  true,
		},
		Snapshot: sampleSnapshot(),
	}))

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "<title>E-Commerce Sales Dashboard</title>")
	assert.Contains(t, page, "541909")
	assert.Contains(t, page, "5,176,450")
	assert.Contains(t, page, "€9,747,747.93")
	assert.Contains(t, page, `min="2010-12-01" max="2010-12-09"`)
	assert.Contains(t, page, `<option value="France">France</option>`)
	assert.Contains(t, page, "@get(&#39;/sse/dashboard&#39;)")
	assert.Contains(t, page, "&#34;start&#34;:&#34;2010-12-01&#34;")

	for _, id := range []string{IDErrorBanner, IDRowCount, IDPreview, IDDownloads, IDCountryChart, IDProductChart, IDDailyChart, IDCorrelation} {
		assert.Contains(t, page, `id="`+id+`"`, id)
	}
}

func TestDashboard_NilSnapshot(t *testing.T) {
	page := render(t, Dashboard(PageData{}))

	assert.Contains(t, page, "No rows match the selected filters.")
	assert.Contains(t, page, "No data for the selected filters.")
}

func TestFragments_OnePerPatchedElement(t *testing.T) {
	frags := Fragments(sampleSnapshot())
	require.Len(t, frags, 8)

	for _, f := range frags {
		out := render(t, f)
		assert.True(t, strings.HasPrefix(out, `<`), out)
		assert.Contains(t, out, `id="`)
	}
}

func TestPreview_EscapesCells(t *testing.T) {
	out := render(t, Preview(sampleSnapshot().Preview))

	assert.Contains(t, out, "&lt;b&gt;HEART&lt;/b&gt;")
	assert.NotContains(t, out, "<b>HEART</b>")
	assert.Equal(t, 3, strings.Count(out, "<tr>"))
}

func TestDashboard_EscapesDatasetValues(t *testing.T) {
	snap := sampleSnapshot()
	snap.ByCountry = []models.CountryQuantity{{Country: "<i>Atlantis</i>", Quantity: 3}}
	snap.TopProducts = []models.ProductQuantity{{Description: `<script>alert("x")</script>`, Quantity: 2}}

	page := render(t, Dashboard(PageData{
		Options:  services.FilterOptions{Countries: []string{"<i>Atlantis</i>"}},
		Snapshot: snap,
	}))

	assert.NotContains(t, page, "<i>Atlantis</i>")
	assert.NotContains(t, page, "<script>alert")
	assert.Contains(t, page, `<option value="&lt;i&gt;Atlantis&lt;/i&gt;">`)
	assert.Contains(t, page, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;")
	assert.Contains(t, render(t, CountryChart(snap.ByCountry)), "&lt;i&gt;Atlantis&lt;/i&gt;")
}

func TestRawf_EscapesStringArguments(t *testing.T) {
	var buf bytes.Buffer
	h := &html{w: &buf}
	h.rawf(`<p title="%s">%d</p>`, `"><b>`, 7)

	require.NoError(t, h.err)
	assert.Equal(t, `<p title="&#34;&gt;&lt;b&gt;">7</p>`, buf.String())
}

func TestDownloads(t *testing.T) {
	out := render(t, Downloads(FilterQuery(engine.Filter{Countries: []string{"EIRE"}, Start: day(1)})))

	assert.Contains(t, out, `href="/download/filtered_data.csv?country=EIRE&amp;start=2010-12-01"`)
	assert.Contains(t, out, `href="/download/filtered_data.xlsx?country=EIRE&amp;start=2010-12-01"`)

	plain := render(t, Downloads(""))
	assert.Contains(t, plain, `href="/download/filtered_data.csv"`)
}

func TestErrorBanner(t *testing.T) {
	assert.Contains(t, render(t, ErrorBanner("")), "hidden")

	out := render(t, ErrorBanner(`start "2011" is after end`))
	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, "start &#34;2011&#34; is after end")
}

func TestProductChart(t *testing.T) {
	out := render(t, ProductChart(sampleSnapshot().TopProducts))

	assert.Equal(t, 2, strings.Count(out, "<li>"))
	assert.Contains(t, out, "width:100.0%")
	assert.Contains(t, out, "width:50.0%")
	assert.Less(t, strings.Index(out, "HAND WARMER"), strings.Index(out, "MUG"))
}

func TestCorrelationHeatmap(t *testing.T) {
	out := render(t, CorrelationHeatmap(sampleSnapshot().Correlation))
	assert.Contains(t, out, "1.000")
	assert.Contains(t, out, "-0.250")
	assert.NotContains(t, out, "undefined")

	nan := math.NaN()
	undefined := render(t, CorrelationHeatmap(models.CorrelationMatrix{
		Columns: []string{"Quantity", "UnitPrice"},
		Values:  [][]float64{{1, nan}, {nan, nan}},
	}))
	assert.Contains(t, undefined, "Correlation is undefined")
	assert.Equal(t, 3, strings.Count(undefined, `class="nan"`))
}

func TestCharts_PlaceholderWhenEmpty(t *testing.T) {
	for _, c := range []templ.Component{CountryChart(nil), DailyChart(nil), ProductChart(nil), CorrelationHeatmap(models.CorrelationMatrix{})} {
		assert.Contains(t, render(t, c), "No data for the selected filters.")
	}
}

func TestCharts_RenderSVG(t *testing.T) {
	snap := sampleSnapshot()
	assert.Contains(t, render(t, CountryChart(snap.ByCountry)), "<svg")
	assert.Contains(t, render(t, DailyChart(snap.Daily)), "<svg")
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", FormatInt(0))
	assert.Equal(t, "999", FormatInt(999))
	assert.Equal(t, "1,000", FormatInt(1000))
	assert.Equal(t, "-12,345,678", FormatInt(-12345678))
}

func TestFormatEuro(t *testing.T) {
	tests := map[string]string{
		"0":           "€0.00",
		"12.5":        "€12.50",
		"1234.567":    "€1,234.57",
		"123456789":   "€123,456,789.00",
		"-1234.5":     "€-1,234.50",
		"9747747.934": "€9,747,747.93",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatEuro(decimal.RequireFromString(in)), in)
	}
}

func TestFormatCorrelation(t *testing.T) {
	assert.Equal(t, "NaN", FormatCorrelation(math.NaN()))
	assert.Equal(t, "0.500", FormatCorrelation(0.5))
}

func TestHeatColor_Endpoints(t *testing.T) {
	assert.Equal(t, viridis[0], heatColor(-1))
	assert.Equal(t, viridis[len(viridis)-1], heatColor(1))
	assert.Equal(t, viridis[2], heatColor(0))
}

func TestFilterQuery(t *testing.T) {
	assert.Equal(t, "", FilterQuery(engine.Filter{}))
	assert.Equal(t, "country=France&country=Spain&end=2010-12-03&start=2010-12-01",
		FilterQuery(engine.Filter{Countries: []string{"France", "Spain"}, Start: day(1), End: day(3)}))
}
