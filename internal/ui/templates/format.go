package templates

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"ecom-dashboard/internal/engine"
)

const dateLayout = "2006-01-02"

var printer = message.NewPrinter(language.English)

// FormatInt groups thousands with commas: 1234567 -> "1,234,567".
func FormatInt(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatEuro renders an amount with two decimals and grouped thousands, sign after
// the currency symbol: "€1,234.50", "€-3.00".
func FormatEuro(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return "€" + sign + grouped.String() + "." + frac
}

// FormatCorrelation prints a coefficient for a heatmap cell.
func FormatCorrelation(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.3f", v)
}

// FilterQuery encodes f as the query string understood by the API and download
// routes.
func FilterQuery(f engine.Filter) string {
	q := url.Values{}
	for _, c := range f.Countries {
		q.Add("country", c)
	}
	if !f.Start.IsZero() {
		q.Set("start", f.Start.Format(dateLayout))
	}
	if !f.End.IsZero() {
		q.Set("end", f.End.Format(dateLayout))
	}
	return q.Encode()
}
