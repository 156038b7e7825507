package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/services"
	"ecom-dashboard/internal/ui/templates"
)

// writeSummary prints the KPIs and the filtered aggregates as aligned tables.
func writeSummary(w io.Writer, kpis models.KPIs, snap *services.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "Key Metrics")
	fmt.Fprintf(tw, "  Total Transactions\t%d\n", kpis.TransactionCount)
	fmt.Fprintf(tw, "  Total Quantity Sold\t%s\n", templates.FormatInt(kpis.TotalQuantity))
	fmt.Fprintf(tw, "  Total Revenue\t%s\n", templates.FormatEuro(kpis.TotalRevenue))
	fmt.Fprintf(tw, "\n%s matching rows\n", templates.FormatInt(int64(snap.Rows)))

	fmt.Fprintln(tw, "\nQuantity Sold by Country")
	for _, c := range snap.ByCountry {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Country, templates.FormatInt(c.Quantity))
	}

	fmt.Fprintln(tw, "\nTop Selling Products")
	for _, p := range snap.TopProducts {
		fmt.Fprintf(tw, "  %s\t%s\n", p.Description, templates.FormatInt(p.Quantity))
	}

	fmt.Fprintln(tw, "\nSales Trend")
	for _, d := range snap.Daily {
		fmt.Fprintf(tw, "  %s\t%s\n", d.Date.Format("2006-01-02"), templates.FormatInt(d.Quantity))
	}

	fmt.Fprintln(tw, "\nCorrelation")
	m := snap.Correlation
	fmt.Fprint(tw, " ")
	for _, col := range m.Columns {
		fmt.Fprintf(tw, "\t%s", col)
	}
	fmt.Fprintln(tw)
	for i, row := range m.Values {
		fmt.Fprintf(tw, "  %s", m.Columns[i])
		for _, v := range row {
			fmt.Fprintf(tw, "\t%s", templates.FormatCorrelation(v))
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}
