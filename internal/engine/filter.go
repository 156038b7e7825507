// Package engine holds the dashboard computations: whole-dataset KPIs, the filter
// that produces a view of the dataset, and the aggregates drawn from a view.
package engine

import (
	"slices"
	"time"

	"ecom-dashboard/internal/dataset"
	"ecom-dashboard/internal/models"
)

// View is an ordered subset of a dataset, held as row indices into it.
type View struct {
	ds      *dataset.Dataset
	indices []int
}

// All returns a view over every row of ds.
func All(ds *dataset.Dataset) View {
	indices := make([]int, ds.Len())
	for i := range indices {
		indices[i] = i
	}
	return View{ds: ds, indices: indices}
}

func (v View) Len() int { return len(v.indices) }

func (v View) Row(i int) models.Transaction { return v.ds.Row(v.indices[i]) }

// Raw returns the source cells of the i-th row of the view.
func (v View) Raw(i int) []string { return v.ds.Raw(v.indices[i]) }

// Record returns the i-th row as it is written out: one cell per header column,
// source values except the invoice date, which is normalized.
func (v View) Record(i int) []string {
	rec := make([]string, len(v.ds.Header()))
	copy(rec, v.Raw(i))
	if c := v.ds.DateColumn(); c >= 0 && c < len(rec) {
		rec[c] = dataset.FormatDate(v.Row(i).InvoiceDate)
	}
	return rec
}

func (v View) Dataset() *dataset.Dataset { return v.ds }

// Head returns up to n leading rows.
func (v View) Head(n int) []models.Transaction {
	n = min(n, v.Len())
	rows := make([]models.Transaction, n)
	for i := range n {
		rows[i] = v.Row(i)
	}
	return rows
}

// Filter selects rows by country and by calendar date.
//
// An empty Countries list applies no country constraint. Start and End are inclusive
// calendar days; a zero value leaves that side open. A row without a parsed date
// never matches once either bound is set.
type Filter struct {
	Countries []string  `json:"countries"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// DefaultFilter covers every country and the full date range of ds.
func DefaultFilter(ds *dataset.Dataset) Filter {
	var f Filter
	if lo, hi, ok := ds.DateBounds(); ok {
		f.Start, f.End = day(lo), day(hi)
	}
	return f
}

// Clamp bounds the date range to the dates present in ds, filling open sides.
func (f Filter) Clamp(ds *dataset.Dataset) Filter {
	lo, hi, ok := ds.DateBounds()
	if !ok {
		return f
	}
	lo, hi = day(lo), day(hi)
	clamp := func(t, fallback time.Time) time.Time {
		if t.IsZero() {
			return fallback
		}
		t = day(t)
		if t.Before(lo) {
			return lo
		}
		if t.After(hi) {
			return hi
		}
		return t
	}
	f.Start = clamp(f.Start, lo)
	f.End = clamp(f.End, hi)
	return f
}

func (f Filter) dated() bool {
	return !f.Start.IsZero() || !f.End.IsZero()
}

type matcher struct {
	countries map[string]struct{}
	start     time.Time
	end       time.Time
	dated     bool
}

func (f Filter) matcher() matcher {
	m := matcher{dated: f.dated()}
	if len(f.Countries) > 0 {
		m.countries = make(map[string]struct{}, len(f.Countries))
		for _, c := range f.Countries {
			m.countries[c] = struct{}{}
		}
	}
	if !f.Start.IsZero() {
		m.start = day(f.Start)
	}
	if !f.End.IsZero() {
		m.end = day(f.End)
	}
	return m
}

func (m matcher) match(tx models.Transaction) bool {
	if m.countries != nil {
		if _, ok := m.countries[tx.Country]; !ok {
			return false
		}
	}
	if !m.dated {
		return true
	}
	if !tx.HasDate() {
		return false
	}
	d := tx.Day()
	if !m.start.IsZero() && d.Before(m.start) {
		return false
	}
	if !m.end.IsZero() && d.After(m.end) {
		return false
	}
	return true
}

// Matches reports whether a single transaction passes the filter.
func (f Filter) Matches(tx models.Transaction) bool {
	return f.matcher().match(tx)
}

// Apply returns the rows of ds that pass f, in dataset order. ds is not modified.
func Apply(ds *dataset.Dataset, f Filter) View {
	m := f.matcher()
	indices := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if m.match(ds.Row(i)) {
			indices = append(indices, i)
		}
	}
	return View{ds: ds, indices: slices.Clip(indices)}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
