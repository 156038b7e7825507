package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ecom-dashboard/internal/dataset"
	"ecom-dashboard/internal/engine"
	"ecom-dashboard/internal/models"
	"ecom-dashboard/internal/observability"
)

// PreviewRows is how many leading filtered rows the dashboard shows.
const PreviewRows = 5

var ErrNotLoaded = errors.New("dataset not loaded")

// Snapshot is everything one filter pass produces. It shares no state with other
// passes.
type Snapshot struct {
	Filter      engine.Filter            `json:"filter"`
	Rows        int                      `json:"rows"`
	Preview     Preview                  `json:"preview"`
	ByCountry   []models.CountryQuantity `json:"by_country"`
	TopProducts []models.ProductQuantity `json:"top_products"`
	Daily       []models.DailyQuantity   `json:"daily"`
	Correlation models.CorrelationMatrix `json:"correlation"`
	View        engine.View              `json:"-"`
}

// Preview holds the leading rows of a view as display cells.
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// FilterOptions describes the values the filter widgets may offer.
type FilterOptions struct {
	Countries []string  `json:"countries"`
	MinDate   time.Time `json:"min_date"`
	MaxDate   time.Time `json:"max_date"`
	HasDates  bool      `json:"has_dates"`
}

// Analytics owns the base dataset and its KPIs. The dataset is loaded once and
// never modified; every Compute derives its results from it afresh.
type Analytics struct {
	mu       sync.RWMutex
	loader   *dataset.Loader
	ds       *dataset.Dataset
	kpis     models.KPIs
	source   string
	loadedAt time.Time

	computations atomic.Int64
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewAnalytics returns an empty service. A nil logger means slog.Default; metrics
// may be nil.
func NewAnalytics(logger *slog.Logger, metrics *observability.Metrics) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{logger: logger, metrics: metrics}
}

// LoadFromCSV loads path once. Later calls for the same path reuse the first result.
func (a *Analytics) LoadFromCSV(ctx context.Context, path string) error {
	a.mu.Lock()
	if a.loader == nil || a.loader.Path() != path {
		a.loader = dataset.NewLoader(path, a.logger)
	}
	loader := a.loader
	a.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "analytics.load", attribute.String("path", path))
	ds, err := loader.Dataset(ctx)
	observability.EndSpan(span, err)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	a.setDataset(ds, path)
	return nil
}

// SetDataset installs an already built dataset.
func (a *Analytics) SetDataset(ds *dataset.Dataset) {
	a.setDataset(ds, "memory")
}

func (a *Analytics) setDataset(ds *dataset.Dataset, source string) {
	kpis := engine.ComputeKPIs(ds)

	a.mu.Lock()
	a.ds = ds
	a.kpis = kpis
	a.source = source
	a.loadedAt = time.Now()
	a.mu.Unlock()

	a.metrics.SetDatasetRows(ds.Len())
}

func (a *Analytics) Dataset() (*dataset.Dataset, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ds == nil {
		return nil, ErrNotLoaded
	}
	return a.ds, nil
}

// KPIs summarise the whole dataset and ignore any filter.
func (a *Analytics) KPIs() (models.KPIs, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ds == nil {
		return models.KPIs{}, ErrNotLoaded
	}
	return a.kpis, nil
}

func (a *Analytics) FilterOptions() (FilterOptions, error) {
	ds, err := a.Dataset()
	if err != nil {
		return FilterOptions{}, err
	}

	opts := FilterOptions{Countries: ds.Countries()}
	if _, _, ok := ds.DateBounds(); ok {
		def := engine.DefaultFilter(ds)
		opts.MinDate, opts.MaxDate, opts.HasDates = def.Start, def.End, true
	}
	return opts, nil
}

// Compute runs one full pass: filter the dataset, then derive every aggregate
// from the filtered view. The date range is clamped to the dataset's dates first,
// so an open side defaults to the earliest or latest day and rows without a date
// never match while the dataset has any.
func (a *Analytics) Compute(ctx context.Context, f engine.Filter) (*Snapshot, error) {
	ds, err := a.Dataset()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f = f.Clamp(ds)

	ctx, span := observability.StartSpan(ctx, "analytics.compute",
		attribute.StringSlice("countries", f.Countries),
		attribute.Int("dataset_rows", ds.Len()))
	start := time.Now()

	view := engine.Apply(ds, f)
	snap := &Snapshot{
		Filter:      f,
		Rows:        view.Len(),
		Preview:     preview(view, PreviewRows),
		ByCountry:   engine.ByCountry(view),
		TopProducts: engine.TopProducts(view, engine.TopProductsLimit),
		Daily:       engine.DailySeries(view),
		Correlation: engine.Correlation(view),
		View:        view,
	}

	duration := time.Since(start)
	span.SetAttributes(attribute.Int("filtered_rows", snap.Rows))
	observability.EndSpan(span, nil)

	a.computations.Add(1)
	a.metrics.ObserveCompute(snap.Rows, duration)
	a.logger.DebugContext(ctx, "computed dashboard",
		"rows", snap.Rows,
		"countries", len(f.Countries),
		"duration", duration)

	return snap, nil
}

func preview(v engine.View, n int) Preview {
	p := Preview{
		Columns: v.Dataset().Header(),
		Rows:    make([][]string, 0, min(n, v.Len())),
	}
	for i := 0; i < min(n, v.Len()); i++ {
		p.Rows = append(p.Rows, v.Record(i))
	}
	return p
}

// Stats reports the service state for monitoring.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"loaded":       a.ds != nil,
		"computations": a.computations.Load(),
	}
	if a.ds == nil {
		return stats
	}

	stats["source"] = a.source
	stats["last_loaded"] = a.loadedAt
	stats["record_count"] = a.ds.Len()
	stats["countries"] = len(a.ds.Countries())
	stats["unparsed_dates"] = a.ds.UnparsedDates()
	if lo, hi, ok := a.ds.DateBounds(); ok {
		stats["first_invoice"] = lo
		stats["last_invoice"] = hi
	}
	return stats
}
