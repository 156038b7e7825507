// Package dataset loads the retail transaction CSV into an immutable in-memory table.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"ecom-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyFile     = errors.New("empty file")
)

// Dataset is the parsed table. It is never modified after Read returns and may be
// shared between goroutines.
type Dataset struct {
	header        []string
	cols          columns
	rows          []models.Transaction
	raw           [][]string
	countries     []string
	minDate       time.Time
	maxDate       time.Time
	unparsedDates int
}

// Load opens path and reads it as ISO-8859-1 encoded CSV.
func Load(ctx context.Context, path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	ds, err := Read(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

// Read parses ISO-8859-1 encoded CSV from r.
func Read(ctx context.Context, r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var raw [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(raw)+2, err)
		}
		raw = append(raw, record)
	}

	rows, unparsed, err := parseRows(ctx, cols, raw)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		header:        header,
		cols:          cols,
		rows:          rows,
		raw:           raw,
		unparsedDates: unparsed,
	}
	ds.index()
	return ds, nil
}

// parseRows fans fixed-size batches out to a bounded worker group. Each worker
// writes only its own slice range, so row order is preserved.
func parseRows(ctx context.Context, cols columns, raw [][]string) ([]models.Transaction, int, error) {
	rows := make([]models.Transaction, len(raw))
	var unparsed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for start := 0; start < len(raw); start += batchSize {
		end := min(start+batchSize, len(raw))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				tx, coerced := cols.parse(raw[i])
				rows[i] = tx
				if coerced {
					unparsed.Add(1)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return rows, int(unparsed.Load()), nil
}

func (d *Dataset) index() {
	seen := make(map[string]struct{})
	for _, tx := range d.rows {
		if tx.Country != "" {
			if _, ok := seen[tx.Country]; !ok {
				seen[tx.Country] = struct{}{}
				d.countries = append(d.countries, tx.Country)
			}
		}
		if !tx.HasDate() {
			continue
		}
		if d.minDate.IsZero() || tx.InvoiceDate.Before(d.minDate) {
			d.minDate = tx.InvoiceDate
		}
		if tx.InvoiceDate.After(d.maxDate) {
			d.maxDate = tx.InvoiceDate
		}
	}
}

// New builds a dataset from already parsed rows. Raw cells are synthesised from the
// typed fields using the canonical column order.
func New(rows []models.Transaction) *Dataset {
	header := []string{ColInvoiceNo, ColStockCode, ColDescription, ColQuantity, ColInvoiceDate, ColUnitPrice, ColCustomerID, ColCountry}
	cols, _ := indexColumns(header)

	own := make([]models.Transaction, len(rows))
	copy(own, rows)

	raw := make([][]string, len(own))
	for i, tx := range own {
		raw[i] = []string{
			tx.InvoiceNo,
			tx.StockCode,
			tx.Description,
			formatQuantity(tx),
			FormatDate(tx.InvoiceDate),
			formatPrice(tx),
			tx.CustomerID,
			tx.Country,
		}
	}

	ds := &Dataset{header: header, cols: cols, rows: own, raw: raw}
	ds.index()
	return ds
}

func (d *Dataset) Len() int { return len(d.rows) }

func (d *Dataset) Row(i int) models.Transaction { return d.rows[i] }

// Raw returns the source cells of row i. Callers must not modify it.
func (d *Dataset) Raw(i int) []string { return d.raw[i] }

func (d *Dataset) Header() []string {
	return append([]string(nil), d.header...)
}

// DateColumn is the position of InvoiceDate in the header.
func (d *Dataset) DateColumn() int { return d.cols.invoiceDate }

// Countries lists distinct non-empty countries in first-seen order.
func (d *Dataset) Countries() []string {
	return append([]string(nil), d.countries...)
}

// DateBounds returns the earliest and latest parsed invoice dates.
func (d *Dataset) DateBounds() (lo, hi time.Time, ok bool) {
	if d.minDate.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return d.minDate, d.maxDate, true
}

// UnparsedDates counts non-empty InvoiceDate values that were coerced to missing.
func (d *Dataset) UnparsedDates() int { return d.unparsedDates }

// FormatDate renders a timestamp the way exports write it; missing dates are empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}

func formatQuantity(tx models.Transaction) string {
	if !tx.QuantityValid {
		return ""
	}
	return fmt.Sprintf("%d", tx.Quantity)
}

func formatPrice(tx models.Transaction) string {
	if !tx.UnitPriceValid {
		return ""
	}
	return tx.UnitPrice.String()
}
