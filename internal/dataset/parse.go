package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ecom-dashboard/internal/models"
)

const (
	ColInvoiceNo   = "InvoiceNo"
	ColStockCode   = "StockCode"
	ColDescription = "Description"
	ColQuantity    = "Quantity"
	ColInvoiceDate = "InvoiceDate"
	ColUnitPrice   = "UnitPrice"
	ColCustomerID  = "CustomerID"
	ColCountry     = "Country"
)

var requiredColumns = []string{ColCountry, ColInvoiceDate, ColQuantity, ColUnitPrice}

// Month-first layouts come before ISO ones, matching the source export format.
var dateLayouts = []string{
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
}

// ParseDate parses an invoice timestamp leniently. ok is false for empty or
// unrecognised values.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseQuantity(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	// "6.0" style exports
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// columns maps header names to record positions; -1 marks an absent optional column.
type columns struct {
	invoiceNo, stockCode, description, quantity, invoiceDate, unitPrice, customerID, country int
}

func indexColumns(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := pos[name]; !ok {
			return columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	lookup := func(name string) int {
		if i, ok := pos[name]; ok {
			return i
		}
		return -1
	}
	return columns{
		invoiceNo:   lookup(ColInvoiceNo),
		stockCode:   lookup(ColStockCode),
		description: lookup(ColDescription),
		quantity:    lookup(ColQuantity),
		invoiceDate: lookup(ColInvoiceDate),
		unitPrice:   lookup(ColUnitPrice),
		customerID:  lookup(ColCustomerID),
		country:     lookup(ColCountry),
	}, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// parse converts one record. coerced is true when a non-empty date failed to parse.
func (c columns) parse(record []string) (tx models.Transaction, coerced bool) {
	tx = models.Transaction{
		InvoiceNo:   field(record, c.invoiceNo),
		StockCode:   field(record, c.stockCode),
		Description: field(record, c.description),
		CustomerID:  field(record, c.customerID),
		Country:     field(record, c.country),
	}
	tx.Quantity, tx.QuantityValid = parseQuantity(field(record, c.quantity))
	tx.UnitPrice, tx.UnitPriceValid = parsePrice(field(record, c.unitPrice))

	rawDate := field(record, c.invoiceDate)
	date, ok := ParseDate(rawDate)
	if ok {
		tx.InvoiceDate = date
	}
	return tx, !ok && strings.TrimSpace(rawDate) != ""
}
