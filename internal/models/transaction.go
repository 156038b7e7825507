package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one line item of the retail dataset.
type Transaction struct {
	InvoiceNo   string
	StockCode   string
	Description string
	Quantity    int64
	// InvoiceDate is the zero time when the source value could not be parsed.
	InvoiceDate time.Time
	UnitPrice   decimal.Decimal
	CustomerID  string
	Country     string

	QuantityValid  bool
	UnitPriceValid bool
}

func (t Transaction) HasDate() bool {
	return !t.InvoiceDate.IsZero()
}

// Day truncates the invoice timestamp to its calendar date.
func (t Transaction) Day() time.Time {
	y, m, d := t.InvoiceDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Revenue is quantity times unit price, zero when either is missing.
func (t Transaction) Revenue() decimal.Decimal {
	if !t.QuantityValid || !t.UnitPriceValid {
		return decimal.Zero
	}
	return t.UnitPrice.Mul(decimal.NewFromInt(t.Quantity))
}

type KPIs struct {
	TransactionCount int             `json:"transaction_count"`
	TotalQuantity    int64           `json:"total_quantity"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
}

type CountryQuantity struct {
	Country  string `json:"country"`
	Quantity int64  `json:"quantity"`
}

type ProductQuantity struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
}

type DailyQuantity struct {
	Date     time.Time `json:"-"`
	Quantity int64     `json:"quantity"`
}

func (d DailyQuantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date     string `json:"date"`
		Quantity int64  `json:"quantity"`
	}{d.Date.Format(time.DateOnly), d.Quantity})
}

// CorrelationMatrix is a symmetric Pearson matrix, row-major over Columns.
// Undefined coefficients are NaN.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"-"`
}

// Defined reports whether the coefficients could be computed.
func (m CorrelationMatrix) Defined() bool {
	for _, row := range m.Values {
		for _, v := range row {
			if math.IsNaN(v) {
				return false
			}
		}
	}
	return len(m.Values) > 0
}

// MarshalJSON writes NaN cells as null.
func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				v := v
				values[i][j] = &v
			}
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
		Defined bool         `json:"defined"`
	}{m.Columns, values, m.Defined()})
}
