package engine

import (
	"cmp"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"ecom-dashboard/internal/models"
)

// TopProductsLimit is how many products the dashboard ranks.
const TopProductsLimit = 10

// CorrelationColumns are the measures compared by Correlation, in matrix order.
var CorrelationColumns = []string{"Quantity", "UnitPrice"}

// groupSum sums quantity per key, remembering first-seen key order. Empty keys are
// skipped, as null group keys are.
func groupSum(v View, key func(models.Transaction) string) ([]string, map[string]int64) {
	var order []string
	sums := make(map[string]int64)
	for i := 0; i < v.Len(); i++ {
		tx := v.Row(i)
		k := key(tx)
		if k == "" {
			continue
		}
		if _, seen := sums[k]; !seen {
			order = append(order, k)
			sums[k] = 0
		}
		if tx.QuantityValid {
			sums[k] += tx.Quantity
		}
	}
	return order, sums
}

// ByCountry sums quantity per country, largest first. Equal sums keep first-seen order.
func ByCountry(v View) []models.CountryQuantity {
	order, sums := groupSum(v, func(tx models.Transaction) string { return tx.Country })

	result := make([]models.CountryQuantity, 0, len(order))
	for _, country := range order {
		result = append(result, models.CountryQuantity{Country: country, Quantity: sums[country]})
	}
	slices.SortStableFunc(result, func(a, b models.CountryQuantity) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
	return result
}

// TopProducts sums quantity per description and keeps the n largest. Ties at the
// cut are resolved by first appearance in the view. n <= 0 keeps every product.
func TopProducts(v View, n int) []models.ProductQuantity {
	order, sums := groupSum(v, func(tx models.Transaction) string { return tx.Description })

	result := make([]models.ProductQuantity, 0, len(order))
	for _, desc := range order {
		result = append(result, models.ProductQuantity{Description: desc, Quantity: sums[desc]})
	}
	slices.SortStableFunc(result, func(a, b models.ProductQuantity) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// DailySeries sums quantity per calendar day in ascending date order.
func DailySeries(v View) []models.DailyQuantity {
	sums := make(map[time.Time]int64)
	for i := 0; i < v.Len(); i++ {
		tx := v.Row(i)
		if !tx.HasDate() {
			continue
		}
		d := tx.Day()
		if _, seen := sums[d]; !seen {
			sums[d] = 0
		}
		if tx.QuantityValid {
			sums[d] += tx.Quantity
		}
	}

	result := make([]models.DailyQuantity, 0, len(sums))
	for d, q := range sums {
		result = append(result, models.DailyQuantity{Date: d, Quantity: q})
	}
	slices.SortFunc(result, func(a, b models.DailyQuantity) int {
		return a.Date.Compare(b.Date)
	})
	return result
}

// Correlation computes the Pearson matrix of quantity against unit price over rows
// where both are present. With fewer than two such rows every cell is NaN. A column
// with zero variance has a NaN diagonal and NaN off-diagonal cells.
func Correlation(v View) models.CorrelationMatrix {
	var qty, price []float64
	for i := 0; i < v.Len(); i++ {
		tx := v.Row(i)
		if !tx.QuantityValid || !tx.UnitPriceValid {
			continue
		}
		qty = append(qty, float64(tx.Quantity))
		price = append(price, tx.UnitPrice.InexactFloat64())
	}

	nan := math.NaN()
	m := models.CorrelationMatrix{
		Columns: slices.Clone(CorrelationColumns),
		Values:  [][]float64{{nan, nan}, {nan, nan}},
	}
	if len(qty) < 2 {
		return m
	}

	varQty, varPrice := stat.Variance(qty, nil), stat.Variance(price, nil)
	if varQty > 0 {
		m.Values[0][0] = 1
	}
	if varPrice > 0 {
		m.Values[1][1] = 1
	}
	if varQty > 0 && varPrice > 0 {
		r := stat.Correlation(qty, price, nil)
		// rounding can push |r| a hair past 1
		r = math.Max(-1, math.Min(1, r))
		m.Values[0][1], m.Values[1][0] = r, r
	}
	return m
}
