package engine

import (
	"github.com/shopspring/decimal"

	"ecom-dashboard/internal/dataset"
	"ecom-dashboard/internal/models"
)

// ComputeKPIs summarises the whole dataset, rows with missing dates included.
func ComputeKPIs(ds *dataset.Dataset) models.KPIs {
	kpis := models.KPIs{
		TransactionCount: ds.Len(),
		TotalRevenue:     decimal.Zero,
	}
	for i := 0; i < ds.Len(); i++ {
		tx := ds.Row(i)
		if tx.QuantityValid {
			kpis.TotalQuantity += tx.Quantity
		}
		kpis.TotalRevenue = kpis.TotalRevenue.Add(tx.Revenue())
	}
	return kpis
}
