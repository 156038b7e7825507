package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ecom-dashboard/internal/dataset"
	"ecom-dashboard/internal/engine"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "filtered_data"

// WriteXLSX writes v as a single-sheet workbook. Quantity and UnitPrice are stored
// as numbers when present; every other cell keeps its exported text.
func WriteXLSX(w io.Writer, v engine.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	header := v.Dataset().Header()
	qtyCol, priceCol := -1, -1
	cells := make([]any, len(header))
	for i, name := range header {
		switch name {
		case dataset.ColQuantity:
			qtyCol = i
		case dataset.ColUnitPrice:
			priceCol = i
		}
		cells[i] = name
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < v.Len(); i++ {
		rec := v.Record(i)
		tx := v.Row(i)

		cells := make([]any, len(rec))
		for j, s := range rec {
			cells[j] = s
		}
		if qtyCol >= 0 && tx.QuantityValid {
			cells[qtyCol] = tx.Quantity
		}
		if priceCol >= 0 && tx.UnitPriceValid {
			cells[priceCol] = tx.UnitPrice.InexactFloat64()
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
