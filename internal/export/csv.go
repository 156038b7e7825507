// Package export writes a filtered view of the dataset as a downloadable table.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ecom-dashboard/internal/engine"
)

const (
	CSVFilename    = "filtered_data.csv"
	CSVContentType = "text/csv"

	XLSXFilename    = "filtered_data.xlsx"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q: use .csv or .xlsx", filepath.Ext(path))
	}
}

func (f Format) Filename() string {
	if f == FormatXLSX {
		return XLSXFilename
	}
	return CSVFilename
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return XLSXContentType
	}
	return CSVContentType
}

// Write encodes v in format f.
func Write(w io.Writer, v engine.View, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, v)
	case FormatXLSX:
		return WriteXLSX(w, v)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// WriteCSV writes the header and every row of v in dataset order, UTF-8 encoded
// with no index column.
func WriteCSV(w io.Writer, v engine.View) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(v.Dataset().Header()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i := 0; i < v.Len(); i++ {
		if err := writer.Write(v.Record(i)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
