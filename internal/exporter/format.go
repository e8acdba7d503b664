package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"groupagg/internal/table"
)

// missingText is written for NaN numbers in text formats.
const missingText = "NA"

// Format names an output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// ParseFormat converts a format name or file extension into a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case FormatCSV, FormatTSV, FormatJSON, FormatHTML, FormatXLSX:
		return f, nil
	case "htm":
		return FormatHTML, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// WriteOptions configures rendering
type WriteOptions struct {
	BOMPrefix bool   // Add UTF-8 BOM for Excel compatibility (CSV and TSV)
	Precision int    // Digits after the decimal point; negative for the shortest form
	Caption   string // Table caption (HTML) or sheet name (XLSX)
}

// DefaultWriteOptions returns options writing numbers in their shortest form.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Precision: -1}
}

// formatFloat formats a number for text output.
func formatFloat(f float64, precision int) string {
	if math.IsNaN(f) {
		return missingText
	}
	return strconv.FormatFloat(f, 'f', precision, 64)
}

// formatValue renders any cell as text.
func formatValue(v table.Value, precision int) string {
	if f, ok := v.Float(); ok {
		return formatFloat(f, precision)
	}
	return v.Label()
}

// jsonValue renders a cell for JSON encoding; NaN becomes null.
func jsonValue(v table.Value, precision int) interface{} {
	f, ok := v.Float()
	if !ok {
		return v.Label()
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if precision >= 0 {
		rounded, _ := strconv.ParseFloat(strconv.FormatFloat(f, 'f', precision, 64), 64)
		return rounded
	}
	return f
}

// records renders the header and every row as text.
func records(tbl *table.Table, precision int) ([]string, [][]string) {
	header := tbl.ColumnNames()
	rows := make([][]string, tbl.Len())
	for i := range rows {
		row := tbl.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = formatValue(v, precision)
		}
		rows[i] = cells
	}
	return header, rows
}
