// Package exporter renders tables as CSV, JSON, HTML or Excel workbooks.
//
// Every writer emits columns in table order and rows in table order. Missing
// numbers (NaN) are written as "NA" in text formats and null in JSON.
//
// Example usage:
//
//	opts := exporter.DefaultWriteOptions()
//	opts.BOMPrefix = true
//	err := exporter.WriteCSV(os.Stdout, result, opts)
//
//	// Or choose the format by name
//	err = exporter.WriteFile("out/summary.xlsx", result, exporter.FormatXLSX, opts)
package exporter
