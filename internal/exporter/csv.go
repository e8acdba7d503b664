package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"groupagg/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes tbl as comma-separated text with a header row.
func WriteCSV(w io.Writer, tbl *table.Table, opts WriteOptions) error {
	return writeDelimited(w, tbl, ',', opts)
}

// WriteTSV writes tbl as tab-separated text with a header row.
func WriteTSV(w io.Writer, tbl *table.Table, opts WriteOptions) error {
	return writeDelimited(w, tbl, '\t', opts)
}

func writeDelimited(w io.Writer, tbl *table.Table, comma rune, opts WriteOptions) error {
	// Write BOM if requested (helps Excel recognize UTF-8)
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	header, rows := records(tbl, opts.Precision)

	writer := csv.NewWriter(w)
	writer.Comma = comma
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range rows {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
