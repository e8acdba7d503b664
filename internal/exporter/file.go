package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"groupagg/internal/table"
)

// Write renders tbl to w in the given format.
func Write(w io.Writer, tbl *table.Table, format Format, opts WriteOptions) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, tbl, opts)
	case FormatTSV:
		return WriteTSV(w, tbl, opts)
	case FormatJSON:
		return WriteJSON(w, tbl, opts)
	case FormatHTML:
		return WriteHTML(w, tbl, opts)
	case FormatXLSX:
		return WriteXLSX(w, tbl, opts)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteFile renders tbl into path, creating parent directories as needed.
func WriteFile(path string, tbl *table.Table, format Format, opts WriteOptions) error {
	slog.Info("Writing table",
		slog.String("file_path", path),
		slog.String("format", string(format)),
		slog.Int("record_count", tbl.Len()))

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, tbl, format, opts); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
