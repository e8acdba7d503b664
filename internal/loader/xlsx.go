package loader

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/table"
)

// LoadXLSX reads a worksheet whose first row is the header. An empty sheet
// name selects the first sheet of the workbook.
func LoadXLSX(ctx context.Context, path, sheet string, opts Options) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open workbook", err).WithContext("path", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet", err).WithContext("sheet", sheet)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("sheet is empty, a header row is required", nil).
			WithContext("sheet", sheet)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// GetRows trims trailing empty cells, so short rows are padded by fromCells.
	cols, err := fromCells(rows[0], rows[1:], opts)
	if err != nil {
		return nil, err
	}
	tbl, err := build(cols, opts)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "loaded worksheet",
		slog.String("path", path),
		slog.String("sheet", sheet),
		slog.Int("rows", tbl.Len()))
	return tbl, nil
}
