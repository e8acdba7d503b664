package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/table"
)

// LoadFile loads path according to its extension: .csv, .tsv and .txt
// (tab separated), .xlsx, or .parquet. sheet is used only for workbooks.
func LoadFile(ctx context.Context, path, sheet string, opts Options) (*table.Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return LoadXLSX(ctx, path, sheet, opts)
	case ".parquet":
		return LoadParquet(ctx, path, opts)
	case ".csv", ".tsv", ".txt":
		if ext != ".csv" && (opts.Delimiter == 0 || opts.Delimiter == ',') {
			opts.Delimiter = '\t'
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to open file", err).WithContext("path", path)
		}
		defer f.Close()
		tbl, err := LoadCSV(ctx, f, opts)
		if err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok {
				appErr.WithContext("path", path)
			}
			return nil, err
		}
		return tbl, nil
	default:
		return nil, apperrors.NewAppValidationError("unsupported file type " + ext).WithContext("path", path)
	}
}
