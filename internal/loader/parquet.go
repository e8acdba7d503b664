package loader

import (
	"context"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/table"
)

// LoadParquet reads a Parquet file through its Arrow representation.
func LoadParquet(ctx context.Context, path string, opts Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open parquet file", err).WithContext("path", path)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	pf, err := file.NewParquetReader(f, file.WithReadProps(parquet.NewReaderProperties(mem)))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to create parquet reader", err).WithContext("path", path)
	}
	defer pf.Close()

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to create arrow reader", err).WithContext("path", path)
	}

	arrowTable, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read parquet data", err).WithContext("path", path)
	}
	defer arrowTable.Release()

	cols, err := arrowColumns(arrowTable.Schema())
	if err != nil {
		return nil, err
	}

	tr := array.NewTableReader(arrowTable, arrowTable.NumRows())
	defer tr.Release()
	for tr.Next() {
		if err := appendRecord(cols, tr.Record()); err != nil {
			return nil, err
		}
	}
	if err := tr.Err(); err != nil {
		return nil, apperrors.NewParsingError("error reading arrow table", err).WithContext("path", path)
	}

	tbl, err := build(cols, opts)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "loaded parquet file",
		slog.String("path", path),
		slog.Int("rows", tbl.Len()))
	return tbl, nil
}
