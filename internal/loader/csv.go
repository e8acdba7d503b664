package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads delimited text with a header row.
func LoadCSV(ctx context.Context, r io.Reader, opts Options) (*table.Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewParsingError("input is empty, a header row is required", nil)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read header", err)
	}

	var records [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read record", err).
				WithContext("record", len(records)+1)
		}
		if len(rec) > len(header) {
			return nil, apperrors.NewParsingError("record has more fields than the header", nil).
				WithContext("record", len(records)+1)
		}
		records = append(records, rec)
	}

	cols, err := fromCells(header, records, opts)
	if err != nil {
		return nil, err
	}
	tbl, err := build(cols, opts)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "loaded delimited text",
		slog.Int("rows", tbl.Len()),
		slog.Any("columns", tbl.ColumnNames()))
	return tbl, nil
}
