package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/loader"
	"groupagg/internal/table"
)

// ColumnSpec declares one column of an inline table.
type ColumnSpec struct {
	Name   string   `json:"name" validate:"required"`
	Kind   string   `json:"kind" validate:"required,oneof=number text factor"`
	Levels []string `json:"levels,omitempty"`
}

// BuildTable converts an inline column/row payload into a Table. Number cells
// accept JSON numbers, numeric strings and null (NaN). Factor columns without
// declared levels take their levels in first-appearance order.
func BuildTable(columns []ColumnSpec, rows [][]interface{}) (*table.Table, error) {
	cols := make([]table.Column, len(columns))
	for j, spec := range columns {
		kind, err := table.ParseKind(spec.Kind)
		if err != nil {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("column %q: %v", spec.Name, err))
		}
		cols[j] = table.Column{Name: spec.Name, Kind: kind}
		if kind != table.KindFactor {
			continue
		}
		if len(spec.Levels) > 0 {
			levels, err := table.NewLevels(spec.Levels...)
			if err != nil {
				return nil, apperrors.NewAppValidationError(fmt.Sprintf("column %q: %v", spec.Name, err))
			}
			cols[j].Levels = levels
			continue
		}
		labels := make([]string, 0, len(rows))
		for _, row := range rows {
			if j < len(row) {
				labels = append(labels, cellLabel(row[j]))
			}
		}
		cols[j].Levels = table.LevelsInAppearanceOrder(labels)
	}

	tbl, err := table.New(cols)
	if err != nil {
		return nil, err
	}
	for i, raw := range rows {
		if len(raw) != len(cols) {
			return nil, apperrors.NewAppValidationError(
				fmt.Sprintf("row %d has %d cells, want %d", i, len(raw), len(cols)))
		}
		row := make(table.Row, len(cols))
		for j, cell := range raw {
			v, err := cellValue(cols[j], cell)
			if err != nil {
				return nil, apperrors.NewAppValidationError(fmt.Sprintf("row %d, column %q: %v", i, cols[j].Name, err))
			}
			row[j] = v
		}
		if err := tbl.Append(row); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func cellLabel(cell interface{}) string {
	switch c := cell.(type) {
	case nil:
		return "NA"
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}

func cellValue(col table.Column, cell interface{}) (table.Value, error) {
	switch col.Kind {
	case table.KindNumber:
		switch c := cell.(type) {
		case nil:
			return table.Number(math.NaN()), nil
		case float64:
			return table.Number(c), nil
		case int:
			return table.Number(float64(c)), nil
		case string:
			if c == "" || c == "NA" {
				return table.Number(math.NaN()), nil
			}
			f, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return table.Value{}, fmt.Errorf("%q is not a number", c)
			}
			return table.Number(f), nil
		default:
			return table.Value{}, fmt.Errorf("unsupported cell %v", cell)
		}
	case table.KindFactor:
		return col.Levels.Value(cellLabel(cell))
	default:
		return table.Text(cellLabel(cell)), nil
	}
}

// ParseCondition splits "column=value" into its parts.
func ParseCondition(cond string) (column, value string, err error) {
	column, value, ok := strings.Cut(cond, "=")
	column = strings.TrimSpace(column)
	if !ok || column == "" {
		return "", "", apperrors.NewAppValidationError(fmt.Sprintf("condition %q must have the form column=value", cond))
	}
	return column, value, nil
}

// Subset keeps the rows matching every "column=value" condition. The value
// is interpreted according to the column's kind.
func Subset(tbl *table.Table, conditions []string) (*table.Table, error) {
	empty := false
	for _, cond := range conditions {
		name, raw, err := ParseCondition(cond)
		if err != nil {
			return nil, err
		}
		col, ok := tbl.Column(name)
		if !ok {
			return nil, apperrors.NewSchemaError(
				fmt.Sprintf("condition column %q not found in table (columns: %v)", name, tbl.ColumnNames()), nil)
		}

		var v table.Value
		switch col.Kind {
		case table.KindNumber:
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, apperrors.NewAppValidationError(fmt.Sprintf("condition %q: %q is not a number", cond, raw))
			}
			v = table.Number(f)
		case table.KindFactor:
			if !col.Levels.Has(raw) {
				// No row can match an undeclared level; keep checking the
				// remaining conditions.
				empty = true
				continue
			}
			v = col.Levels.MustValue(raw)
		default:
			v = table.Text(raw)
		}

		if tbl, err = tbl.Where(name, v); err != nil {
			return nil, err
		}
	}
	if empty {
		return tbl.Filter(func(table.Row) bool { return false }), nil
	}
	return tbl, nil
}

// LoadUpload stores an uploaded document under a temporary name carrying the
// original extension and loads it with loader.LoadFile.
func LoadUpload(ctx context.Context, filename string, r io.Reader, sheet string, opts loader.Options) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".csv"
	}

	tmp, err := os.CreateTemp("", "groupagg-upload-*"+ext)
	if err != nil {
		return nil, apperrors.NewStorageError("create upload file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, apperrors.NewStorageError("store upload", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, apperrors.NewStorageError("store upload", err)
	}

	return loader.LoadFile(ctx, tmp.Name(), sheet, opts)
}
