package table

import (
	"fmt"
	"math"

	apperrors "groupagg/internal/errors"
)

// Column describes one column of a Table.
type Column struct {
	Name   string
	Kind   Kind
	Levels *Levels // set for KindFactor columns
}

// Row is one table row, aligned with the table's columns.
type Row []Value

// Field is one named output of a computation.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered set of named outputs, the "row record" a
// per-partition computation returns.
type Record []Field

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Get returns the value of the named field.
func (r Record) Get(name string) (Value, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Table is an ordered sequence of rows sharing one set of typed columns.
// A Table is not safe for concurrent mutation; readers may share it freely.
type Table struct {
	columns []Column
	index   map[string]int
	rows    []Row
}

// New creates a table with the given columns and rows. Every row must carry
// one value per column with the column's kind.
func New(columns []Column, rows ...Row) (*Table, error) {
	t := &Table{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
		rows:    make([]Row, 0, len(rows)),
	}
	for i, col := range columns {
		if col.Name == "" {
			return nil, apperrors.NewSchemaError(fmt.Sprintf("column %d has no name", i), nil)
		}
		if _, dup := t.index[col.Name]; dup {
			return nil, apperrors.NewSchemaError(fmt.Sprintf("duplicate column %q", col.Name), nil)
		}
		if col.Kind == KindFactor && col.Levels == nil {
			return nil, apperrors.NewSchemaError(fmt.Sprintf("factor column %q has no levels", col.Name), nil)
		}
		t.columns[i] = col
		t.index[col.Name] = i
	}
	for _, row := range rows {
		if err := t.Append(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is like New but panics on error. Intended for fixtures.
func MustNew(columns []Column, rows ...Row) *Table {
	t, err := New(columns, rows...)
	if err != nil {
		panic(err)
	}
	return t
}

// Append validates row against the schema and adds it.
func (t *Table) Append(row Row) error {
	if len(row) != len(t.columns) {
		return apperrors.NewSchemaError(
			fmt.Sprintf("row %d has %d values, want %d", len(t.rows), len(row), len(t.columns)), nil)
	}
	for i, v := range row {
		col := t.columns[i]
		if v.Kind() != col.Kind {
			return apperrors.NewSchemaError(
				fmt.Sprintf("row %d column %q: got %s value, want %s", len(t.rows), col.Name, v.Kind(), col.Kind), nil)
		}
		if col.Kind == KindFactor && !col.Levels.Has(v.Label()) {
			return apperrors.NewSchemaError(
				fmt.Sprintf("row %d column %q: %q is not a level", len(t.rows), col.Name, v.Label()), nil)
		}
	}
	stored := make(Row, len(row))
	copy(stored, row)
	t.rows = append(t.rows, stored)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the column descriptors.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Column returns the named column descriptor.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Row returns row i. The returned slice must not be modified.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Value returns the cell at row i in the named column.
func (t *Table) Value(i int, column string) (Value, error) {
	c, ok := t.index[column]
	if !ok {
		return Value{}, apperrors.NewSchemaError(fmt.Sprintf("column %q not found", column), nil)
	}
	if i < 0 || i >= len(t.rows) {
		return Value{}, fmt.Errorf("row %d out of range [0,%d)", i, len(t.rows))
	}
	return t.rows[i][c], nil
}

// Floats returns the named numeric column as a slice.
func (t *Table) Floats(column string) ([]float64, error) {
	c, ok := t.index[column]
	if !ok {
		return nil, apperrors.NewSchemaError(fmt.Sprintf("column %q not found", column), nil)
	}
	if t.columns[c].Kind != KindNumber {
		return nil, apperrors.NewSchemaError(
			fmt.Sprintf("column %q is %s, not numeric", column, t.columns[c].Kind), nil)
	}
	out := make([]float64, len(t.rows))
	for i, row := range t.rows {
		out[i], _ = row[c].Float()
	}
	return out, nil
}

// FloatsNonNaN is like Floats but drops NaN cells.
func (t *Table) FloatsNonNaN(column string) ([]float64, error) {
	all, err := t.Floats(column)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, f := range all {
		if !math.IsNaN(f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Select returns a table with the rows at the given positions, in that order.
// Rows are shared with t, not copied.
func (t *Table) Select(indices []int) *Table {
	sub := &Table{columns: t.columns, index: t.index, rows: make([]Row, len(indices))}
	for i, idx := range indices {
		sub.rows[i] = t.rows[idx]
	}
	return sub
}

// Filter returns the rows for which keep returns true, in their original order.
func (t *Table) Filter(keep func(Row) bool) *Table {
	var indices []int
	for i, row := range t.rows {
		if keep(row) {
			indices = append(indices, i)
		}
	}
	return t.Select(indices)
}

// Where returns the rows whose named column equals v.
func (t *Table) Where(column string, v Value) (*Table, error) {
	c, ok := t.index[column]
	if !ok {
		return nil, apperrors.NewSchemaError(fmt.Sprintf("column %q not found", column), nil)
	}
	return t.Filter(func(r Row) bool { return r[c].Equal(v) }), nil
}
