package loader

import (
	"math"
	"strconv"
	"strings"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/table"
)

// missingLabel stands in for absent text cells.
const missingLabel = "NA"

// columnData accumulates one column's cells before the table is built.
type columnData struct {
	name    string
	numeric bool
	nums    []float64
	strs    []string
	// levels holds declared factor levels, such as an Arrow dictionary.
	levels []string
}

func (c *columnData) len() int {
	if c.numeric {
		return len(c.nums)
	}
	return len(c.strs)
}

// declareLevels records labels as factor levels, keeping the first
// occurrence of each.
func (c *columnData) declareLevels(labels ...string) {
	for _, l := range labels {
		dup := false
		for _, have := range c.levels {
			if have == l {
				dup = true
				break
			}
		}
		if !dup {
			c.levels = append(c.levels, l)
		}
	}
}

// fromCells infers column kinds from a header and string records.
func fromCells(header []string, records [][]string, opts Options) ([]*columnData, error) {
	cols := make([]*columnData, len(header))
	for j, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperrors.NewParsingError("header has an empty column name", nil).
				WithContext("column", j+1)
		}
		cols[j] = &columnData{name: name}
	}

	for j, c := range cols {
		cells := make([]string, len(records))
		numeric := true
		nums := make([]float64, len(records))
		for i, rec := range records {
			cell := ""
			if j < len(rec) {
				cell = strings.TrimSpace(rec[j])
			}
			cells[i] = cell
			if !numeric {
				continue
			}
			if opts.isNA(cell) {
				nums[i] = math.NaN()
				continue
			}
			f, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				numeric = false
				continue
			}
			nums[i] = f
		}

		if numeric {
			c.numeric = true
			c.nums = nums
			continue
		}
		for i, cell := range cells {
			if opts.isNA(cell) {
				cells[i] = missingLabel
			}
		}
		c.strs = cells
	}
	return cols, nil
}

// build assembles the accumulated columns into a table.
func build(cols []*columnData, opts Options) (*table.Table, error) {
	if len(cols) == 0 {
		return nil, apperrors.NewParsingError("input has no columns", nil)
	}

	n := cols[0].len()
	columns := make([]table.Column, len(cols))
	for j, c := range cols {
		if c.len() != n {
			return nil, apperrors.NewParsingError("columns have different lengths", nil).
				WithContext("column", c.name)
		}
		switch {
		case c.numeric:
			columns[j] = table.Column{Name: c.name, Kind: table.KindNumber}
		case c.levels != nil:
			c.declareLevels(c.strs...)
			levels, err := table.NewLevels(c.levels...)
			if err != nil {
				return nil, apperrors.NewParsingError("invalid factor levels", err).WithContext("column", c.name)
			}
			columns[j] = table.Column{Name: c.name, Kind: table.KindFactor, Levels: levels}
		case opts.StringsAsFactors:
			levels := table.LevelsSorted(c.strs)
			if opts.LevelOrder == LevelsAppearance {
				levels = table.LevelsInAppearanceOrder(c.strs)
			}
			columns[j] = table.Column{Name: c.name, Kind: table.KindFactor, Levels: levels}
		default:
			columns[j] = table.Column{Name: c.name, Kind: table.KindText}
		}
	}

	tbl, err := table.New(columns)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		row := make(table.Row, len(cols))
		for j, c := range cols {
			col := columns[j]
			switch col.Kind {
			case table.KindNumber:
				row[j] = table.Number(c.nums[i])
			case table.KindFactor:
				v, err := col.Levels.Value(c.strs[i])
				if err != nil {
					return nil, apperrors.NewParsingError("unknown factor level", err).WithContext("column", c.name)
				}
				row[j] = v
			default:
				row[j] = table.Text(c.strs[i])
			}
		}
		if err := tbl.Append(row); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
