package loader

import (
	"fmt"
	"math"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/table"
)

// FromArrow converts an Arrow record. Numeric arrays become numbers, string
// arrays text or factors, and dictionary-encoded strings factors whose levels
// follow the dictionary order.
func FromArrow(rec arrow.Record, opts Options) (*table.Table, error) {
	cols, err := arrowColumns(rec.Schema())
	if err != nil {
		return nil, err
	}
	if err := appendRecord(cols, rec); err != nil {
		return nil, err
	}
	return build(cols, opts)
}

func arrowColumns(schema *arrow.Schema) ([]*columnData, error) {
	cols := make([]*columnData, schema.NumFields())
	for j, field := range schema.Fields() {
		numeric, err := isNumericType(field.Type)
		if err != nil {
			return nil, apperrors.NewParsingError(err.Error(), nil).WithContext("column", field.Name)
		}
		cols[j] = &columnData{name: field.Name, numeric: numeric}
	}
	return cols, nil
}

func isNumericType(dt arrow.DataType) (bool, error) {
	switch dt.ID() {
	case arrow.FLOAT64, arrow.FLOAT32,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return true, nil
	case arrow.STRING, arrow.LARGE_STRING, arrow.BOOL:
		return false, nil
	case arrow.DICTIONARY:
		vt := dt.(*arrow.DictionaryType).ValueType.ID()
		if vt == arrow.STRING || vt == arrow.LARGE_STRING {
			return false, nil
		}
	}
	return false, fmt.Errorf("unsupported arrow type %s", dt)
}

// appendRecord adds the record's rows to cols, which must match its schema.
func appendRecord(cols []*columnData, rec arrow.Record) error {
	if int(rec.NumCols()) != len(cols) {
		return apperrors.NewParsingError("record does not match schema", nil)
	}
	for j, arr := range rec.Columns() {
		if err := appendArray(cols[j], arr); err != nil {
			return apperrors.NewParsingError("failed to convert column", err).WithContext("column", cols[j].name)
		}
	}
	return nil
}

func appendArray(c *columnData, arr arrow.Array) error {
	n := arr.Len()
	if c.numeric {
		for i := 0; i < n; i++ {
			if arr.IsNull(i) {
				c.nums = append(c.nums, math.NaN())
				continue
			}
			f, err := numericAt(arr, i)
			if err != nil {
				return err
			}
			c.nums = append(c.nums, f)
		}
		return nil
	}

	if dict, ok := arr.(*array.Dictionary); ok {
		labels, err := stringValues(dict.Dictionary())
		if err != nil {
			return err
		}
		if c.levels == nil {
			c.levels = []string{}
		}
		c.declareLevels(labels...)
		for i := 0; i < n; i++ {
			if dict.IsNull(i) {
				c.strs = append(c.strs, missingLabel)
				continue
			}
			c.strs = append(c.strs, labels[dict.GetValueIndex(i)])
		}
		return nil
	}

	labels, err := stringValues(arr)
	if err != nil {
		return err
	}
	c.strs = append(c.strs, labels...)
	return nil
}

func numericAt(arr arrow.Array, i int) (float64, error) {
	switch a := arr.(type) {
	case *array.Float64:
		return a.Value(i), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Int64:
		return float64(a.Value(i)), nil
	case *array.Int32:
		return float64(a.Value(i)), nil
	case *array.Int16:
		return float64(a.Value(i)), nil
	case *array.Int8:
		return float64(a.Value(i)), nil
	case *array.Uint64:
		return float64(a.Value(i)), nil
	case *array.Uint32:
		return float64(a.Value(i)), nil
	case *array.Uint16:
		return float64(a.Value(i)), nil
	case *array.Uint8:
		return float64(a.Value(i)), nil
	default:
		return 0, fmt.Errorf("unsupported numeric array %s", arr.DataType())
	}
}

func stringValues(arr arrow.Array) ([]string, error) {
	out := make([]string, arr.Len())
	for i := range out {
		if arr.IsNull(i) {
			out[i] = missingLabel
			continue
		}
		switch a := arr.(type) {
		case *array.String:
			out[i] = a.Value(i)
		case *array.LargeString:
			out[i] = a.Value(i)
		case *array.Boolean:
			out[i] = strconv.FormatBool(a.Value(i))
		default:
			return nil, fmt.Errorf("unsupported text array %s", arr.DataType())
		}
	}
	return out, nil
}
