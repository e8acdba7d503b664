package compute

import (
	"context"
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"groupagg/internal/aggregate"
	"groupagg/internal/table"
)

var (
	// ErrNoData is returned when a partition has no usable values for a column.
	ErrNoData = errors.New("no non-missing values")
	// ErrTooFewPoints is returned when a line cannot be fitted.
	ErrTooFewPoints = errors.New("at least two distinct x values are required")
)

// Option customises a computation.
type Option func(*options)

type options struct {
	name  string
	shift float64
}

// WithName overrides the output field name of a single-field computation.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithShift subtracts v from the x column before a line fit, so the intercept
// is reported at x = v. The default is 0.
func WithShift(v float64) Option {
	return func(o *options) { o.shift = v }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fieldName builds names such as "maxLifeExp" from a prefix and a column.
func fieldName(prefix, column string) string {
	r, size := utf8.DecodeRuneInString(column)
	if r == utf8.RuneError {
		return prefix
	}
	return prefix + string(unicode.ToUpper(r)) + column[size:]
}

// Count returns the number of rows in the partition as field "n".
func Count(opts ...Option) aggregate.ComputeFunc {
	o := applyOptions(opts)
	name := "n"
	if o.name != "" {
		name = o.name
	}
	return func(_ context.Context, p aggregate.Partition) (table.Record, error) {
		return table.Record{{Name: name, Value: table.Number(float64(p.Rows.Len()))}}, nil
	}
}

// First returns the first value of column in the partition, of any kind.
func First(column string, opts ...Option) aggregate.ComputeFunc {
	o := applyOptions(opts)
	name := fieldName("first", column)
	if o.name != "" {
		name = o.name
	}
	return func(_ context.Context, p aggregate.Partition) (table.Record, error) {
		if p.Rows.Len() == 0 {
			return nil, fmt.Errorf("%s: %w", column, ErrNoData)
		}
		v, err := p.Rows.Value(0, column)
		if err != nil {
			return nil, err
		}
		return table.Record{{Name: name, Value: v}}, nil
	}
}

// Combine runs fns in order on the same partition and concatenates their
// records.
func Combine(fns ...aggregate.ComputeFunc) aggregate.ComputeFunc {
	return func(ctx context.Context, p aggregate.Partition) (table.Record, error) {
		var out table.Record
		for _, fn := range fns {
			rec, err := fn(ctx, p)
			if err != nil {
				return nil, err
			}
			out = append(out, rec...)
		}
		return out, nil
	}
}
