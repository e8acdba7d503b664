package compute

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"groupagg/internal/aggregate"
	"groupagg/internal/table"
)

// reducer folds a non-empty slice into one number.
type reducer func(x []float64) float64

// summary builds a single-field numeric computation. Missing values (NaN) are
// dropped before reducing.
func summary(prefix, column string, reduce reducer, opts []Option) aggregate.ComputeFunc {
	o := applyOptions(opts)
	name := fieldName(prefix, column)
	if o.name != "" {
		name = o.name
	}
	return func(_ context.Context, p aggregate.Partition) (table.Record, error) {
		x, err := p.Rows.FloatsNonNaN(column)
		if err != nil {
			return nil, err
		}
		if len(x) == 0 {
			return nil, fmt.Errorf("%s: %w", column, ErrNoData)
		}
		return table.Record{{Name: name, Value: table.Number(reduce(x))}}, nil
	}
}

// MaxOf returns the largest value of column as "max<Column>".
func MaxOf(column string, opts ...Option) aggregate.ComputeFunc {
	return summary("max", column, floats.Max, opts)
}

// MinOf returns the smallest value of column as "min<Column>".
func MinOf(column string, opts ...Option) aggregate.ComputeFunc {
	return summary("min", column, floats.Min, opts)
}

// SumOf returns the sum of column as "sum<Column>".
func SumOf(column string, opts ...Option) aggregate.ComputeFunc {
	return summary("sum", column, floats.Sum, opts)
}

// MeanOf returns the arithmetic mean of column as "mean<Column>".
func MeanOf(column string, opts ...Option) aggregate.ComputeFunc {
	return summary("mean", column, func(x []float64) float64 {
		return stat.Mean(x, nil)
	}, opts)
}

// StdDevOf returns the sample standard deviation of column as "sd<Column>".
// A single observation yields NaN.
func StdDevOf(column string, opts ...Option) aggregate.ComputeFunc {
	return summary("sd", column, func(x []float64) float64 {
		return stat.StdDev(x, nil)
	}, opts)
}

// MedianOf returns the median of column as "median<Column>". Even-sized
// inputs average the two middle values.
func MedianOf(column string, opts ...Option) aggregate.ComputeFunc {
	return summary("median", column, median, opts)
}

func median(x []float64) float64 {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return stat.Mean(sorted[mid-1:mid+1], nil)
}
