package compute

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"groupagg/internal/aggregate"
	"groupagg/internal/table"
)

// LinearFit regresses column y on column x by ordinary least squares and
// returns the fields "intercept" and "slope". Rows where either value is
// missing are skipped.
func LinearFit(y, x string, opts ...Option) aggregate.ComputeFunc {
	o := applyOptions(opts)
	return func(_ context.Context, p aggregate.Partition) (table.Record, error) {
		ys, err := p.Rows.Floats(y)
		if err != nil {
			return nil, err
		}
		xs, err := p.Rows.Floats(x)
		if err != nil {
			return nil, err
		}

		fx := make([]float64, 0, len(xs))
		fy := make([]float64, 0, len(ys))
		for i := range xs {
			if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
				continue
			}
			fx = append(fx, xs[i]-o.shift)
			fy = append(fy, ys[i])
		}
		if len(fx) < 2 || stat.Variance(fx, nil) == 0 {
			return nil, fmt.Errorf("linear fit of %s on %s with %d points: %w", y, x, len(fx), ErrTooFewPoints)
		}

		alpha, beta := stat.LinearRegression(fx, fy, nil, false)
		return table.Record{
			{Name: "intercept", Value: table.Number(alpha)},
			{Name: "slope", Value: table.Number(beta)},
		}, nil
	}
}
