// Package compute provides ready-made per-partition computations for the
// aggregator: summary statistics, counts, first values and a least-squares
// line fit. Every constructor takes its parameters explicitly and returns a
// pure aggregate.ComputeFunc.
//
//	fn := compute.Combine(
//		compute.MaxOf("lifeExp"),
//		compute.LinearFit("lifeExp", "year", compute.WithShift(1952)),
//	)
//
// Parse builds the same functions from textual specs such as "max:lifeExp"
// or "linfit:lifeExp:year:1952".
package compute
