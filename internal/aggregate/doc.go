// Package aggregate implements the split-apply-combine pass over a table.
//
// Aggregate partitions a table by the distinct combinations of one or more
// grouping columns, hands each partition to a caller-supplied ComputeFunc and
// reassembles the returned records into a single rectangular table. The
// result carries the grouping columns first, followed by the computed fields.
//
// Output rows are ordered lexicographically over the grouping columns. Each
// column's values are ranked according to the Aggregator's Ordering; the
// default ranks values by first appearance in the input, so groups seen as
// [B, A, B, C] come out as [B, A, C].
//
// Partitions may be computed concurrently by a bounded worker pool. The
// output is identical for any worker count, and the first failing partition
// aborts the pass with a COMPUTE error naming its GroupKey.
package aggregate
