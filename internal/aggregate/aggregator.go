package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "groupagg/internal/errors"
	"groupagg/internal/table"
)

const instrumentationName = "groupagg/internal/aggregate"

// ComputeFunc computes a row record from one partition. It must be a pure
// function of its argument; extra parameters are bound by closure at the call
// site. The returned fields become the computed columns of the result, in order.
type ComputeFunc func(ctx context.Context, p Partition) (table.Record, error)

// Partition is the maximal sub-table sharing one GroupKey.
type Partition struct {
	Key GroupKey
	// Rows holds the member rows in their original order.
	Rows *table.Table
	// Index holds the members' row positions in the source table.
	Index []int
}

// Config holds aggregator options.
type Config struct {
	Workers  int      // 0 uses runtime.NumCPU(); 1 runs sequentially
	Ordering Ordering // group ordering policy
}

// DefaultConfig returns appearance ordering on all CPUs.
func DefaultConfig() Config {
	return Config{
		Workers:  0,
		Ordering: OrderAppearance,
	}
}

// Aggregator performs split-apply-combine passes. It holds no state between
// calls and is safe for concurrent use.
type Aggregator struct {
	logger   *slog.Logger
	workers  int
	ordering Ordering

	tracer     trace.Tracer
	runs       metric.Int64Counter
	partitions metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewAggregator creates an aggregator with the given configuration.
func NewAggregator(logger *slog.Logger, cfg Config) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	a := &Aggregator{
		logger:   logger.With(slog.String("component", "aggregator")),
		workers:  workers,
		ordering: cfg.Ordering,
		tracer:   otel.Tracer(instrumentationName),
	}
	a.initInstruments()
	return a
}

func (a *Aggregator) initInstruments() {
	meter := otel.Meter(instrumentationName)

	var err error
	if a.runs, err = meter.Int64Counter("groupagg.aggregate.runs",
		metric.WithDescription("Aggregation passes by outcome")); err != nil {
		a.logger.Warn("failed to create runs counter", slog.String("error", err.Error()))
		a.runs = noop.Int64Counter{}
	}
	if a.partitions, err = meter.Int64Counter("groupagg.aggregate.partitions",
		metric.WithDescription("Partitions materialised")); err != nil {
		a.logger.Warn("failed to create partitions counter", slog.String("error", err.Error()))
		a.partitions = noop.Int64Counter{}
	}
	if a.duration, err = meter.Float64Histogram("groupagg.aggregate.duration",
		metric.WithDescription("Aggregation pass duration"), metric.WithUnit("s")); err != nil {
		a.logger.Warn("failed to create duration histogram", slog.String("error", err.Error()))
		a.duration = noop.Float64Histogram{}
	}
}

// Workers returns the effective worker count.
func (a *Aggregator) Workers() int { return a.workers }

// Ordering returns the group ordering policy.
func (a *Aggregator) Ordering() Ordering { return a.ordering }

// Aggregate partitions tbl by the distinct combinations of groupColumns,
// applies fn to every partition and combines the records into one table:
// grouping columns first, then the computed fields in the order fn returns
// them. Only key combinations present in tbl produce rows.
//
// Errors are SCHEMA AppErrors for structural problems and COMPUTE AppErrors
// when fn fails; no partial result is returned.
func (a *Aggregator) Aggregate(ctx context.Context, tbl *table.Table, groupColumns []string, fn ComputeFunc) (*table.Table, error) {
	start := time.Now()

	if tbl == nil {
		return nil, apperrors.NewAppValidationError("aggregate: table is nil")
	}
	if fn == nil {
		return nil, apperrors.NewAppValidationError("aggregate: compute function is nil")
	}

	ctx, span := a.tracer.Start(ctx, "aggregate.Aggregate", trace.WithAttributes(
		attribute.StringSlice("group_columns", groupColumns),
		attribute.Int("rows", tbl.Len()),
		attribute.String("ordering", a.ordering.String()),
	))
	defer span.End()

	a.logger.InfoContext(ctx, "starting aggregation",
		slog.Int("rows", tbl.Len()),
		slog.Any("group_columns", groupColumns),
		slog.String("ordering", a.ordering.String()),
		slog.Int("workers", a.workers))

	result, groups, err := a.run(ctx, tbl, groupColumns, fn)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.ErrorContext(ctx, "aggregation failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", elapsed))
	} else {
		span.SetAttributes(attribute.Int("groups", groups))
		a.logger.InfoContext(ctx, "aggregation completed",
			slog.Int("groups", groups),
			slog.Int("columns", len(result.Columns())),
			slog.Duration("duration", elapsed))
	}

	attrs := metric.WithAttributes(attribute.String("status", status))
	a.runs.Add(ctx, 1, attrs)
	a.partitions.Add(ctx, int64(groups), attrs)
	a.duration.Record(ctx, elapsed.Seconds(), attrs)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *Aggregator) run(ctx context.Context, tbl *table.Table, groupColumns []string, fn ComputeFunc) (*table.Table, int, error) {
	keyCols, err := resolveColumns(tbl, groupColumns)
	if err != nil {
		return nil, 0, err
	}

	groups := split(tbl, keyCols, groupColumns)

	columns := tbl.Columns()
	keyDescs := make([]table.Column, len(keyCols))
	for j, c := range keyCols {
		keyDescs[j] = columns[c]
	}
	orderGroups(groups, keyDescs, a.ordering)

	records, err := a.apply(ctx, tbl, groups, fn)
	if err != nil {
		return nil, len(groups), err
	}

	result, err := combine(keyDescs, groups, records)
	if err != nil {
		return nil, len(groups), err
	}
	return result, len(groups), nil
}

// resolveColumns maps grouping column names to positions.
func resolveColumns(tbl *table.Table, groupColumns []string) ([]int, error) {
	if len(groupColumns) == 0 {
		return nil, schemaError("at least one grouping column is required")
	}
	seen := make(map[string]bool, len(groupColumns))
	keyCols := make([]int, len(groupColumns))
	for j, name := range groupColumns {
		if seen[name] {
			return nil, schemaError("grouping column %q listed twice", name)
		}
		seen[name] = true
		idx, ok := tbl.ColumnIndex(name)
		if !ok {
			return nil, schemaError("grouping column %q not found in table (columns: %v)", name, tbl.ColumnNames())
		}
		keyCols[j] = idx
	}
	return keyCols, nil
}

// split scans tbl once and returns groups in discovery order with stable
// membership.
func split(tbl *table.Table, keyCols []int, groupColumns []string) []*group {
	byHash := make(map[string]*group)
	var groups []*group

	for i := 0; i < tbl.Len(); i++ {
		row := tbl.Row(i)
		key := GroupKey{Columns: groupColumns, Values: make([]table.Value, len(keyCols))}
		for j, c := range keyCols {
			key.Values[j] = row[c]
		}
		h := key.hash()
		g, ok := byHash[h]
		if !ok {
			g = &group{key: key}
			byHash[h] = g
			groups = append(groups, g)
		}
		g.index = append(g.index, i)
	}
	return groups
}

// apply runs fn over every group, writing each record into its own slot so
// the assembly order never depends on completion order.
func (a *Aggregator) apply(ctx context.Context, tbl *table.Table, groups []*group, fn ComputeFunc) ([]table.Record, error) {
	records := make([]table.Record, len(groups))

	workers := a.workers
	if workers > len(groups) {
		workers = len(groups)
	}

	if workers <= 1 {
		for i, g := range groups {
			rec, err := a.applyOne(ctx, tbl, g, fn)
			if err != nil {
				return nil, err
			}
			records[i] = rec
		}
		return records, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, g := range groups {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			rec, err := a.applyOne(egCtx, tbl, g, fn)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	return records, nil
}

func (a *Aggregator) applyOne(ctx context.Context, tbl *table.Table, g *group, fn ComputeFunc) (rec table.Record, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	a.logger.DebugContext(ctx, "applying computation to partition",
		slog.String("group", g.key.String()),
		slog.Int("rows", len(g.index)))

	defer func() {
		if r := recover(); r != nil {
			err = computeError(g.key, fmt.Errorf("panic: %v", r))
		}
	}()

	rec, err = fn(ctx, Partition{Key: g.key, Rows: tbl.Select(g.index), Index: g.index})
	if err != nil {
		return nil, computeError(g.key, err)
	}
	return rec, nil
}

// combine validates that records form a rectangle and assembles the result.
func combine(keyDescs []table.Column, groups []*group, records []table.Record) (*table.Table, error) {
	columns := make([]table.Column, len(keyDescs))
	copy(columns, keyDescs)

	if len(records) > 0 {
		ref := records[0]
		names := make(map[string]bool, len(keyDescs)+len(ref))
		for _, kc := range keyDescs {
			names[kc.Name] = true
		}
		for _, f := range ref {
			if names[f.Name] {
				return nil, schemaError("computed field %q collides with a grouping column or another field", f.Name).
					WithContext(groupKeyContext, groups[0].key)
			}
			names[f.Name] = true
			columns = append(columns, table.Column{Name: f.Name, Kind: f.Value.Kind(), Levels: f.Value.Levels()})
		}
		for i := 1; i < len(records); i++ {
			if err := sameShape(ref, records[i]); err != nil {
				return nil, apperrors.NewSchemaError("computed records are not rectangular", err).
					WithContext(groupKeyContext, groups[i].key)
			}
		}
		for j, f := range ref {
			if f.Value.Kind() == table.KindFactor {
				columns[len(keyDescs)+j].Levels = mergeLevels(records, j)
			}
		}
	}

	result, err := table.New(columns)
	if err != nil {
		return nil, err
	}
	for i, g := range groups {
		row := make(table.Row, 0, len(columns))
		row = append(row, g.key.Values...)
		for j, f := range records[i] {
			v := f.Value
			if levels := columns[len(keyDescs)+j].Levels; levels != nil && v.Levels() != levels {
				v = levels.MustValue(v.Label())
			}
			row = append(row, v)
		}
		if err := result.Append(row); err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok {
				appErr.WithContext(groupKeyContext, g.key)
			}
			return nil, err
		}
	}
	return result, nil
}

// mergeLevels returns the level set of factor field j across records. When
// partitions built their own level sets, the labels are unioned in the first
// record's order followed by unseen labels as they appear.
func mergeLevels(records []table.Record, j int) *table.Levels {
	first := records[0][j].Value.Levels()
	shared := true
	for _, rec := range records[1:] {
		if rec[j].Value.Levels() != first {
			shared = false
			break
		}
	}
	if shared {
		return first
	}

	seen := make(map[string]bool)
	var labels []string
	for _, rec := range records {
		for _, label := range rec[j].Value.Levels().Labels() {
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	return table.MustLevels(labels...)
}

func sameShape(ref, rec table.Record) error {
	if len(ref) != len(rec) {
		return fmt.Errorf("got fields %v, want %v", rec.Names(), ref.Names())
	}
	for i := range ref {
		if ref[i].Name != rec[i].Name {
			return fmt.Errorf("got fields %v, want %v", rec.Names(), ref.Names())
		}
		if ref[i].Value.Kind() != rec[i].Value.Kind() {
			return fmt.Errorf("field %q: got %s, want %s", rec[i].Name, rec[i].Value.Kind(), ref[i].Value.Kind())
		}
	}
	return nil
}
