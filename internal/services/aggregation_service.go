package services

import (
	"context"
	"log/slog"

	"groupagg/internal/aggregate"
	"groupagg/internal/compute"
	apperrors "groupagg/internal/errors"
	"groupagg/internal/table"
)

// AggregateRequest describes one split-apply-combine pass.
type AggregateRequest struct {
	GroupBy []string
	// Compute lists computation specs such as "max:lifeExp"; their fields are
	// concatenated in list order.
	Compute []string
	// Ordering overrides the service default when non-empty.
	Ordering string
	// Where holds "column=value" row conditions applied before grouping.
	Where []string
}

// AggregationService runs aggregation passes. One Aggregator is kept per
// ordering policy so per-request overrides reuse the same instruments.
type AggregationService struct {
	aggregators map[aggregate.Ordering]*aggregate.Aggregator
	defaultOrd  aggregate.Ordering
	logger      *slog.Logger
}

// NewAggregationService creates the service from the aggregator defaults.
func NewAggregationService(cfg aggregate.Config, logger *slog.Logger) *AggregationService {
	if logger == nil {
		logger = slog.Default()
	}

	aggregators := make(map[aggregate.Ordering]*aggregate.Aggregator, 3)
	for _, o := range []aggregate.Ordering{aggregate.OrderAppearance, aggregate.OrderSorted, aggregate.OrderLevels} {
		aggregators[o] = aggregate.NewAggregator(logger, aggregate.Config{Workers: cfg.Workers, Ordering: o})
	}

	return &AggregationService{
		aggregators: aggregators,
		defaultOrd:  cfg.Ordering,
		logger:      logger.With(slog.String("component", "aggregation_service")),
	}
}

// Workers returns the effective worker count of the pool.
func (s *AggregationService) Workers() int {
	return s.aggregators[s.defaultOrd].Workers()
}

// Aggregate subsets tbl by req.Where, then groups it by req.GroupBy and
// applies the parsed computations.
func (s *AggregationService) Aggregate(ctx context.Context, tbl *table.Table, req AggregateRequest) (*table.Table, error) {
	if tbl == nil {
		return nil, apperrors.NewAppValidationError("no input table")
	}

	ordering := s.defaultOrd
	if req.Ordering != "" {
		o, err := aggregate.ParseOrdering(req.Ordering)
		if err != nil {
			return nil, apperrors.NewAppValidationError(err.Error())
		}
		ordering = o
	}

	fn, err := compute.ParseList(req.Compute)
	if err != nil {
		return nil, err
	}

	if len(req.Where) > 0 {
		before := tbl.Len()
		if tbl, err = Subset(tbl, req.Where); err != nil {
			return nil, err
		}
		s.logger.DebugContext(ctx, "rows subset",
			slog.Any("where", req.Where),
			slog.Int("rows_before", before),
			slog.Int("rows_after", tbl.Len()))
	}

	return s.aggregators[ordering].Aggregate(ctx, tbl, req.GroupBy, fn)
}
