// Package shared is the parent of helpers used by several groupagg packages
// without belonging to any of them.
//
// The testutil subpackage provides the gapminder fixture shared by the
// aggregate, compute, loader and transport tests, and a buffered slog handler
// for asserting on log output:
//
//	logger, handler := testutil.NewTestLogger(t)
//	svc := services.NewAggregationService(aggregate.DefaultConfig(), logger)
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "aggregation completed")
//
// Nothing here may import the packages it serves, so tests in those packages
// can depend on it without cycles.
package shared
