// Package http implements the HTTP handlers of the aggregation service. It is
// a thin layer between chi routing and the services package: handlers decode
// and validate requests, call a service, and render the result table or an
// RFC 7807 problem.
//
// # Endpoints
//
//	POST /api/v1/aggregate         inline table as JSON
//	POST /api/v1/aggregate/upload  multipart upload (csv, tsv, xlsx, parquet)
//	GET  /healthz                  health status
//	GET  /livez                    liveness with runtime details
//	GET  /version                  build information
//	GET  /metrics                  Prometheus metrics
//
// Aggregation results are rendered as JSON by default; ?format=csv, html or
// xlsx selects another exporter format.
//
// # Errors
//
// Failures are written through errors.ErrorHandler, so a missing grouping
// column answers 422 with type /errors/schema, and a failed computation
// answers 422 with type /errors/compute and the failing group in group_key.
package http
