// Package services holds the business layer behind the HTTP handlers and the
// CLI: building tables from request payloads, row subsetting, running an
// aggregation pass with a per-request ordering policy, and health reporting.
//
// Services take their collaborators and a *slog.Logger in the constructor and
// carry no HTTP types, so both transports share them.
package services
