// Package logging assembles structured slog loggers and formatting helpers used
// across hardsub.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context helpers so session and job code can tag log lines with
// session and job identifiers. A no-op logger is provided for tests and for
// wiring code that receives a nil logger.
package logging
