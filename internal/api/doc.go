// Package api serves the optional operator status endpoint.
//
// Routes:
//
//	GET /healthz          liveness probe, always 200 while the process runs
//	GET /api/status       session and job counters plus toolchain availability
//	GET /api/history      recent jobs from the ledger (?limit=N, default 20)
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// When a token is configured every route except /healthz requires
// "Authorization: Bearer <token>".
package api
