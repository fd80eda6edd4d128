// Package server holds the shared runtime state and the auxiliary HTTP
// servers of textcal.
//
// ServerContext carries the planner, the local mirror and the token provider
// used by the stdio MCP transport and the CLI. HealthChecker serves the
// /healthz and /readyz endpoints; readiness also pings the mirror database.
// MetricsServer exposes Prometheus metrics on a dedicated port so that
// operational data stays off the API listener.
package server
