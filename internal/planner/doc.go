// Package planner runs the full text-to-calendar pipeline for one request.
//
// Apply checks the request, builds a calendar client from the caller's
// bearer token, resolves the time zone, asks the translator for a plan,
// executes it and writes an audit record. Preview stops after translation.
//
// Both the HTTP API and the MCP tools sit on top of a single Service.
package planner
