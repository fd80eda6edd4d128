// Package batch runs one MCP tool action over several identifiers, such as
// calendar IDs, and reports a result per identifier.
package batch
