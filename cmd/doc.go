// Package cmd implements the command-line interface for textcal.
//
// This package provides the following commands:
//   - apply: Translate free text into calendar operations and execute them
//   - preview: Show the operations a text would produce without executing them
//   - serve: Start the HTTP API, or the MCP server with --transport stdio
//   - mirror: List, export or clear the local mirror of applied events
//   - auth: Obtain and inspect Google OAuth tokens
//   - config: Write or locate the configuration file
//   - version: Display version information
package cmd
