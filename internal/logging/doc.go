// Package logging provides structured logging helpers for textcal.
//
// All logging goes through log/slog. This package fixes attribute names so
// that plan, executor and calendar logs can be joined on request_id,
// action and remote_id.
//
// # Usage Patterns
//
//	logger := logging.WithRequest(logging.WithComponent(base, "executor"), reqID)
//	logger.Info("operation applied",
//	    logging.Index(0),
//	    logging.Action("create"),
//	    logging.RemoteID(id))
//
// # Security Considerations
//
//   - Calendar IDs are hashed with Calendar
//   - Free text is logged as its length only, via TextLength
//   - Access tokens are never logged; use SanitizeToken when a hint is needed
package logging
