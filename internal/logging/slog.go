package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation  = "operation"
	KeyAction     = "action"
	KeyCalendar   = "calendar_hash"
	KeyRemoteID   = "remote_id"
	KeyRequestID  = "request_id"
	KeyIndex      = "index"
	KeyTimeZone   = "time_zone"
	KeyDuration   = "duration"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyTool       = "tool"
	KeyComponent  = "component"
	KeyTextLength = "text_length"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to keep this package free of OpenTelemetry imports.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Format selects the slog handler used by New.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New builds a logger writing to w. Unknown levels fall back to info and
// unknown formats to text.
func New(w io.Writer, level string, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a logger tagged with the component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String(KeyComponent, component))
}

// WithRequest returns a logger carrying the plan request ID.
func WithRequest(logger *slog.Logger, requestID string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String(KeyRequestID, requestID))
}

// Operation returns a slog attribute for a remote calendar operation.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Action returns a slog attribute for a plan action (create, update, delete).
func Action(action string) slog.Attr {
	return slog.String(KeyAction, action)
}

// Index returns a slog attribute for an operation's position in its plan.
func Index(i int) slog.Attr {
	return slog.Int(KeyIndex, i)
}

// RemoteID returns a slog attribute for a remote event ID.
func RemoteID(id string) slog.Attr {
	return slog.String(KeyRemoteID, id)
}

// TimeZone returns a slog attribute for an IANA time zone.
func TimeZone(tz string) slog.Attr {
	return slog.String(KeyTimeZone, tz)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// TextLength logs the size of user text without its content.
func TextLength(text string) slog.Attr {
	return slog.Int(KeyTextLength, len(text))
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeCalendar returns a hashed calendar ID. Calendar IDs are usually
// email addresses; the hash allows correlation without exposing them.
func AnonymizeCalendar(calendarID string) string {
	if calendarID == "" {
		return ""
	}
	if calendarID == "primary" {
		return calendarID
	}
	hash := sha256.Sum256([]byte(calendarID))
	return "cal:" + hex.EncodeToString(hash[:8])
}

// Calendar returns a slog attribute with the anonymized calendar ID.
func Calendar(calendarID string) slog.Attr {
	return slog.String(KeyCalendar, AnonymizeCalendar(calendarID))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
