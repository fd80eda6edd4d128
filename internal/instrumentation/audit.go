package instrumentation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// PlanAudit captures one free-text plan request for audit logging.
//
// # Privacy Considerations
//
// CalendarID is usually an email address and Text is user-written prose.
// Unless the AuditLogger is configured with IncludePII, the calendar ID is
// replaced with a short hash and the text with its length.
type PlanAudit struct {
	RequestID  string
	Source     string // api, mcp or cli
	CalendarID string
	Text       string
	TimeZone   string
	Preview    bool

	// Plan shape
	Operations int
	Rejected   int

	// Execution outcome
	Created int
	Updated int
	Deleted int
	Failed  int

	StartTime time.Time
	Duration  time.Duration
	Error     string

	TraceID string
	SpanID  string
}

// NewPlanAudit creates a PlanAudit with timing started.
func NewPlanAudit(requestID, source string) *PlanAudit {
	return &PlanAudit{
		RequestID: requestID,
		Source:    source,
		StartTime: time.Now(),
	}
}

// WithRequest sets the caller-supplied request fields.
func (pa *PlanAudit) WithRequest(calendarID, text, timeZone string, preview bool) *PlanAudit {
	pa.CalendarID = calendarID
	pa.Text = text
	pa.TimeZone = timeZone
	pa.Preview = preview
	return pa
}

// WithSpanContext extracts trace context from the current span.
func (pa *PlanAudit) WithSpanContext(ctx context.Context) *PlanAudit {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		pa.TraceID = span.SpanContext().TraceID().String()
		pa.SpanID = span.SpanContext().SpanID().String()
	}
	return pa
}

// Complete stops the clock and records err, if any.
func (pa *PlanAudit) Complete(err error) *PlanAudit {
	pa.Duration = time.Since(pa.StartTime)
	if err != nil {
		pa.Error = err.Error()
	}
	return pa
}

// Success reports whether the request produced a response.
func (pa *PlanAudit) Success() bool {
	return pa.Error == ""
}

// LogAttrs returns slog attributes for the record. When includePII is false
// the calendar ID is hashed and the text is reduced to its length.
func (pa *PlanAudit) LogAttrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("request_id", pa.RequestID),
		slog.String("source", pa.Source),
		slog.Bool("preview", pa.Preview),
		slog.Int("operations", pa.Operations),
		slog.Int("rejected", pa.Rejected),
		slog.Int("created", pa.Created),
		slog.Int("updated", pa.Updated),
		slog.Int("deleted", pa.Deleted),
		slog.Int("failed", pa.Failed),
		slog.Duration("duration", pa.Duration),
	}

	if includePII {
		attrs = append(attrs,
			slog.String("calendar_id", pa.CalendarID),
			slog.String("text", pa.Text),
		)
	} else {
		attrs = append(attrs,
			slog.String("calendar_hash", HashIdentifier(pa.CalendarID)),
			slog.Int("text_length", len(pa.Text)),
		)
	}
	if pa.TimeZone != "" {
		attrs = append(attrs, slog.String("time_zone", pa.TimeZone))
	}
	if pa.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", pa.TraceID))
	}
	if pa.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", pa.SpanID))
	}
	if pa.Error != "" {
		attrs = append(attrs, slog.String("error", pa.Error))
	}

	return attrs
}

// HashIdentifier returns a short stable hash of id, or "" for an empty id.
func HashIdentifier(id string) string {
	if id == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:6])
}

// AuditLogger provides structured audit logging for plan requests.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with PII excluded.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogPlan writes one audit line for a plan request. Safe on a nil receiver.
func (al *AuditLogger) LogPlan(pa *PlanAudit) {
	if al == nil || !al.enabled || pa == nil {
		return
	}

	attrs := pa.LogAttrs(al.includePII)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if pa.Success() {
		al.logger.Info("plan_executed", args...)
	} else {
		al.logger.Warn("plan_failed", args...)
	}
}
