package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/textcal/internal/calendar"
	"github.com/teemow/textcal/internal/executor"
	"github.com/teemow/textcal/internal/instrumentation"
	"github.com/teemow/textcal/internal/logging"
	"github.com/teemow/textcal/internal/plan"
	"github.com/teemow/textcal/internal/timezone"
	"github.com/teemow/textcal/internal/translator"
)

// DefaultCalendarID is used when a request names no calendar.
const DefaultCalendarID = "primary"

var (
	// ErrMissingText is returned when the request text is empty.
	ErrMissingText = errors.New("text is required")
	// ErrMissingToken is returned when Apply is called without a bearer token.
	ErrMissingToken = errors.New("bearer token is required")
)

// Translator turns text into a plan.
type Translator interface {
	Translate(ctx context.Context, text string, hints translator.Hints) (translator.Translation, error)
}

// Remote is the calendar client a request runs against.
type Remote interface {
	executor.RemoteClient
	timezone.DefaultSource
}

// ClientFactory builds the calendar client for one request's token.
type ClientFactory func(ctx context.Context, token *oauth2.Token) (Remote, error)

// Request is one free-text planning request.
type Request struct {
	Text       string
	TimeZone   string
	CalendarID string
	Token      *oauth2.Token
	// Source names the caller surface for the audit log: api, mcp or cli.
	Source string
}

// Response is returned by Apply and Preview. Result is nil for previews.
type Response struct {
	RequestID string                `json:"requestId"`
	TimeZone  string                `json:"timeZone"`
	Plan      plan.Plan             `json:"plan"`
	Result    *executor.PlanResult  `json:"result,omitempty"`
	Rejected  []plan.RejectionError `json:"rejected"`
}

// Config wires a Service.
type Config struct {
	Translator Translator
	// CalendarID is used when a request names none. Defaults to
	// DefaultCalendarID.
	CalendarID string
	// NewClient defaults to calendar.NewClient with the service's metrics.
	NewClient ClientFactory
	Mirror    executor.Mirror
	Workers   int
	Metrics   *instrumentation.Metrics
	Audit     *instrumentation.AuditLogger
	Logger    *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service executes planning requests.
type Service struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Service.
func New(cfg Config) *Service {
	if cfg.NewClient == nil {
		metrics := cfg.Metrics
		cfg.NewClient = func(ctx context.Context, token *oauth2.Token) (Remote, error) {
			return calendar.NewClient(ctx, token, calendar.WithMetrics(metrics))
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CalendarID == "" {
		cfg.CalendarID = DefaultCalendarID
	}
	return &Service{cfg: cfg, logger: logging.WithComponent(cfg.Logger, "planner")}
}

// CalendarID returns the calendar used when a request names none.
func (s *Service) CalendarID() string {
	return s.cfg.CalendarID
}

// Apply translates req.Text into a plan and executes it. Per-operation
// failures are reported in the result; an error is returned only for
// precondition failures, client setup failures and translator backend
// failures (wrapping translator.ErrBackend).
func (s *Service) Apply(ctx context.Context, req Request) (*Response, error) {
	return s.run(ctx, req, false)
}

// Preview translates req.Text without touching the calendar. The token is
// optional; without one the zone is req.TimeZone or UTC.
func (s *Service) Preview(ctx context.Context, req Request) (*Response, error) {
	return s.run(ctx, req, true)
}

func (s *Service) run(ctx context.Context, req Request, preview bool) (resp *Response, err error) {
	requestID := uuid.NewString()
	calendarID := req.CalendarID
	if calendarID == "" {
		calendarID = s.cfg.CalendarID
	}

	audit := instrumentation.NewPlanAudit(requestID, req.Source).
		WithRequest(calendarID, req.Text, req.TimeZone, preview)

	ctx, span := instrumentation.StartPlanSpan(ctx, requestID,
		instrumentation.NewSpanAttributeBuilder().WithCalendarID(calendarID).Build()...)
	span.SetAttributes(attribute.Bool("textcal.preview", preview))
	audit.WithSpanContext(ctx)

	logger := logging.WithRequest(s.logger, requestID)

	defer func() {
		instrumentation.EndSpan(span, err)
		s.cfg.Metrics.RecordPlanRequest(ctx, instrumentation.StatusOf(err))
		s.cfg.Audit.LogPlan(audit.Complete(err))
	}()

	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrMissingText
	}
	hasToken := req.Token != nil && req.Token.AccessToken != ""
	if !preview && !hasToken {
		return nil, ErrMissingToken
	}

	var remote Remote
	if hasToken {
		remote, err = s.cfg.NewClient(ctx, req.Token)
		if err != nil {
			return nil, fmt.Errorf("creating calendar client: %w", err)
		}
	}

	var source timezone.DefaultSource
	if remote != nil {
		source = remote
	}
	tz := timezone.NewResolver(source, logger).Resolve(ctx, req.TimeZone)
	audit.TimeZone = tz
	span.SetAttributes(attribute.String(instrumentation.SpanAttrTimeZone, tz))

	translation, err := s.cfg.Translator.Translate(ctx, req.Text, translator.Hints{TimeZone: tz, Now: s.cfg.Now()})
	if err != nil {
		logger.Error("translation failed", logging.Err(err))
		return nil, err
	}

	audit.Operations = translation.Plan.Len()
	audit.Rejected = len(translation.Rejected)

	resp = &Response{
		RequestID: requestID,
		TimeZone:  tz,
		Plan:      translation.Plan,
		Rejected:  translation.Rejected,
	}
	if resp.Plan.Operations == nil {
		resp.Plan = plan.Empty()
	}
	if resp.Rejected == nil {
		resp.Rejected = []plan.RejectionError{}
	}

	if preview {
		logger.Info("plan previewed", slog.Int("operations", resp.Plan.Len()))
		return resp, nil
	}

	exec := executor.New(remote, executor.Options{
		Workers: s.cfg.Workers,
		Mirror:  s.cfg.Mirror,
		Metrics: s.cfg.Metrics,
		Logger:  logger,
	})
	report := exec.Execute(ctx, calendarID, resp.Plan, tz)
	resp.Result = &report.Result

	audit.Created = len(report.Result.Created)
	audit.Updated = len(report.Result.Updated)
	audit.Deleted = len(report.Result.Deleted)
	audit.Failed = len(report.Result.Errors)

	logger.Info("plan applied",
		logging.Calendar(calendarID),
		slog.Int("created", audit.Created),
		slog.Int("updated", audit.Updated),
		slog.Int("deleted", audit.Deleted),
		slog.Int("failed", audit.Failed))

	return resp, nil
}
