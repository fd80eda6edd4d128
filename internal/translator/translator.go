package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/textcal/internal/instrumentation"
	"github.com/teemow/textcal/internal/logging"
	"github.com/teemow/textcal/internal/plan"
)

// DefaultTimeout bounds one model call when the caller's context has no
// earlier deadline.
const DefaultTimeout = 60 * time.Second

// ErrBackend marks failures of the language model transport.
var ErrBackend = errors.New("language model backend failed")

// Hints carry the request context substituted into the instruction template.
type Hints struct {
	TimeZone string
	Now      time.Time
}

// Translation is the result of one Translate call.
type Translation struct {
	Plan     plan.Plan
	Rejected []plan.RejectionError
	// Raw is the unmodified model output.
	Raw string
}

// Options configures a Translator.
type Options struct {
	// ModelName is recorded on spans; it does not select the model.
	ModelName   string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Metrics     *instrumentation.Metrics
	Logger      *slog.Logger
}

// Translator turns free text into a validated plan.
type Translator struct {
	model    llms.Model
	template string
	opts     Options
	logger   *slog.Logger
}

// New creates a Translator over model.
func New(model llms.Model, opts Options) *Translator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Translator{
		model:    model,
		template: instructionTemplate,
		opts:     opts,
		logger:   logging.WithComponent(opts.Logger, "translator"),
	}
}

// Prompt returns the exact text sent to the model for text and hints.
func (t *Translator) Prompt(text string, hints Hints) string {
	now := hints.Now
	if now.IsZero() {
		now = time.Now()
	}
	tz := hints.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	return renderPrompt(t.template, text, now.In(hints.location()), tz)
}

// location is the zone offset-less plan times are read in. Names the
// platform cannot load fall back to UTC.
func (h Hints) location() *time.Location {
	if h.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(h.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Translate asks the model for a plan and validates every candidate.
// A response that is not a JSON plan yields an empty Plan, not an error.
func (t *Translator) Translate(ctx context.Context, text string, hints Hints) (Translation, error) {
	prompt := t.Prompt(text, hints)

	ctx, span := instrumentation.StartTranslateSpan(ctx, t.opts.ModelName, len(text))
	start := time.Now()

	raw, err := t.generate(ctx, prompt)

	t.opts.Metrics.RecordLLMRequest(ctx, instrumentation.StatusOf(err), time.Since(start))
	if err != nil {
		instrumentation.EndSpan(span, err)
		t.logger.Warn("model call failed", logging.TextLength(text), logging.Err(err))
		return Translation{}, err
	}

	p, rejected := plan.FromResponse(raw, hints.location())
	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrOperations, p.Len()),
		attribute.Int(instrumentation.SpanAttrRejected, len(rejected)),
	)
	instrumentation.EndSpan(span, nil)

	for _, r := range rejected {
		t.logger.Info("dropped invalid operation",
			logging.Index(r.Index), logging.Action(string(r.Kind)), slog.String("reason", r.Reason))
	}
	t.logger.Debug("translated text",
		logging.TextLength(text), slog.Int("operations", p.Len()), slog.Int("rejected", len(rejected)))

	return Translation{Plan: p, Rejected: rejected, Raw: raw}, nil
}

func (t *Translator) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.opts.Timeout)
	defer cancel()

	callOpts := make([]llms.CallOption, 0, 2)
	if t.opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(t.opts.Temperature))
	}
	if t.opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(t.opts.MaxTokens))
	}

	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}
	resp, err := t.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackend, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from model", ErrBackend)
	}
	return resp.Choices[0].Content, nil
}
