package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/textcal/internal/instrumentation"
)

// DefaultTimeout bounds a single remote call when the caller's context has
// no earlier deadline.
const DefaultTimeout = 30 * time.Second

// Client wraps the Google Calendar service for one bearer token.
type Client struct {
	svc     *calendar.Service
	metrics *instrumentation.Metrics
}

type options struct {
	endpoint string
	timeout  time.Duration
	metrics  *instrumentation.Metrics
	base     http.RoundTripper
}

// Option configures NewClient.
type Option func(*options)

// WithEndpoint points the client at another base URL, e.g. a test server.
func WithEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMetrics records remote call counts and durations.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTransport replaces the base HTTP transport under the OAuth2 layer.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// NewClient creates a Calendar client that authenticates every call with token.
func NewClient(ctx context.Context, token *oauth2.Token, opts ...Option) (*Client, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("bearer token cannot be empty")
	}

	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	base := o.base
	if base == nil {
		// Force HTTP/1.1 by disabling HTTP/2
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.ForceAttemptHTTP2 = false
		base = t
	}

	httpClient := &http.Client{
		Timeout: o.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   base,
		},
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if o.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(o.endpoint))
	}

	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, metrics: o.metrics}, nil
}

// CreateEvent inserts a new event into calendarID.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, patch EventPatch) (*RemoteEvent, error) {
	var created *calendar.Event
	err := c.observe(ctx, instrumentation.OperationCreate, nil, func(ctx context.Context) error {
		var err error
		created, err = c.svc.Events.Insert(calendarID, patch.toEvent()).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toRemoteEvent(created), nil
}

// PatchEvent applies the non-nil fields of patch to eventID. Fields left nil
// keep their remote values.
func (c *Client) PatchEvent(ctx context.Context, calendarID, eventID string, patch EventPatch) (*RemoteEvent, error) {
	var updated *calendar.Event
	attrs := []attribute.KeyValue{attribute.String(instrumentation.SpanAttrRemoteID, eventID)}
	err := c.observe(ctx, instrumentation.OperationPatch, attrs, func(ctx context.Context) error {
		var err error
		updated, err = c.svc.Events.Patch(calendarID, eventID, patch.toEvent()).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return toRemoteEvent(updated), nil
}

// DeleteEvent removes eventID from calendarID.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	attrs := []attribute.KeyValue{attribute.String(instrumentation.SpanAttrRemoteID, eventID)}
	return c.observe(ctx, instrumentation.OperationDelete, attrs, func(ctx context.Context) error {
		return c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
	})
}

// GetDefaultTimezone returns the user's calendar time zone setting.
func (c *Client) GetDefaultTimezone(ctx context.Context) (string, error) {
	var tz string
	err := c.observe(ctx, instrumentation.OperationGetTimezone, nil, func(ctx context.Context) error {
		setting, err := c.svc.Settings.Get("timezone").Context(ctx).Do()
		if err != nil {
			return err
		}
		tz = setting.Value
		return nil
	})
	return tz, err
}

// observe runs one remote call inside a span and records its metrics.
func (c *Client) observe(ctx context.Context, op string, attrs []attribute.KeyValue, call func(context.Context) error) error {
	ctx, span := instrumentation.StartRemoteSpan(ctx, op, attrs...)
	start := time.Now()

	err := wrapError(op, call(ctx))

	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode != 0 {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrStatusCode, apiErr.StatusCode))
	}
	c.metrics.RecordRemoteOperation(ctx, op, instrumentation.StatusOf(err), time.Since(start))
	instrumentation.EndSpan(span, err)
	return err
}
