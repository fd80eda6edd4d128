package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newCollectingMetrics returns a Metrics backed by a manual reader so tests
// can inspect what was recorded.
func newCollectingMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

// counterTotal sums every data point of the named int64 counter whose
// attributes include all of want.
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string, want ...attribute.KeyValue) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", name)
			}
		points:
			for _, dp := range sum.DataPoints {
				for _, kv := range want {
					v, ok := dp.Attributes.Value(kv.Key)
					if !ok || v != kv.Value {
						continue points
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_RecordPlanOperation(t *testing.T) {
	m, reader := newCollectingMetrics(t, false)
	ctx := context.Background()

	m.RecordPlanOperation(ctx, "alice@example.com", "create", StatusSuccess)
	m.RecordPlanOperation(ctx, "alice@example.com", "create", StatusSuccess)
	m.RecordPlanOperation(ctx, "alice@example.com", "delete", StatusError)

	if got := counterTotal(t, reader, "plan_operations_total", attribute.String("action", "create")); got != 2 {
		t.Errorf("expected 2 create operations, got %d", got)
	}
	if got := counterTotal(t, reader, "plan_operations_total", attribute.String("status", StatusError)); got != 1 {
		t.Errorf("expected 1 failed operation, got %d", got)
	}
	if got := counterTotal(t, reader, "plan_operations_total", attribute.String("calendar_id", "alice@example.com")); got != 0 {
		t.Errorf("expected calendar_id label to be omitted without detailed labels, got %d", got)
	}
}

func TestMetrics_RecordPlanOperation_DetailedLabels(t *testing.T) {
	m, reader := newCollectingMetrics(t, true)

	m.RecordPlanOperation(context.Background(), "alice@example.com", "update", StatusSuccess)

	if got := counterTotal(t, reader, "plan_operations_total", attribute.String("calendar_id", "alice@example.com")); got != 1 {
		t.Errorf("expected calendar_id label with detailed labels, got %d", got)
	}
}

func TestMetrics_RecordRemoteOperation(t *testing.T) {
	m, reader := newCollectingMetrics(t, false)
	ctx := context.Background()

	m.RecordRemoteOperation(ctx, OperationCreate, StatusSuccess, 120*time.Millisecond)
	m.RecordRemoteOperation(ctx, OperationPatch, StatusError, 80*time.Millisecond)
	m.RecordRemoteOperation(ctx, OperationGetTimezone, StatusSuccess, 10*time.Millisecond)

	if got := counterTotal(t, reader, "remote_calendar_operations_total"); got != 3 {
		t.Errorf("expected 3 remote operations, got %d", got)
	}
	if got := counterTotal(t, reader, "remote_calendar_operations_total", attribute.String("operation", OperationPatch)); got != 1 {
		t.Errorf("expected 1 patch, got %d", got)
	}
}

func TestMetrics_RecordLLMAndPlanRequests(t *testing.T) {
	m, reader := newCollectingMetrics(t, false)
	ctx := context.Background()

	m.RecordLLMRequest(ctx, StatusSuccess, time.Second)
	m.RecordLLMRequest(ctx, StatusError, 2*time.Second)
	m.RecordPlanRequest(ctx, StatusSuccess)
	m.RecordMirrorSyncFailure(ctx, "create")
	m.RecordToolInvocation(ctx, "calendar_apply_text", StatusSuccess, time.Second)
	m.RecordHTTPRequest(ctx, "POST", "/api/plans", 200, 50*time.Millisecond)

	if got := counterTotal(t, reader, "llm_requests_total"); got != 2 {
		t.Errorf("expected 2 llm requests, got %d", got)
	}
	if got := counterTotal(t, reader, "plan_requests_total"); got != 1 {
		t.Errorf("expected 1 plan request, got %d", got)
	}
	if got := counterTotal(t, reader, "mirror_sync_failures_total", attribute.String("action", "create")); got != 1 {
		t.Errorf("expected 1 mirror failure, got %d", got)
	}
	if got := counterTotal(t, reader, "mcp_tool_invocations_total"); got != 1 {
		t.Errorf("expected 1 tool invocation, got %d", got)
	}
	if got := counterTotal(t, reader, "http_requests_total", attribute.String("status", "200")); got != 1 {
		t.Errorf("expected 1 http request, got %d", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()

	// None of these should panic
	m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
	m.RecordPlanRequest(ctx, StatusSuccess)
	m.RecordPlanOperation(ctx, "primary", "create", StatusSuccess)
	m.RecordMirrorSyncFailure(ctx, "delete")
	m.RecordRemoteOperation(ctx, OperationDelete, StatusSuccess, time.Millisecond)
	m.RecordLLMRequest(ctx, StatusSuccess, time.Millisecond)
	m.RecordToolInvocation(ctx, "calendar_preview_text", StatusSuccess, time.Millisecond)

	empty := &Metrics{}
	empty.RecordPlanRequest(ctx, StatusSuccess)
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(nil); got != StatusSuccess {
		t.Errorf("expected %q, got %q", StatusSuccess, got)
	}
	if got := StatusOf(errors.New("boom")); got != StatusError {
		t.Errorf("expected %q, got %q", StatusError, got)
	}
}
