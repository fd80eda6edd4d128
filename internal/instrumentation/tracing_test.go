package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withRecorder installs a recording tracer provider for the duration of a test.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithRequestID("req-1").
		WithAction("create").
		WithRemoteID("evt-1").
		WithCalendarID("primary").
		WithTimeZone("Europe/Berlin").
		Build()

	if len(attrs) != 5 {
		t.Fatalf("expected 5 attributes, got %d", len(attrs))
	}
	if v, ok := attrValue(attrs, SpanAttrAction); !ok || v.AsString() != "create" {
		t.Errorf("expected action create, got %v", v)
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithRequestID("").
		WithAction("delete").
		WithRemoteID("").
		WithCalendarID("").
		WithTimeZone("").
		Build()

	if len(attrs) != 1 {
		t.Errorf("expected only the action attribute, got %d", len(attrs))
	}
}

func TestStartRemoteSpan(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartRemoteSpan(context.Background(), OperationPatch,
		attribute.String(SpanAttrRemoteID, "evt-9"))
	EndSpan(span, errors.New("not found"))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != "calendar.patch" {
		t.Errorf("expected span name calendar.patch, got %q", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status().Code)
	}
	if v, ok := attrValue(s.Attributes(), SpanAttrRemoteID); !ok || v.AsString() != "evt-9" {
		t.Errorf("expected remote id attribute, got %v", v)
	}
}

func TestStartPlanAndTranslateSpans(t *testing.T) {
	rec := withRecorder(t)

	ctx, planSpan := StartPlanSpan(context.Background(), "req-42")
	if GetTraceID(ctx) == "" {
		t.Error("expected a trace id inside the plan span")
	}

	_, llmSpan := StartTranslateSpan(ctx, "gemini-2.0-flash", 31)
	EndSpan(llmSpan, nil)
	EndSpan(planSpan, nil)

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "llm.translate" || spans[1].Name() != "plan.apply" {
		t.Errorf("unexpected span names %q, %q", spans[0].Name(), spans[1].Name())
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("expected translate span to be a child of the plan span")
	}
	if spans[1].Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", spans[1].Status().Code)
	}
}

func TestStartToolSpan(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartToolSpan(context.Background(), "calendar_apply_text")
	span.End()

	spans := rec.Ended()
	if len(spans) != 1 || spans[0].Name() != "tool.calendar_apply_text" {
		t.Fatalf("unexpected spans: %v", spans)
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace id, got %q", id)
	}
}
