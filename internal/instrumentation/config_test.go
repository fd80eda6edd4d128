package instrumentation

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func envMap(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestDefaultConfig_IgnoresEnvironment(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "from-env")
	t.Setenv("TEXTCAL_METRICS_DETAILED_LABELS", "true")

	cfg := DefaultConfig()

	if cfg.ServiceName != DefaultServiceName {
		t.Errorf("expected ServiceName %q, got %q", DefaultServiceName, cfg.ServiceName)
	}
	if cfg.DetailedLabels {
		t.Error("detailed labels must be off by default")
	}
	if !cfg.Enabled || cfg.MetricsExporter != ExporterPrometheus || cfg.TracingExporter != ExporterNone {
		t.Errorf("unexpected exporter defaults: %+v", cfg)
	}
	if !cfg.AuditLogging.Enabled || cfg.AuditLogging.IncludePII {
		t.Errorf("expected redacted audit logging by default, got %+v", cfg.AuditLogging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"OTEL_SERVICE_NAME":               "textcal-staging",
		"POD_NAMESPACE":                   "calendars",
		"K8S_POD_NAME":                    "textcal-0",
		"OTEL_EXPORTER_OTLP_ENDPOINT":     "collector:4318",
		"OTEL_EXPORTER_OTLP_INSECURE":     "true",
		"OTEL_TRACES_SAMPLER_ARG":         "0.5",
		"TEXTCAL_METRICS_EXPORTER":        "OTLP",
		"TEXTCAL_TRACING_EXPORTER":        "otlp",
		"TEXTCAL_METRICS_DETAILED_LABELS": "1",
		"TEXTCAL_AUDIT_INCLUDE_PII":       "true",
		"TEXTCAL_AUDIT_ENABLED":           "",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServiceName != "textcal-staging" || cfg.K8sNamespace != "calendars" || cfg.K8sPodName != "textcal-0" {
		t.Errorf("unexpected resource settings: %+v", cfg)
	}
	if cfg.MetricsExporter != ExporterOTLP {
		t.Errorf("expected exporter names to be lowercased, got %q", cfg.MetricsExporter)
	}
	if !cfg.OTLPInsecure || cfg.OTLPEndpoint != "collector:4318" || cfg.TraceSamplingRate != 0.5 {
		t.Errorf("unexpected OTLP settings: %+v", cfg)
	}
	if !cfg.DetailedLabels || !cfg.AuditLogging.IncludePII {
		t.Errorf("expected switches to be on, got %+v", cfg)
	}
	if !cfg.AuditLogging.Enabled {
		t.Error("an empty variable must not change the default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestConfig_ApplyEnv_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"TEXTCAL_TELEMETRY_ENABLED": "sometimes",
		"OTEL_TRACES_SAMPLER_ARG":   "half",
	}))
	if err == nil {
		t.Fatal("expected error for unparsable values")
	}
	for _, key := range []string{"TEXTCAL_TELEMETRY_ENABLED", "OTEL_TRACES_SAMPLER_ARG"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("expected error to name %s, got %v", key, err)
		}
	}
	if !cfg.Enabled || cfg.TraceSamplingRate != DefaultTraceSamplingRate {
		t.Errorf("invalid values must leave defaults in place, got %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{name: "prometheus only", config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone}},
		{name: "otlp with endpoint", config: Config{TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"}},
		{name: "negative sampling rate", config: Config{TraceSamplingRate: -0.5}, errContains: "sampling rate"},
		{name: "sampling rate above one", config: Config{TraceSamplingRate: 1.5}, errContains: "sampling rate"},
		{name: "unknown metrics exporter", config: Config{MetricsExporter: "statsd"}, errContains: "invalid metrics exporter"},
		{name: "unknown tracing exporter", config: Config{TracingExporter: "jaeger"}, errContains: "invalid tracing exporter"},
		{name: "otlp tracing without endpoint", config: Config{TracingExporter: ExporterOTLP}, errContains: "OTLP endpoint is required"},
		{name: "otlp metrics without endpoint", config: Config{MetricsExporter: ExporterOTLP}, errContains: "OTLP endpoint is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("expected error containing %q, got %v", tt.errContains, err)
			}
		})
	}
}

// scrape records one plan operation and one remote call on a provider built
// from cfg and returns the Prometheus exposition text.
func scrape(t *testing.T, cfg Config) string {
	t.Helper()
	ctx := context.Background()

	provider, err := NewProvider(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	provider.Metrics().RecordPlanOperation(ctx, "team@example.com", "create", StatusSuccess)
	provider.Metrics().RecordRemoteOperation(ctx, OperationGetTimezone, StatusSuccess, 0)

	rec := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestConfig_DetailedLabels(t *testing.T) {
	cfg := DefaultConfig()

	out := scrape(t, cfg)
	if !strings.Contains(out, "plan_operations_total") {
		t.Fatalf("expected plan_operations_total in output:\n%s", out)
	}
	if strings.Contains(out, `calendar_id="team@example.com"`) {
		t.Error("calendar ID must not be a label without DetailedLabels")
	}
	if !strings.Contains(out, `operation="get_timezone"`) {
		t.Errorf("expected remote operation label, got:\n%s", out)
	}

	cfg.DetailedLabels = true
	if out := scrape(t, cfg); !strings.Contains(out, `calendar_id="team@example.com"`) {
		t.Errorf("expected calendar_id label with DetailedLabels, got:\n%s", out)
	}
}

func TestConfig_AuditLoggingFromEnv(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(envMap(map[string]string{"TEXTCAL_AUDIT_INCLUDE_PII": "false"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	al, buf := newTestAuditLogger(cfg.AuditLogging)
	al.LogPlan(NewPlanAudit("req-1", "cli").
		WithRequest("alice@example.com", "move standup to 10", "UTC", false).
		Complete(nil))

	line := decodeLine(t, buf)
	if line["calendar_hash"] != HashIdentifier("alice@example.com") {
		t.Errorf("expected hashed calendar, got %v", line)
	}
	if line["text_length"] != float64(len("move standup to 10")) {
		t.Errorf("expected text length, got %v", line["text_length"])
	}
	if _, ok := line["text"]; ok {
		t.Error("text must be redacted")
	}

	cfg.AuditLogging.Enabled = false
	al, buf = newTestAuditLogger(cfg.AuditLogging)
	al.LogPlan(NewPlanAudit("req-2", "cli").Complete(nil))
	if buf.Len() != 0 {
		t.Errorf("expected no audit output when disabled, got %q", buf.String())
	}
}
