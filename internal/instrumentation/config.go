package instrumentation

import (
	"fmt"
	"strconv"
	"strings"
)

// Config selects the exporters and label detail of the telemetry pipeline.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Resource attributes, added only when set.
	ServiceInstanceID string
	K8sNamespace      string
	K8sPodName        string

	// Enabled false yields a Provider with no-op metrics and tracing.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout. Only prometheus
	// is served by the metrics server; the others push.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port without scheme. Required by the otlp exporters.
	OTLPEndpoint string
	// OTLPInsecure sends OTLP over plain HTTP.
	OTLPInsecure bool

	// TraceSamplingRate is the ratio of plan requests traced, 0.0 to 1.0.
	TraceSamplingRate float64

	// DetailedLabels adds the calendar ID to plan metrics. Calendar IDs are
	// usually email addresses, so keep this off in production.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the plan_executed / plan_failed audit lines.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII writes the calendar ID and the request text. When false
	// the calendar ID is hashed and the text is reduced to its length.
	IncludePII bool
}

// DefaultConfig returns the built-in settings: prometheus metrics, no
// tracing, redacted audit logging. It does not read the environment.
func DefaultConfig() Config {
	return Config{
		ServiceName:       DefaultServiceName,
		ServiceVersion:    "unknown",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterNone,
		TraceSamplingRate: DefaultTraceSamplingRate,
		AuditLogging:      AuditLoggingConfig{Enabled: true},
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides c from the standard OTEL_* variables, the Kubernetes
// downward API variables and the TEXTCAL_* telemetry switches. Values that
// do not parse are reported instead of ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(keys ...string) (string, bool) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v), true
			}
		}
		return "", false
	}
	str := func(dst *string, keys ...string) {
		if v, ok := get(keys...); ok {
			*dst = v
		}
	}

	var errs []string
	boolean := func(dst *bool, key string) {
		v, ok := get(key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s=%q is not a boolean", key, v))
			return
		}
		*dst = b
	}

	str(&c.ServiceName, "OTEL_SERVICE_NAME")
	str(&c.ServiceInstanceID, "OTEL_SERVICE_INSTANCE_ID")
	str(&c.K8sNamespace, "K8S_NAMESPACE", "POD_NAMESPACE")
	str(&c.K8sPodName, "K8S_POD_NAME")
	str(&c.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	boolean(&c.OTLPInsecure, "OTEL_EXPORTER_OTLP_INSECURE")

	if v, ok := get("OTEL_TRACES_SAMPLER_ARG"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("OTEL_TRACES_SAMPLER_ARG=%q is not a number", v))
		} else {
			c.TraceSamplingRate = rate
		}
	}

	boolean(&c.Enabled, "TEXTCAL_TELEMETRY_ENABLED")
	str(&c.MetricsExporter, "TEXTCAL_METRICS_EXPORTER")
	str(&c.TracingExporter, "TEXTCAL_TRACING_EXPORTER")
	boolean(&c.DetailedLabels, "TEXTCAL_METRICS_DETAILED_LABELS")
	boolean(&c.AuditLogging.Enabled, "TEXTCAL_AUDIT_ENABLED")
	boolean(&c.AuditLogging.IncludePII, "TEXTCAL_AUDIT_INCLUDE_PII")

	c.MetricsExporter = strings.ToLower(c.MetricsExporter)
	c.TracingExporter = strings.ToLower(c.TracingExporter)

	if len(errs) > 0 {
		return fmt.Errorf("invalid telemetry environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks exporter names, the sampling rate and that the otlp
// exporters have an endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}
	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when an otlp exporter is selected")
	}
	return nil
}

const (
	DefaultServiceName       = "textcal"
	DefaultTraceSamplingRate = 0.1
)

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	// Remote calendar operations
	OperationCreate      = "create"
	OperationPatch       = "patch"
	OperationDelete      = "delete"
	OperationGetTimezone = "get_timezone"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
