package instrumentation

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	// ServiceName is the name of the service (default: calbooker)
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// ServiceInstanceID is the unique instance identifier (default: hostname)
	ServiceInstanceID string

	// K8sNamespace is the Kubernetes namespace where the service is running
	K8sNamespace string

	// K8sPodName is the Kubernetes pod name
	K8sPodName string

	// Enabled determines if instrumentation is active (default: true)
	// Set to false via INSTRUMENTATION_ENABLED=false to disable metrics and tracing
	Enabled bool

	// MetricsExporter specifies the metrics exporter type
	// Options: "prometheus", "otlp", "stdout" (default: "prometheus")
	MetricsExporter string

	// TracingExporter specifies the tracing exporter type
	// Options: "otlp", "stdout", "none" (default: "none")
	TracingExporter string

	// OTLPEndpoint is the OTLP collector endpoint
	// Example: "localhost:4318" (without protocol prefix)
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP export. Local development only.
	OTLPInsecure bool

	// TraceSamplingRate is the sampling rate for traces (0.0 to 1.0, default: 0.1)
	TraceSamplingRate float64

	// PrometheusEndpoint is the path for the Prometheus metrics endpoint (default: "/metrics")
	PrometheusEndpoint string

	// DetailedLabels controls whether high-cardinality labels are included.
	// When false (default), only essential labels are included.
	// When true, tool metrics carry the attendee email domain.
	DetailedLabels bool

	// AuditLogging configures audit logging behavior.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool

	// IncludePII controls whether attendee emails are logged in full.
	// When false (default), only the email domain is logged.
	IncludePII bool

	// LogLevel sets the slog level for audit log messages (default: info)
	LogLevel string
}

// envBindings maps each setting to the environment variables it is read
// from, in order of precedence.
var envBindings = map[string][]string{
	"service-name":        {"OTEL_SERVICE_NAME"},
	"service-instance-id": {"OTEL_SERVICE_INSTANCE_ID"},
	"k8s-namespace":       {"K8S_NAMESPACE", "POD_NAMESPACE"},
	"k8s-pod-name":        {"K8S_POD_NAME", "HOSTNAME"},
	"enabled":             {"INSTRUMENTATION_ENABLED"},
	"metrics-exporter":    {"METRICS_EXPORTER"},
	"tracing-exporter":    {"TRACING_EXPORTER"},
	"otlp-endpoint":       {"OTEL_EXPORTER_OTLP_ENDPOINT"},
	"otlp-insecure":       {"OTEL_EXPORTER_OTLP_INSECURE"},
	"trace-sampling-rate": {"OTEL_TRACES_SAMPLER_ARG"},
	"prometheus-endpoint": {"PROMETHEUS_ENDPOINT"},
	"detailed-labels":     {"METRICS_DETAILED_LABELS"},
	"audit-enabled":       {"AUDIT_LOGGING_ENABLED"},
	"audit-include-pii":   {"AUDIT_LOGGING_INCLUDE_PII"},
	"audit-log-level":     {"AUDIT_LOGGING_LEVEL"},
}

// DefaultConfig returns the instrumentation configuration read from the
// environment, with defaults for everything unset. Values that do not parse
// read as the zero value.
func DefaultConfig() Config {
	v := viper.New()
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}

	v.SetDefault("service-name", "calbooker")
	v.SetDefault("enabled", true)
	v.SetDefault("metrics-exporter", ExporterPrometheus)
	v.SetDefault("tracing-exporter", ExporterNone)
	v.SetDefault("trace-sampling-rate", 0.1)
	v.SetDefault("prometheus-endpoint", "/metrics")
	v.SetDefault("audit-enabled", true)
	v.SetDefault("audit-log-level", "info")

	return Config{
		ServiceName:        v.GetString("service-name"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  v.GetString("service-instance-id"),
		K8sNamespace:       v.GetString("k8s-namespace"),
		K8sPodName:         v.GetString("k8s-pod-name"),
		Enabled:            v.GetBool("enabled"),
		MetricsExporter:    v.GetString("metrics-exporter"),
		TracingExporter:    v.GetString("tracing-exporter"),
		OTLPEndpoint:       v.GetString("otlp-endpoint"),
		OTLPInsecure:       v.GetBool("otlp-insecure"),
		TraceSamplingRate:  v.GetFloat64("trace-sampling-rate"),
		PrometheusEndpoint: v.GetString("prometheus-endpoint"),
		DetailedLabels:     v.GetBool("detailed-labels"),
		AuditLogging: AuditLoggingConfig{
			Enabled:    v.GetBool("audit-enabled"),
			IncludePII: v.GetBool("audit-include-pii"),
			LogLevel:   v.GetString("audit-log-level"),
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	// Validate sampling rate is within bounds
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	// Validate metrics exporter
	validMetricsExporters := map[string]bool{ExporterPrometheus: true, ExporterOTLP: true, ExporterStdout: true}
	if c.MetricsExporter != "" && !validMetricsExporters[c.MetricsExporter] {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	// Validate tracing exporter
	validTracingExporters := map[string]bool{ExporterOTLP: true, ExporterStdout: true, ExporterNone: true}
	if c.TracingExporter != "" && !validTracingExporters[c.TracingExporter] {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	// OTLP endpoint required when using OTLP exporters
	if c.TracingExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
	}
	if c.MetricsExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
	}

	return nil
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	// External service names
	ServiceCalcom = "calcom"
	ServiceOpenAI = "openai"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
