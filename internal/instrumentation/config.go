package instrumentation

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Exporter names accepted by Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Metric label values.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusDegraded = "degraded"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"
	OAuthResultExpired = "expired"

	ServiceGmail  = "gmail"
	ServiceOpenAI = "openai"
)

const (
	DefaultServiceName      = "inboxpal"
	DefaultMetricInterval   = 10 * time.Second
	DefaultTraceSampleRatio = 0.1
)

// Config selects the telemetry exporters and describes the process to
// them.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// InstanceID defaults to the hostname.
	InstanceID string
	// Namespace and PodName become k8s resource attributes when set.
	Namespace string
	PodName   string

	// Enabled false turns every recorder into a no-op.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string
	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port of the collector, without scheme.
	OTLPEndpoint string
	OTLPInsecure bool

	// TraceSampleRatio applies to root spans; children follow their parent.
	TraceSampleRatio float64
	// MetricInterval is the push interval of the otlp and stdout exporters.
	MetricInterval time.Duration
}

// DefaultConfig reads the configuration from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from the variables returned by getenv,
// using the standard OTEL_* names where one exists.
func ConfigFromEnv(getenv func(string) string) Config {
	env := envReader(getenv)
	return Config{
		ServiceName:      env.str("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion:   "unknown",
		InstanceID:       env.str("OTEL_SERVICE_INSTANCE_ID", ""),
		Namespace:        env.str("K8S_NAMESPACE", env.str("POD_NAMESPACE", "")),
		PodName:          env.str("K8S_POD_NAME", env.str("HOSTNAME", "")),
		Enabled:          env.boolean("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:  strings.ToLower(env.str("METRICS_EXPORTER", ExporterPrometheus)),
		TracingExporter:  strings.ToLower(env.str("TRACING_EXPORTER", ExporterNone)),
		OTLPEndpoint:     env.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:     env.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSampleRatio: env.float("OTEL_TRACES_SAMPLER_ARG", DefaultTraceSampleRatio),
		MetricInterval:   env.duration("OTEL_METRIC_EXPORT_INTERVAL", DefaultMetricInterval),
	}
}

// Validate checks the exporter selection. Empty exporter names are left to
// the provider to reject.
func (c *Config) Validate() error {
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %g", c.TraceSampleRatio)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %s", c.MetricsExporter, strings.Join(metricsExporters, ", "))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %s", c.TracingExporter, strings.Join(tracingExporters, ", "))
	}
	if c.OTLPEndpoint == "" && (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter (OTEL_EXPORTER_OTLP_ENDPOINT)")
	}
	if c.MetricInterval < 0 {
		return fmt.Errorf("metric export interval must not be negative, got %s", c.MetricInterval)
	}
	return nil
}

// envReader falls back to the default when a variable is unset or does
// not parse.
type envReader func(string) string

func (e envReader) str(key, def string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if v, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return v
	}
	return def
}

func (e envReader) float(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(e.str(key, ""), 64); err == nil {
		return v
	}
	return def
}

// duration accepts Go durations and, like the OTEL spec, bare milliseconds.
func (e envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return def
}
