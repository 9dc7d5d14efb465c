// Package trace wires OpenTelemetry tracing for agent runs. A Tracer is an
// explicit value owned by the composition root and passed to the agents that
// need it; there is no package-level enabled flag.
package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "deepagents"

// Config controls the exporter behind a Tracer.
type Config struct {
	// Enabled activates span export. When false New returns a no-op Tracer.
	Enabled bool `json:"enabled"`

	// ServiceName identifies this service in traces. Defaults to
	// "deepagents".
	ServiceName string `json:"service_name,omitempty"`

	// Endpoint is the OTLP/HTTP endpoint (e.g. "localhost:4318").
	Endpoint string `json:"endpoint,omitempty"`

	// Headers are sent with every OTLP request.
	Headers map[string]string `json:"headers,omitempty"`

	// SampleRate is the sampling ratio in (0, 1]. Defaults to 1.0.
	SampleRate float64 `json:"sample_rate,omitempty"`

	// Insecure allows non-TLS connections to the endpoint.
	Insecure bool `json:"insecure,omitempty"`
}

// DefaultConfig returns a disabled configuration with sane field defaults.
func DefaultConfig() Config {
	return Config{ServiceName: tracerName, SampleRate: 1.0}
}

// Tracer creates spans for agent runs, model calls, tool executions, and
// delegations. The zero value and nil are both usable no-ops.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
}

// Noop returns a Tracer that records nothing.
func Noop() *Tracer {
	return &Tracer{tracer: noop.NewTracerProvider().Tracer(tracerName)}
}

// New builds a Tracer per cfg. Disabled configurations yield a no-op
// Tracer and no error.
func New(cfg Config) (*Tracer, error) {
	if !cfg.Enabled {
		return Noop(), nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = tracerName
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 1.0
	}

	opts := []otlptracehttp.Option{}
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}

	exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("trace: create exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("trace: create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(tracerName),
	}, nil
}

// StartRunSpan opens the root span for one agent run.
func (t *Tracer) StartRunSpan(ctx context.Context, agentID, agentType string) (context.Context, oteltrace.Span) {
	return t.start(ctx, "agent.run",
		attribute.String("agent.id", agentID),
		attribute.String("agent.type", agentType),
	)
}

// StartModelSpan opens a child span for one model generation.
func (t *Tracer) StartModelSpan(ctx context.Context) (context.Context, oteltrace.Span) {
	return t.start(ctx, "model.generate")
}

// StartToolSpan opens a child span for one tool execution.
func (t *Tracer) StartToolSpan(ctx context.Context, toolName string) (context.Context, oteltrace.Span) {
	return t.start(ctx, "tool.execute",
		attribute.String("tool.name", toolName),
	)
}

// StartSubagentSpan opens a child span for one delegated sub-agent run.
func (t *Tracer) StartSubagentSpan(ctx context.Context, subagentType, parentID string) (context.Context, oteltrace.Span) {
	return t.start(ctx, "subagent.run",
		attribute.String("subagent.type", subagentType),
		attribute.String("agent.parent_id", parentID),
	)
}

func (t *Tracer) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	if t == nil || t.tracer == nil {
		return noop.NewTracerProvider().Tracer(tracerName).Start(ctx, name)
	}
	return t.tracer.Start(ctx, name, oteltrace.WithAttributes(attrs...))
}

// End closes span, recording err when present.
func (t *Tracer) End(span oteltrace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Shutdown flushes pending spans. No-op Tracers return nil immediately.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return t.provider.Shutdown(ctx)
}
