// Package observability holds the telemetry ports of the bookmarket service.
// Use cases, stores and the HTTP layer log, count and trace through these
// interfaces; zap, Prometheus and OpenTelemetry live behind them in
// internal/infrastructure/observability.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability is what a service receives at wiring time. A nil value is
// replaced by Nop() in every constructor.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Logger writes structured events such as use_case_done or
// stock_decrement_skipped. Messages are snake_case event names; details go
// in fields.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

type Field struct {
	Key   string
	Value any
}

func F(k string, v any) Field { return Field{Key: k, Value: v} }

// Tracer starts spans; use case spans are named with application.SpanPrefix.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Metrics resolves the instruments declared in metrics.go. Unknown keys
// yield instruments that record nothing.
type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
}

type MetricKey string

// Counter labels must match the label keys the instrument was registered
// with, e.g. use_case and outcome for usecase_requests_total.
type Counter interface {
	Add(delta float64, labels ...Label)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
}

type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }
