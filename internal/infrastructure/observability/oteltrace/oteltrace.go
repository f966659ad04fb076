package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns a tracer bound to the global OTel provider. Without an SDK
// provider registered via otel.SetTracerProvider, spans are non-recording.
func New(name string) observability.Tracer {
	if name == "" {
		name = "bookmarket"
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
