package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/bookmarket/internal/domain/outbox"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects an event-scoped logger for background handlers.
// Fields: event_id (generated when absent), trace_id/span_id when valid, and
// the caller's low-cardinality attributes.
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	sc trace.SpanContext,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 4+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if sc.HasTraceID() {
		fields = append(fields, observability.F("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		fields = append(fields, observability.F("span_id", sc.SpanID().String()))
	}
	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

type subscriber struct {
	next domoutbox.Subscriber
	base observability.Logger
}

// Subscriber decorates next so that every handler it registers runs with an
// event-scoped logger on its context.
func Subscriber(next domoutbox.Subscriber, base observability.Logger) domoutbox.Subscriber {
	return subscriber{next: next, base: base}
}

func (s subscriber) Subscribe(eventName string, h domoutbox.Handler) {
	s.next.Subscribe(eventName, func(ctx context.Context, e domoutbox.Event) error {
		base := logctx.FromOr(ctx, s.base)
		ctx = WithEventContext(ctx, base, trace.SpanContextFromContext(ctx), map[string]string{
			"event":     e.EventName(),
			"component": "worker",
		})
		return h(ctx, e)
	})
}
