package workerpresentation

import (
	"context"
	"testing"

	domoutbox "github.com/Zhima-Mochi/bookmarket/internal/domain/outbox"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"
	"go.opentelemetry.io/otel/trace"
)

type fieldLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l *fieldLogger) With(fields ...observability.Field) observability.Logger {
	return &fieldLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}

func has(fields []observability.Field, key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

func TestWithEventContextGeneratesEventID(t *testing.T) {
	base := &fieldLogger{Logger: observability.NopLogger()}
	ctx := WithEventContext(context.Background(), base, trace.SpanContext{}, map[string]string{"event": "order.paid", "empty": ""})

	l, ok := logctx.From(ctx).(*fieldLogger)
	if !ok {
		t.Fatal("expected logger on context")
	}
	if !has(l.fields, "event_id") || !has(l.fields, "event") {
		t.Fatalf("missing fields: %+v", l.fields)
	}
	if has(l.fields, "empty") || has(l.fields, "trace_id") {
		t.Fatalf("unexpected fields: %+v", l.fields)
	}
}

type evt struct{}

func (evt) EventName() string { return "order.paid" }

type stub map[string]domoutbox.Handler

func (s stub) Subscribe(name string, h domoutbox.Handler) { s[name] = h }

func TestSubscriberInjectsLogger(t *testing.T) {
	inner := stub{}
	base := &fieldLogger{Logger: observability.NopLogger()}

	var got observability.Logger
	Subscriber(inner, base).Subscribe("order.paid", func(ctx context.Context, _ domoutbox.Event) error {
		got = logctx.From(ctx)
		return nil
	})
	if err := inner["order.paid"](context.Background(), evt{}); err != nil {
		t.Fatalf("handler: %v", err)
	}
	l, ok := got.(*fieldLogger)
	if !ok || !has(l.fields, "event_id") {
		t.Fatalf("handler ran without event logger: %#v", got)
	}
}
