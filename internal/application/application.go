package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Error kinds shared by every use case. Adapters map them to transport codes.
var (
	ErrValidation   = errors.New("validation")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRepository   = errors.New("repository failure")
)

const SpanPrefix = "UC."

func NewValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func NewForbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

// WrapRepositoryError keeps the listed domain sentinels visible to errors.Is
// and tags everything else as a repository failure.
func WrapRepositoryError(err error, known ...error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrRepository, err)
}

// Instrument holds the RED instruments for one service. It is built once at
// wiring time; use cases call Begin per execution.
type Instrument struct {
	tracer       observability.Tracer
	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewInstrument(tel observability.Observability, service string) Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	return Instrument{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

func (in Instrument) Logger() observability.Logger { return in.log }

// Run tracks one use case execution until End is called.
type Run struct {
	in      Instrument
	useCase string
	span    trace.Span
	start   time.Time
	logger  observability.Logger
	fields  []observability.Field

	Outcome string
	Status  string
}

// Begin opens the span and derives the execution logger. The returned
// context carries both.
func (in Instrument) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)
	ctx = logctx.With(ctx, logger)
	return ctx, &Run{
		in:      in,
		useCase: useCase,
		span:    span,
		start:   time.Now(),
		logger:  logger,
		Outcome: "success",
		Status:  "OK",
	}
}

func (r *Run) Span() trace.Span { return r.span }
func (r *Run) Logger() observability.Logger { return r.logger }

// Fail marks the run as failed with a machine-readable status.
func (r *Run) Fail(status string) {
	r.Outcome, r.Status = "error", status
}

// Annotate adds fields to the final use_case_done line.
func (r *Run) Annotate(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// End closes the span, records metrics and writes use_case_done. Call it
// deferred with the named error result.
func (r *Run) End(ctx context.Context, err error) {
	lat := time.Since(r.start).Seconds()
	if err != nil && r.Outcome == "success" {
		r.Fail("ERROR")
	}

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.Status)
		} else {
			r.span.SetStatus(codes.Ok, r.Status)
		}
		r.span.End()
	}

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.Outcome),
	)
	r.in.durHistogram.Observe(lat,
		observability.L("use_case", r.useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", r.Outcome),
		observability.F("status", r.Status),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.logger.Info("use_case_done", fields...)
}
