package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/bookmarket/internal/domain/outbox"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	workerService  = "receipt-worker"
	useCaseReceipt = "notification.receipt"
	mailPeer       = "mail"
)

// Receipt is the content of a payment confirmation mail.
type Receipt struct {
	To            string
	OrderID       string
	BookName      string
	Price         float64
	Quantity      int
	TransactionID string
	PaidAt        time.Time
}

type Mailer interface {
	SendReceipt(ctx context.Context, r Receipt) error
}

// Worker mails a receipt for every order.paid event. Mail failures are
// logged and counted; they never reach the confirmation request.
type Worker struct {
	subscriber domoutbox.Subscriber
	mailer     Mailer
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
}

func New(subscriber domoutbox.Subscriber, mailer Mailer, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber:   subscriber,
		mailer:       mailer,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.mailer == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderPaidEvent{}.EventName(), w.HandleOrderPaid)
}

func (w *Worker) HandleOrderPaid(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.OrderPaidEvent)
	if !ok {
		w.count("ignored")
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, application.SpanPrefix+"SendReceipt",
		attribute.String("use_case", useCaseReceipt),
		attribute.String("event", e.EventName()),
		attribute.String("order.id", evt.OrderID),
	)
	start := time.Now()
	outcome, status := "success", "OK"

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCaseReceipt),
		observability.F("event", e.EventName()),
		observability.F("order_id", evt.OrderID),
	)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	ctx = logctx.With(ctx, logger)

	defer func() {
		lat := time.Since(start).Seconds()
		w.count(outcome)
		w.durHistogram.Observe(lat, observability.L("use_case", useCaseReceipt))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)

		if outcome == "error" {
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()
	}()

	if evt.Customer == "" {
		outcome, status = "error", "RECIPIENT_MISSING"
		return fmt.Errorf("receipt: order %s has no customer", evt.OrderID)
	}

	merr := w.mailer.SendReceipt(ctx, Receipt{
		To:            evt.Customer,
		OrderID:       evt.OrderID,
		BookName:      evt.Name,
		Price:         evt.Price,
		Quantity:      evt.Quantity,
		TransactionID: evt.TransactionID,
		PaidAt:        evt.OccurredAt,
	})
	mailOutcome := "success"
	if merr != nil {
		mailOutcome = "error"
	}
	w.extCounter.Add(1,
		observability.L("peer", mailPeer),
		observability.L("endpoint", "receipt"),
		observability.L("outcome", mailOutcome),
	)
	if merr != nil {
		span.RecordError(merr)
		outcome, status = "error", "MAIL_SEND_FAILED"
		return fmt.Errorf("receipt: send: %w", merr)
	}
	return nil
}

func (w *Worker) count(outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCaseReceipt),
		observability.L("outcome", outcome),
	)
}
