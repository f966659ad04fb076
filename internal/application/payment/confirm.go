package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	dombook "github.com/Zhima-Mochi/bookmarket/internal/domain/book"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/bookmarket/internal/domain/outbox"
	dompay "github.com/Zhima-Mochi/bookmarket/internal/domain/payment"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCasePaymentConfirm = "payment.confirm"
	publishPeer           = "outbox"
	publishEndpoint       = "order.paid"
	publishTimeout        = 300 * time.Millisecond
)

var (
	ErrPaymentIncomplete = fmt.Errorf("%w: payment not completed", domorder.ErrConflict)
	ErrAmbiguousOrder    = fmt.Errorf("%w: ambiguous order for checkout session", domorder.ErrConflict)
	ErrPaidByAnother     = fmt.Errorf("%w: order already paid", domorder.ErrConflict)
	ErrUnderpaid         = fmt.Errorf("%w: amount paid is below the order total", domorder.ErrConflict)
	// ErrCannotUpdate is returned when the conditional update matched nothing.
	ErrCannotUpdate = fmt.Errorf("%w: order already paid or cannot update", domorder.ErrConflict)
	// ErrForeignSession and ErrTransactionUsed refuse to settle an order with
	// a payment made by, or already credited to, someone else.
	ErrForeignSession  = fmt.Errorf("%w: checkout session belongs to another customer", ErrCannotUpdate)
	ErrTransactionUsed = fmt.Errorf("%w: transaction already settled another order", ErrCannotUpdate)
)

// ConfirmPaymentUseCase reconciles a settled checkout session with its order.
//
// The order moves unpaid→paid through one conditional store update; only the
// request whose update modified the order decrements stock and publishes
// order.paid. Replays against an already paid order succeed without effects.
type ConfirmPaymentUseCase struct {
	orders    domorder.Repository
	books     dombook.Repository
	gateway   dompay.Gateway
	publisher domoutbox.Publisher
	now       func() time.Time
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	stockCounter observability.Counter   // book_stock_decrements_total{outcome}
}

func NewConfirmPaymentUseCase(
	orders domorder.Repository,
	books dombook.Repository,
	gateway dompay.Gateway,
	publisher domoutbox.Publisher,
	now func() time.Time,
	tel observability.Observability,
) *ConfirmPaymentUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if publisher == nil {
		publisher = domoutbox.Discard
	}
	m := tel.Metrics()
	return &ConfirmPaymentUseCase{
		orders:       orders,
		books:        books,
		gateway:      gateway,
		publisher:    publisher,
		now:          now,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
		stockCounter: m.Counter(observability.MStockDecrements),
	}
}

type ConfirmPaymentInput struct {
	SessionID string
	// Caller is the verified account email.
	Caller string
}

type ConfirmPaymentResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
}

func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentInput) (_ *ConfirmPaymentResult, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCasePaymentConfirm),
		observability.F("session_id", cmd.SessionID),
	)

	var orderID string
	var publishErr error

	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"ConfirmPayment",
		attribute.String("use_case", useCasePaymentConfirm),
		attribute.String("payment.session_id", cmd.SessionID),
	)
	ctx = logctx.With(ctx, logger)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCasePaymentConfirm),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCasePaymentConfirm),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if strings.TrimSpace(cmd.SessionID) == "" {
		outcome, statusText = "error", "SESSION_ID_REQUIRED"
		return nil, application.NewValidation("sessionId is required")
	}
	if strings.TrimSpace(cmd.Caller) == "" {
		outcome, statusText = "error", "CALLER_REQUIRED"
		return nil, application.ErrUnauthorized
	}

	gwStart := time.Now()
	session, gerr := uc.gateway.RetrieveCheckoutSession(ctx, cmd.SessionID)
	observeExternal(uc.extCounter, uc.extHistogram, endpointGetSession, gwStart, gerr)
	if gerr != nil {
		if errors.Is(gerr, dompay.ErrSessionNotFound) {
			outcome, statusText = "error", "SESSION_NOT_FOUND"
		} else {
			outcome, statusText = "error", "GATEWAY_RETRIEVE_FAILED"
		}
		return nil, gerr
	}
	if !session.Settled() {
		outcome, statusText = "error", "PAYMENT_NOT_COMPLETED"
		span.SetAttributes(attribute.String("payment.status", session.PaymentStatus))
		return nil, ErrPaymentIncomplete
	}
	if owner := sessionOwner(session); owner != "" && !strings.EqualFold(owner, cmd.Caller) {
		outcome, statusText = "error", "SESSION_OF_ANOTHER_CUSTOMER"
		return nil, ErrForeignSession
	}

	txID := session.TransactionID
	if txID == "" {
		txID = session.ID
	}

	o, lerr := uc.locate(ctx, session, cmd.Caller, txID)
	if lerr != nil {
		outcome, statusText = "error", "ORDER_LOCATE_FAILED"
		if errors.Is(lerr, ErrAmbiguousOrder) {
			statusText = "ORDER_AMBIGUOUS"
		}
		return nil, lerr
	}
	orderID = o.ID
	span.SetAttributes(attribute.String("order.id", o.ID))

	if o.IsPaid() {
		if !o.OwnedBy(cmd.Caller) {
			outcome, statusText = "error", "PAID_BY_ANOTHER_CUSTOMER"
			return nil, ErrPaidByAnother
		}
		statusText = "IDEMPOTENT_REPLAY"
		span.AddEvent("order.idempotent_replay")
		return &ConfirmPaymentResult{
			Success:       true,
			Message:       "Payment already verified",
			OrderID:       o.ID,
			TransactionID: o.TransactionID,
		}, nil
	}

	if due := dompay.MinorUnits(o.Price) * int64(o.Quantity); session.AmountTotal < due {
		outcome, statusText = "error", "AMOUNT_BELOW_TOTAL"
		span.SetAttributes(
			attribute.Int64("payment.amount_total", session.AmountTotal),
			attribute.Int64("order.amount_due", due),
		)
		return nil, ErrUnderpaid
	}
	claimed, cerr := uc.orders.List(ctx, domorder.Filter{TransactionID: txID})
	if cerr != nil {
		outcome, statusText = "error", "REPO_LIST_FAILED"
		return nil, application.WrapRepositoryError(cerr)
	}
	for _, c := range claimed {
		if c.ID != o.ID {
			outcome, statusText = "error", "TRANSACTION_ALREADY_USED"
			return nil, ErrTransactionUsed
		}
	}

	modified, merr := uc.orders.MarkPaid(ctx, o.ID, cmd.Caller, txID, uc.now())
	if merr != nil {
		outcome, statusText = "error", "REPO_MARK_PAID_FAILED"
		return nil, application.WrapRepositoryError(merr)
	}
	if !modified {
		outcome, statusText = "error", "NOT_MODIFIED"
		return nil, ErrCannotUpdate
	}
	span.AddEvent("order.paid", trace.WithAttributes(attribute.String("payment.transaction_id", txID)))

	uc.decrementStock(ctx, logger, o.BookID)

	o.TransactionID = txID
	if pubErr := uc.publish(ctx, o); pubErr != nil {
		publishErr = pubErr
		statusText = "EVENT_PUBLISH_FAILED"
	}

	return &ConfirmPaymentResult{
		Success:       true,
		Message:       "Payment verified & order updated",
		OrderID:       o.ID,
		TransactionID: txID,
	}, nil
}

// sessionOwner is the customer the session was opened for, if recorded.
func sessionOwner(s *dompay.Session) string {
	if s.Metadata.Customer != "" {
		return s.Metadata.Customer
	}
	return s.CustomerEmail
}

// locate resolves the order a session pays for. Metadata orderId wins; the
// bookId fallback never picks between several open orders.
func (uc *ConfirmPaymentUseCase) locate(ctx context.Context, s *dompay.Session, caller, txID string) (*domorder.Order, error) {
	if s.Metadata.OrderID != "" {
		o, err := uc.orders.Get(ctx, s.Metadata.OrderID)
		if err != nil {
			return nil, application.WrapRepositoryError(err, domorder.ErrNotFound)
		}
		return o, nil
	}
	if s.Metadata.BookID == "" {
		return nil, domorder.ErrNotFound
	}

	candidates, err := uc.orders.List(ctx, domorder.Filter{Customer: caller, BookID: s.Metadata.BookID})
	if err != nil {
		return nil, application.WrapRepositoryError(err)
	}
	var open []*domorder.Order
	for _, o := range candidates {
		if o.TransactionID != "" && o.TransactionID == txID {
			return o, nil
		}
		if o.Status == domorder.StatusPending && o.PaymentStatus == domorder.PaymentUnpaid {
			open = append(open, o)
		}
	}
	switch len(open) {
	case 0:
		return nil, domorder.ErrNotFound
	case 1:
		return open[0], nil
	default:
		return nil, ErrAmbiguousOrder
	}
}

func (uc *ConfirmPaymentUseCase) decrementStock(ctx context.Context, logger observability.Logger, bookID string) {
	ok, err := uc.books.DecrementStock(ctx, bookID, 1)
	switch {
	case err != nil:
		uc.stockCounter.Add(1, observability.L("outcome", "error"))
		logger.Error("stock_decrement_failed",
			observability.F("book_id", bookID),
			observability.F("error", err),
		)
	case !ok:
		uc.stockCounter.Add(1, observability.L("outcome", "skipped"))
		logger.Warn("stock_decrement_skipped",
			observability.F("book_id", bookID),
			observability.F("reason", "book missing or out of stock"),
		)
	default:
		uc.stockCounter.Add(1, observability.L("outcome", "success"))
	}
}

func (uc *ConfirmPaymentUseCase) publish(ctx context.Context, o *domorder.Order) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	pubStart := time.Now()
	pubOutcome := "success"
	err := uc.publisher.Publish(pubCtx, domorder.NewOrderPaidEvent(o))
	if err != nil {
		pubOutcome = "error"
	} else if pubCtx.Err() != nil {
		pubOutcome = "canceled"
		err = pubCtx.Err()
	}

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
		observability.L("outcome", pubOutcome),
	)
	uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
	)
	return err
}
