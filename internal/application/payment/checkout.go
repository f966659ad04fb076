package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/bookmarket/internal/application"
	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	dompay "github.com/Zhima-Mochi/bookmarket/internal/domain/payment"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentService          = "payment-service"
	useCaseCheckoutInitiate = "payment.checkout"
	gatewayPeer             = "stripe"
	endpointCreateSession   = "checkout.sessions.create"
	endpointGetSession      = "checkout.sessions.get"
	sessionPlaceholder      = "{CHECKOUT_SESSION_ID}"
)

// CheckoutConfig is fixed at wiring time.
type CheckoutConfig struct {
	Currency     string
	ClientDomain string
}

func (c CheckoutConfig) successURL() string {
	return strings.TrimRight(c.ClientDomain, "/") + "/payment-success?session_id=" + sessionPlaceholder
}

func (c CheckoutConfig) cancelURL() string {
	return strings.TrimRight(c.ClientDomain, "/") + "/payment-cancelled?session_id=" + sessionPlaceholder
}

// ErrNotAwaitingPayment is returned when checkout names an order that is no
// longer pending and unpaid.
var ErrNotAwaitingPayment = fmt.Errorf("%w: order is not awaiting payment", domorder.ErrConflict)

// InitiateCheckoutUseCase opens a hosted checkout session. It never mutates
// an order; the session metadata carries the correlation keys that
// ConfirmPaymentUseCase reads back. When the input names an order, the line
// item is priced from that order, not from the request.
type InitiateCheckoutUseCase struct {
	gateway dompay.Gateway
	orders  domorder.Repository
	cfg     CheckoutConfig
	in      application.Instrument

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInitiateCheckoutUseCase(gateway dompay.Gateway, orders domorder.Repository, cfg CheckoutConfig, tel observability.Observability) *InitiateCheckoutUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &InitiateCheckoutUseCase{
		gateway:      gateway,
		orders:       orders,
		cfg:          cfg,
		in:           application.NewInstrument(tel, paymentService),
		extCounter:   tel.Metrics().Counter(observability.MExternalRequests),
		extHistogram: tel.Metrics().Histogram(observability.MExternalRequestDuration),
	}
}

type InitiateCheckoutInput struct {
	OrderID       string
	BookID        string
	Name          string
	Description   string
	Image         string
	Price         float64
	Quantity      int
	CustomerEmail string
}

type InitiateCheckoutResult struct {
	SessionID string
	URL       string
}

func (uc *InitiateCheckoutUseCase) Execute(ctx context.Context, cmd InitiateCheckoutInput) (_ *InitiateCheckoutResult, err error) {
	ctx, run := uc.in.Begin(ctx, useCaseCheckoutInitiate, "InitiateCheckout",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.book_id", cmd.BookID),
	)
	defer func() { run.End(ctx, err) }()

	if cmd.OrderID != "" {
		o, err := uc.orders.Get(ctx, cmd.OrderID)
		if err != nil {
			run.Fail("ORDER_LOAD_FAILED")
			return nil, application.WrapRepositoryError(err, domorder.ErrNotFound)
		}
		if !o.OwnedBy(cmd.CustomerEmail) {
			run.Fail("ORDER_NOT_OWNED")
			return nil, application.NewForbidden("order belongs to another customer")
		}
		if o.Status != domorder.StatusPending || o.PaymentStatus != domorder.PaymentUnpaid {
			run.Fail("ORDER_NOT_PAYABLE")
			return nil, ErrNotAwaitingPayment
		}
		cmd.BookID = o.BookID
		cmd.Name = o.Name
		cmd.Price = o.Price
		cmd.Quantity = o.Quantity
		if cmd.Image == "" {
			cmd.Image = o.Image
		}
	}

	if strings.TrimSpace(cmd.Name) == "" {
		run.Fail("NAME_REQUIRED")
		return nil, application.NewValidation("name is required")
	}
	if cmd.Price < 0 {
		run.Fail("PRICE_INVALID")
		return nil, application.NewValidation("price must be zero or greater")
	}
	if cmd.Quantity == 0 {
		cmd.Quantity = 1
	}
	if cmd.Quantity < 0 {
		run.Fail("QUANTITY_INVALID")
		return nil, application.NewValidation("quantity must be greater than zero")
	}

	in := dompay.CreateSessionInput{
		Item: dompay.LineItem{
			Name:        cmd.Name,
			Description: cmd.Description,
			Image:       cmd.Image,
			UnitAmount:  dompay.MinorUnits(cmd.Price),
			Quantity:    int64(cmd.Quantity),
		},
		Currency:      uc.cfg.Currency,
		CustomerEmail: cmd.CustomerEmail,
		Metadata: dompay.Metadata{
			OrderID:  cmd.OrderID,
			BookID:   cmd.BookID,
			Customer: cmd.CustomerEmail,
		},
		SuccessURL: uc.cfg.successURL(),
		CancelURL:  uc.cfg.cancelURL(),
	}

	start := time.Now()
	session, gerr := uc.gateway.CreateCheckoutSession(ctx, in)
	observeExternal(uc.extCounter, uc.extHistogram, endpointCreateSession, start, gerr)
	if gerr != nil {
		run.Fail("GATEWAY_CREATE_FAILED")
		return nil, gerr
	}

	run.Annotate(observability.F("session_id", session.ID))
	return &InitiateCheckoutResult{SessionID: session.ID, URL: session.URL}, nil
}

func observeExternal(c observability.Counter, h observability.Histogram, endpoint string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.Add(1,
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	h.Observe(time.Since(start).Seconds(),
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", endpoint),
	)
}
