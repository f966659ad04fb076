package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound = errors.New("payment: checkout session not found")
	ErrGateway         = errors.New("payment: gateway failure")
)

// Metadata correlates a checkout session with the order it pays for.
type Metadata struct {
	OrderID  string
	BookID   string
	Customer string
}

type LineItem struct {
	Name        string
	Description string
	Image       string
	// UnitAmount is in the currency's minor unit.
	UnitAmount int64
	Quantity   int64
}

type CreateSessionInput struct {
	Item          LineItem
	Currency      string
	CustomerEmail string
	Metadata      Metadata
	SuccessURL    string
	CancelURL     string
}

// Session is the provider's view of a hosted checkout.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	// TransactionID is the provider's payment reference (a payment intent).
	TransactionID string
	CustomerEmail string
	AmountTotal   int64
	Metadata      Metadata
}

const (
	SessionPaid              = "paid"
	SessionUnpaid            = "unpaid"
	SessionNoPaymentRequired = "no_payment_required"
)

// Settled reports whether the provider considers the session paid.
func (s *Session) Settled() bool {
	return s.PaymentStatus == SessionPaid || s.PaymentStatus == SessionNoPaymentRequired
}

// Gateway is the billing provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, in CreateSessionInput) (*Session, error)
	// RetrieveCheckoutSession returns ErrSessionNotFound for unknown ids.
	RetrieveCheckoutSession(ctx context.Context, id string) (*Session, error)
}

// MinorUnits converts a major-unit price to an integer minor-unit amount,
// rounding half away from zero.
func MinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}
