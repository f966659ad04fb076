package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	dompay "github.com/Zhima-Mochi/bookmarket/internal/domain/payment"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	metaOrderID  = "orderId"
	metaBookID   = "bookId"
	metaCustomer = "customer"
)

// Gateway runs hosted Stripe Checkout sessions in payment mode.
type Gateway struct {
	api *client.API
}

var _ dompay.Gateway = (*Gateway)(nil)

func New(secretKey string) (*Gateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe: secret key is empty")
	}
	return &Gateway{api: client.New(secretKey, nil)}, nil
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, in dompay.CreateSessionInput) (*dompay.Session, error) {
	params := sessionParams(in)
	params.Context = ctx
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create session: %w", dompay.ErrGateway, err)
	}
	return toSession(s), nil
}

func (g *Gateway) RetrieveCheckoutSession(ctx context.Context, id string) (*dompay.Session, error) {
	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(id, params)
	if err != nil {
		var serr *stripego.Error
		if errors.As(err, &serr) && serr.HTTPStatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", dompay.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("%w: retrieve session: %w", dompay.ErrGateway, err)
	}
	return toSession(s), nil
}

func sessionParams(in dompay.CreateSessionInput) *stripego.CheckoutSessionParams {
	product := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripego.String(in.Item.Name),
	}
	if in.Item.Description != "" {
		product.Description = stripego.String(in.Item.Description)
	}
	if in.Item.Image != "" {
		product.Images = stripego.StringSlice([]string{in.Item.Image})
	}

	params := &stripego.CheckoutSessionParams{
		LineItems: []*stripego.CheckoutSessionLineItemParams{{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripego.String(in.Currency),
				ProductData: product,
				UnitAmount:  stripego.Int64(in.Item.UnitAmount),
			},
			Quantity: stripego.Int64(in.Item.Quantity),
		}},
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL: stripego.String(in.SuccessURL),
		CancelURL:  stripego.String(in.CancelURL),
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(in.CustomerEmail)
	}
	for k, v := range map[string]string{
		metaOrderID:  in.Metadata.OrderID,
		metaBookID:   in.Metadata.BookID,
		metaCustomer: in.Metadata.Customer,
	} {
		if v != "" {
			params.AddMetadata(k, v)
		}
	}
	return params
}

func toSession(s *stripego.CheckoutSession) *dompay.Session {
	out := &dompay.Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Metadata: dompay.Metadata{
			OrderID:  s.Metadata[metaOrderID],
			BookID:   s.Metadata[metaBookID],
			Customer: s.Metadata[metaCustomer],
		},
	}
	if s.PaymentIntent != nil {
		out.TransactionID = s.PaymentIntent.ID
	}
	return out
}
