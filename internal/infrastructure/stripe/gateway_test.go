package stripe

import (
	"testing"

	dompay "github.com/Zhima-Mochi/bookmarket/internal/domain/payment"

	stripego "github.com/stripe/stripe-go/v76"
)

func TestSessionParams(t *testing.T) {
	p := sessionParams(dompay.CreateSessionInput{
		Item:          dompay.LineItem{Name: "Dune", Image: "https://img/dune.png", UnitAmount: 1999, Quantity: 2},
		Currency:      "usd",
		CustomerEmail: "ann@example.com",
		Metadata:      dompay.Metadata{OrderID: "o1", BookID: "b1", Customer: "ann@example.com"},
		SuccessURL:    "https://shop/ok",
		CancelURL:     "https://shop/cancel",
	})

	if *p.Mode != "payment" || *p.CustomerEmail != "ann@example.com" {
		t.Fatalf("unexpected session params: mode=%s email=%s", *p.Mode, *p.CustomerEmail)
	}
	if len(p.LineItems) != 1 {
		t.Fatalf("expected one line item, got %d", len(p.LineItems))
	}
	li := p.LineItems[0]
	if *li.PriceData.UnitAmount != 1999 || *li.Quantity != 2 || *li.PriceData.Currency != "usd" {
		t.Fatalf("unexpected line item")
	}
	if li.PriceData.ProductData.Description != nil {
		t.Fatal("empty description must be omitted")
	}
	if len(li.PriceData.ProductData.Images) != 1 {
		t.Fatal("expected one image")
	}
	if p.Metadata["orderId"] != "o1" || p.Metadata["bookId"] != "b1" || p.Metadata["customer"] != "ann@example.com" {
		t.Fatalf("unexpected metadata: %v", p.Metadata)
	}
}

func TestToSession(t *testing.T) {
	s := toSession(&stripego.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: stripego.CheckoutSessionPaymentStatusPaid,
		PaymentIntent: &stripego.PaymentIntent{ID: "pi_1"},
		Metadata:      map[string]string{"orderId": "o1"},
	})
	if s.TransactionID != "pi_1" || s.Metadata.OrderID != "o1" || !s.Settled() {
		t.Fatalf("unexpected session: %+v", s)
	}

	s = toSession(&stripego.CheckoutSession{ID: "cs_2", PaymentStatus: stripego.CheckoutSessionPaymentStatusUnpaid})
	if s.TransactionID != "" || s.Settled() {
		t.Fatalf("unexpected session: %+v", s)
	}
}
