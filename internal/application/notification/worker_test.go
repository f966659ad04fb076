package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	domorder "github.com/Zhima-Mochi/bookmarket/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/bookmarket/internal/domain/outbox"
)

type captureMailer struct {
	sent []Receipt
	err  error
}

func (m *captureMailer) SendReceipt(_ context.Context, r Receipt) error {
	m.sent = append(m.sent, r)
	return m.err
}

type stubSubscriber map[string]domoutbox.Handler

func (s stubSubscriber) Subscribe(name string, h domoutbox.Handler) { s[name] = h }

func TestWorkerSendsReceiptOnOrderPaid(t *testing.T) {
	mailer := &captureMailer{}
	subs := stubSubscriber{}
	New(subs, mailer, nil).Start()

	h, ok := subs["order.paid"]
	if !ok {
		t.Fatal("worker did not subscribe to order.paid")
	}
	evt := domorder.OrderPaidEvent{OrderID: "o1", Customer: "ann@example.com", Name: "Dune", Price: 12, Quantity: 1, TransactionID: "pi_1", OccurredAt: time.Now()}
	if err := h(context.Background(), evt); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "ann@example.com" || mailer.sent[0].TransactionID != "pi_1" {
		t.Fatalf("unexpected receipts: %+v", mailer.sent)
	}
}

func TestWorkerReportsMailFailure(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp down")}
	w := New(nil, mailer, nil)

	err := w.HandleOrderPaid(context.Background(), domorder.OrderPaidEvent{OrderID: "o1", Customer: "ann@example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
}
