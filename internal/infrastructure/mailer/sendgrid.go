package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/Zhima-Mochi/bookmarket/internal/application/notification"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
)

const senderName = "Bookmarket"

// SendGrid delivers receipts through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   string
}

var _ notification.Mailer = (*SendGrid)(nil)

func NewSendGrid(apiKey, from string) (*SendGrid, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("sendgrid: api key is empty")
	}
	if strings.TrimSpace(from) == "" {
		return nil, errors.New("sendgrid: from address is empty")
	}
	return &SendGrid{client: sendgrid.NewSendClient(apiKey), from: from}, nil
}

func (s *SendGrid) SendReceipt(ctx context.Context, r notification.Receipt) error {
	subject, body := Compose(r)
	msg := mail.NewSingleEmail(
		mail.NewEmail(senderName, s.from),
		subject,
		mail.NewEmail("", r.To),
		body,
		"<pre>"+html.EscapeString(body)+"</pre>",
	)

	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

// Compose renders the receipt subject and plain-text body.
func Compose(r notification.Receipt) (subject, body string) {
	subject = "Your receipt for " + r.BookName
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your purchase.\n\n")
	fmt.Fprintf(&b, "Book:        %s\n", r.BookName)
	fmt.Fprintf(&b, "Quantity:    %d\n", r.Quantity)
	fmt.Fprintf(&b, "Price:       %s\n", decimal.NewFromFloat(r.Price).StringFixed(2))
	fmt.Fprintf(&b, "Order:       %s\n", r.OrderID)
	fmt.Fprintf(&b, "Transaction: %s\n", r.TransactionID)
	if !r.PaidAt.IsZero() {
		fmt.Fprintf(&b, "Paid at:     %s\n", r.PaidAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	return subject, b.String()
}
