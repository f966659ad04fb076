package mailer

import (
	"context"

	"github.com/Zhima-Mochi/bookmarket/internal/application/notification"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/observability/logctx"
)

// Log writes receipts to the logger instead of sending them. It stands in
// when no SendGrid key is configured.
type Log struct {
	log observability.Logger
}

var _ notification.Mailer = Log{}

func NewLog(logger observability.Logger) Log {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return Log{log: logger}
}

func (l Log) SendReceipt(ctx context.Context, r notification.Receipt) error {
	subject, body := Compose(r)
	logctx.FromOr(ctx, l.log).Info("receipt_not_sent",
		observability.F("to", r.To),
		observability.F("subject", subject),
		observability.F("body", body),
	)
	return nil
}
