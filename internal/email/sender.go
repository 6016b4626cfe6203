// Package email delivers outbound mail through the configured transport and
// renders the pipeline's HTML templates.
package email

import (
	"context"

	"github.com/yossefJiy/caravan-creator-sub000/platform/config"
)

// Message is one outbound email. The notifier logs every attempt, so the
// sender returns the provider message id when the transport supplies one.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a message and returns the provider message id, or an empty
// string for transports without one.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NoopSender swallows messages. Used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, msg Message) (string, error) {
	return "", nil
}

// NewSender selects the transport from configuration: the delivery API by
// default, direct SMTP when EMAIL_TRANSPORT=smtp, or a no-op when disabled.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	if cfg.GetEmailTransport() == "smtp" {
		return NewSMTPSender(cfg)
	}
	return NewAPISender(cfg)
}
