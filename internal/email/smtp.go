package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/yossefJiy/caravan-creator-sub000/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers mail over a direct SMTP connection via go-mail. SMTP
// has no provider message id, so Send always returns an empty id.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(s.fromName, s.fromEmail); err != nil {
		return "", fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return "", fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return "", nil
}
