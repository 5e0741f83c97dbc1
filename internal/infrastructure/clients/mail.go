package clients

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailClient delivers HTML mail over SMTP. Sends are fire and forget from
// the caller's point of view; the error only feeds failure counting.
type MailClient struct {
	client *mail.Client
	from   string
}

func NewMailClient(cfg MailConfig) (*MailClient, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating mail client: %w", err)
	}

	return &MailClient{
		client: client,
		from:   cfg.From,
	}, nil
}

func (c *MailClient) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := c.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("error sending mail to %s: %w", to, err)
	}
	return nil
}
