package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/MomoCodeByte/final-chekelen/internal/config"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers plain-text mail through one SMTP relay. A connection
// is dialled per message.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
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
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := m.build(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Body)
	return out, nil
}
