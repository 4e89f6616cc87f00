package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/FACorreiaa/go-account-api/config"
)

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*SMTPNotifier)(nil)
)

// LogNotifier writes messages to the logger; used when SMTP is disabled.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "====== EMAIL NOTIFICATION ======",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}

// SMTPNotifier delivers plain-text mail through a relay.
type SMTPNotifier struct {
	from string
	// send dials the relay and delivers m; replaced in tests.
	send func(ctx context.Context, m *mail.Msg) error
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	opts := []mail.Option{mail.WithTLSPolicy(mail.TLSOpportunistic)}
	if port, err := strconv.Atoi(cfg.Port); err == nil {
		opts = append(opts, mail.WithPort(port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return &SMTPNotifier{
		from: cfg.From,
		send: func(ctx context.Context, m *mail.Msg) error {
			client, err := mail.NewClient(cfg.Host, opts...)
			if err != nil {
				return fmt.Errorf("smtp client: %w", err)
			}
			return client.DialAndSendWithContext(ctx, m)
		},
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("header injection in subject to %q", msg.To)
	}

	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", n.from, err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := n.send(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
