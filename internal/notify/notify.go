// Package notify delivers account emails. Delivery is fire-and-forget: a
// failed send is logged and counted but never reaches the caller.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-account-api/app/observability/metrics"
)

type Message struct {
	Kind    string // verification, welcome, password_reset
	To      string
	Subject string
	Body    string
}

// Notifier is the outbound email sink.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Sender is what the services depend on.
type Sender interface {
	Dispatch(ctx context.Context, msg Message)
}

var _ Sender = (*Dispatcher)(nil)

type Dispatcher struct {
	notifier Notifier
	logger   *slog.Logger
	timeout  time.Duration
}

func NewDispatcher(notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		logger:   logger,
		timeout:  15 * time.Second,
	}
}

// Dispatch sends msg on its own goroutine. The send outlives the request
// context but not the dispatcher timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()

		l := d.logger.With(slog.String("kind", msg.Kind), slog.String("to", msg.To))
		if err := d.notifier.Send(ctx, msg); err != nil {
			metrics.Get().NotificationErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", msg.Kind)))
			l.ErrorContext(ctx, "Failed to send notification", slog.Any("error", err))
			return
		}
		l.InfoContext(ctx, "Notification sent")
	}()
}

func VerificationEmail(to, username, code string) Message {
	return Message{
		Kind:    "verification",
		To:      to,
		Subject: "Verify your email",
		Body: fmt.Sprintf("Hi %s,\n\nUse this code to verify your email address:\n\n%s\n\n"+
			"The code expires in 24 hours.\n", username, code),
	}
}

func WelcomeEmail(to, username string) Message {
	return Message{
		Kind:    "welcome",
		To:      to,
		Subject: "Welcome aboard",
		Body:    fmt.Sprintf("Hi %s,\n\nYour email address is verified. Welcome!\n", username),
	}
}

func PasswordResetEmail(to, username, link string) Message {
	return Message{
		Kind:    "password_reset",
		To:      to,
		Subject: "Reset your password",
		Body: fmt.Sprintf("Hi %s,\n\nFollow this link to choose a new password:\n\n%s\n\n"+
			"The link expires in one hour. If you did not ask for a reset, ignore this email.\n", username, link),
	}
}
