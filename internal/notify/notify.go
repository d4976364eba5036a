// Package notify delivers outbound email on behalf of the auth flows.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	pkgkafka "github.com/utafrali/CompanyDirectory/pkg/kafka"
	"github.com/utafrali/CompanyDirectory/pkg/logger"
)

// Email is a single outbound message.
type Email struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers email through one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, email *Email) error
}

// VerificationEmail builds the message carrying link.
func VerificationEmail(to, link string) *Email {
	return &Email{
		To:      to,
		Subject: "Verify your email address",
		Body: fmt.Sprintf("Confirm your email address by opening the link below. "+
			"It expires in 15 minutes.\n\n%s\n", link),
	}
}

// LogSender records that a message would have been sent. Bodies are never
// logged because they carry verification tokens.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only logs.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Name returns the name of this sender.
func (s *LogSender) Name() string { return "log" }

// Send logs recipient and subject.
func (s *LogSender) Send(ctx context.Context, email *Email) error {
	s.logger.InfoContext(ctx, "email queued",
		slog.String("sender", s.Name()),
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
	)
	return nil
}

// TopicEmailRequested carries messages for the delivery worker.
var TopicEmailRequested = pkgkafka.Topic("notification", "email_requested")

// EventWriter is satisfied by *pkgkafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// KafkaSender hands messages to the notification worker over Kafka.
type KafkaSender struct {
	writer EventWriter
	source string
}

// NewKafkaSender creates a sender publishing to TopicEmailRequested.
func NewKafkaSender(writer EventWriter, source string) *KafkaSender {
	return &KafkaSender{writer: writer, source: source}
}

// Name returns the name of this sender.
func (s *KafkaSender) Name() string { return "kafka" }

// Send publishes email keyed by recipient.
func (s *KafkaSender) Send(ctx context.Context, email *Email) error {
	ev, err := pkgkafka.NewEvent("notification.email_requested", email.To, "email", s.source, email)
	if err != nil {
		return err
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		ev.WithCorrelationID(id)
	}
	if err := s.writer.Publish(ctx, TopicEmailRequested, ev); err != nil {
		return fmt.Errorf("kafka sender: %w", err)
	}
	return nil
}

// VerificationLink appends the url-escaped token to base as the token query
// parameter, keeping any query already present.
func VerificationLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse verification base url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
