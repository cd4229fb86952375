// Package mailer sends transactional mail. SendGridSender delivers through
// the SendGrid v3 API; LogSender only writes the message to the log and is
// used when no API key is configured.
package mailer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single outgoing mail.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	Text      string
	HTML      string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns a SendGridSender when apiKey is set and a LogSender otherwise.
func NewSender(apiKey, fromAddress, fromName string, logger logging.Logger) Sender {
	if apiKey == "" {
		return NewLogSender(logger)
	}
	return NewSendGridSender(apiKey, fromAddress, fromName)
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client sendClient
	from   *mail.Email
}

func NewSendGridSender(apiKey, fromAddress, fromName string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail(msg.ToName, msg.ToAddress)
	m := mail.NewSingleEmail(s.from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "mail not delivered, no provider configured",
		"to", msg.ToAddress, "subject", msg.Subject, "text", msg.Text)
	return nil
}
