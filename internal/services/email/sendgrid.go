// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   Address
}

// NewSendGridSender creates a SendGrid sender.
func NewSendGridSender(apiKey string, from Address) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: SendGrid API key is required", ErrNotConfigured)
	}
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey), from: from}, nil
}

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, m Message) error {
	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(s.from.Name, s.from.Email),
		m.Subject,
		sgmail.NewEmail("", m.To),
		m.Text,
		m.HTML,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sending email: sendgrid responded %d", resp.StatusCode)
	}
	return nil
}
