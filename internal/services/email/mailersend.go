// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/mailersend/mailersend-go"
)

// MailerSendSender delivers mail through the MailerSend API.
type MailerSendSender struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

// NewMailerSendSender creates a MailerSend sender.
func NewMailerSendSender(apiKey string, from Address) (*MailerSendSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: MailerSend API key is required", ErrNotConfigured)
	}
	return &MailerSendSender{
		client: mailersend.NewMailersend(apiKey),
		from:   mailersend.From{Name: from.Name, Email: from.Email},
	}, nil
}

// Send implements Sender.
func (s *MailerSendSender) Send(ctx context.Context, m Message) error {
	msg := s.client.Email.NewMessage()
	msg.SetFrom(s.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: m.To}})
	msg.SetSubject(m.Subject)

	if strings.TrimSpace(m.Text) != "" {
		msg.SetText(m.Text)
	}
	if strings.TrimSpace(m.HTML) != "" {
		msg.SetHTML(m.HTML)
	}

	if _, err := s.client.Email.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
