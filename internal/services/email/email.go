// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email delivers outgoing mail through a configurable provider.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/LanceVShoot/FFB-Garage/internal/config"
)

// Provider names accepted by New.
const (
	ProviderLog        = "log"
	ProviderSMTP       = "smtp"
	ProviderSendGrid   = "sendgrid"
	ProviderMailerSend = "mailersend"
)

// ErrNotConfigured is returned by New when the selected provider lacks
// required settings.
var ErrNotConfigured = errors.New("mail provider not configured")

// Message is a single outgoing mail.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Address is the envelope sender.
type Address struct {
	Email string
	Name  string
}

// New returns the Sender selected by cfg.Provider.
func New(cfg *config.MailConfig) (Sender, error) {
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: from address is required", ErrNotConfigured)
	}
	from := Address{Email: cfg.From, Name: cfg.FromName}

	switch cfg.Provider {
	case "", ProviderLog:
		return NewLogSender(from), nil
	case ProviderSMTP:
		return NewSMTPSender(&cfg.SMTP, from)
	case ProviderSendGrid:
		return NewSendGridSender(cfg.SendGridAPIKey, from)
	case ProviderMailerSend:
		return NewMailerSendSender(cfg.MailerSendAPIKey, from)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
