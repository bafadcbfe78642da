// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"log/slog"
)

// LogSender writes mail to the log instead of delivering it. Development only.
type LogSender struct {
	from Address
}

// NewLogSender creates a LogSender.
func NewLogSender(from Address) *LogSender {
	return &LogSender{from: from}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, m Message) error {
	slog.InfoContext(ctx, "mail not delivered (log provider)",
		"from", s.from.Email,
		"to", m.To,
		"subject", m.Subject,
		"body", m.Text,
	)
	return nil
}
