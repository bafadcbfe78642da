// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package verification issues and redeems the six-digit email login codes.
package verification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/i18n"
	"github.com/LanceVShoot/FFB-Garage/internal/metrics"
	"github.com/LanceVShoot/FFB-Garage/internal/repository"
	"github.com/LanceVShoot/FFB-Garage/internal/services/email"
)

// CodeTTL is how long an issued code can be redeemed.
const CodeTTL = 5 * time.Minute

// DefaultMailTimeout bounds a single delivery attempt.
const DefaultMailTimeout = 10 * time.Second

var (
	// ErrEmailRequired is returned when a code is requested for a blank address.
	ErrEmailRequired = errors.New("email is required")
	// ErrRateLimited is returned when the address used up its quota for the window.
	ErrRateLimited = errors.New("rate_limit")
	// ErrDelivery wraps the mailer error when a stored code could not be sent.
	ErrDelivery = errors.New("failed to deliver verification code")
	// ErrInvalidCode is returned for unknown, mismatched or expired codes.
	ErrInvalidCode = errors.New("invalid or expired code")
)

// Service issues, redeems and sweeps verification codes.
type Service struct {
	repo        *repository.Repository
	mailer      email.Sender
	limiter     *RateLimiter
	metrics     *metrics.Metrics
	now         func() time.Time
	generate    func() (string, error)
	mailTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCodeGenerator replaces GenerateCode.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.generate = gen }
}

// WithMetrics records lifecycle counters on m. A nil m disables them.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMailTimeout bounds each delivery attempt. Non-positive values keep the default.
func WithMailTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.mailTimeout = d
		}
	}
}

// NewService creates the verification service.
func NewService(repo *repository.Repository, mailer email.Sender, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		mailer:      mailer,
		now:         time.Now,
		generate:    GenerateCode,
		mailTimeout: DefaultMailTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = NewRateLimiter(repo, s.clock)
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// RequestCode issues a new code for addr and mails it. Earlier codes for the
// same address stay valid. When delivery fails the stored code is kept and
// an error wrapping ErrDelivery is returned.
func (s *Service) RequestCode(ctx context.Context, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return ErrEmailRequired
	}

	allowed, err := s.limiter.Allow(ctx, addr)
	if err != nil {
		return err
	}
	if !allowed {
		s.metrics.CodeRateLimited()
		slog.InfoContext(ctx, "verification code rate limited", "email", addr)
		return ErrRateLimited
	}

	if _, err := s.Sweep(ctx); err != nil {
		return err
	}

	code, err := s.generate()
	if err != nil {
		return err
	}

	now := s.clock()
	if _, err := s.repo.CreateVerificationCode(ctx, addr, code, now, now.Add(CodeTTL)); err != nil {
		return fmt.Errorf("store verification code: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()

	if err := s.mailer.Send(sendCtx, s.message(ctx, addr, code)); err != nil {
		s.metrics.DeliveryFailed()
		slog.ErrorContext(ctx, "verification code delivery failed", "email", addr, "error", err)
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	s.metrics.CodeIssued()
	slog.InfoContext(ctx, "verification code sent", "email", addr)
	return nil
}

func (s *Service) message(ctx context.Context, addr, code string) email.Message {
	minutes := int(CodeTTL / time.Minute)
	data := map[string]any{"Code": code}
	return email.Message{
		To:      addr,
		Subject: i18n.T(ctx, "verification_email_subject"),
		HTML:    i18n.TPlural(ctx, "verification_email_html", minutes, data),
		Text:    i18n.TPlural(ctx, "verification_email_text", minutes, data),
	}
}

// Verify redeems code for addr. On success every outstanding code for addr
// is deleted and a user row exists for addr. Lookup, consumption and user
// creation happen in one transaction.
func (s *Service) Verify(ctx context.Context, addr, code string) error {
	if addr == "" || code == "" {
		s.metrics.Verified(metrics.ResultInvalid)
		return ErrInvalidCode
	}

	now := s.clock()
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if _, err := tx.FindActiveVerificationCode(ctx, addr, code, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrInvalidCode
			}
			return fmt.Errorf("find verification code: %w", err)
		}

		if _, err := tx.DeleteVerificationCodesForEmail(ctx, addr); err != nil {
			return fmt.Errorf("consume verification codes: %w", err)
		}

		created, err := tx.EnsureUser(ctx, addr, now)
		if err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		if created {
			slog.InfoContext(ctx, "user created", "email", addr)
		}
		return nil
	})

	switch {
	case err == nil:
		s.metrics.Verified(metrics.ResultSuccess)
	case errors.Is(err, ErrInvalidCode):
		s.metrics.Verified(metrics.ResultInvalid)
	default:
		s.metrics.Verified(metrics.ResultError)
	}
	return err
}

// Sweep deletes every expired code regardless of owner.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredVerificationCodes(ctx, s.clock())
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	s.metrics.Swept(n)
	if n > 0 {
		slog.DebugContext(ctx, "expired verification codes removed", "count", n)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				slog.Error("sweep failed", "error", err)
			}
		}
	}
}
