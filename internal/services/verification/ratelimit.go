// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/repository"
)

const (
	// RateWindow is the trailing window over which issued codes are counted.
	RateWindow = 15 * time.Minute
	// MaxCodesPerWindow is the number of codes an email may receive per window.
	MaxCodesPerWindow = 3
)

// RateLimiter bounds how many codes one email can be sent. It counts rows
// in the code store, so codes removed by a sweep or a successful
// verification no longer count.
type RateLimiter struct {
	repo   *repository.Repository
	now    func() time.Time
	window time.Duration
	max    int64
}

// NewRateLimiter creates a limiter using the default window and quota.
func NewRateLimiter(repo *repository.Repository, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		repo:   repo,
		now:    now,
		window: RateWindow,
		max:    MaxCodesPerWindow,
	}
}

// Allow reports whether another code may be issued to email.
// The check is not atomic with the subsequent insert.
func (l *RateLimiter) Allow(ctx context.Context, email string) (bool, error) {
	count, err := l.repo.CountVerificationCodesSince(ctx, email, l.now().Add(-l.window))
	if err != nil {
		return false, fmt.Errorf("count recent codes: %w", err)
	}
	return count < l.max, nil
}
