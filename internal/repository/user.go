// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/models"
)

// EnsureUser inserts a user for email unless one already exists.
// It reports whether a new row was created.
func (r *Repository) EnsureUser(ctx context.Context, email string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, created_at) VALUES (?, ?) ON CONFLICT (email) DO NOTHING`,
		email, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetUserByEmail retrieves a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT id, email, created_at FROM users WHERE email = ?`, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// CountUsers returns the total number of users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM users`)
	return count, err
}
