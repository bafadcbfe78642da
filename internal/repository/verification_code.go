// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/models"
)

// CreateVerificationCode stores a newly issued code.
func (r *Repository) CreateVerificationCode(ctx context.Context, email, code string, createdAt, expiresAt time.Time) (*models.VerificationCode, error) {
	vc := &models.VerificationCode{
		Email:     email,
		Code:      code,
		CreatedAt: createdAt.UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO verification_codes (email, code, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		vc.Email, vc.Code, vc.CreatedAt, vc.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if vc.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return vc, nil
}

// CountVerificationCodesSince counts codes issued to email strictly after since.
func (r *Repository) CountVerificationCodesSince(ctx context.Context, email string, since time.Time) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT count(*) FROM verification_codes WHERE email = ? AND created_at > ?`,
		email, since.UTC())
	return count, err
}

// FindActiveVerificationCode returns the most recently issued code for email
// matching code that has not expired at now.
func (r *Repository) FindActiveVerificationCode(ctx context.Context, email, code string, now time.Time) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := r.db.GetContext(ctx, &vc,
		`SELECT id, email, code, created_at, expires_at
		 FROM verification_codes
		 WHERE email = ? AND code = ? AND expires_at > ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		email, code, now.UTC())
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

// ListVerificationCodes returns all outstanding codes for email, newest first.
func (r *Repository) ListVerificationCodes(ctx context.Context, email string) ([]models.VerificationCode, error) {
	codes := []models.VerificationCode{}
	err := r.db.SelectContext(ctx, &codes,
		`SELECT id, email, code, created_at, expires_at
		 FROM verification_codes WHERE email = ?
		 ORDER BY created_at DESC, id DESC`,
		email)
	return codes, err
}

// DeleteVerificationCodesForEmail removes every code issued to email.
func (r *Repository) DeleteVerificationCodesForEmail(ctx context.Context, email string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE email = ?`, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteExpiredVerificationCodes removes codes of all users that expired before now.
func (r *Repository) DeleteExpiredVerificationCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
