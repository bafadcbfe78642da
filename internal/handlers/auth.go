// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/LanceVShoot/FFB-Garage/internal/appcontext"
	"github.com/LanceVShoot/FFB-Garage/internal/services/session"
	"github.com/LanceVShoot/FFB-Garage/internal/services/verification"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for the email code login.
type AuthHandlers struct {
	codes    *verification.Service
	sessions *session.Manager
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(codes *verification.Service, sessions *session.Manager) *AuthHandlers {
	return &AuthHandlers{
		codes:    codes,
		sessions: sessions,
	}
}

// SendCodeRequest is the request body for SendCode.
type SendCodeRequest struct {
	Email string `json:"email"`
}

// VerifyCodeRequest is the request body for VerifyCode.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// SessionResponse describes the caller's authentication state.
type SessionResponse struct {
	Email         string `json:"email,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// SendCode issues a verification code and mails it.
func (h *AuthHandlers) SendCode(c echo.Context) error {
	var req SendCodeRequest
	if err := c.Bind(&req); err != nil {
		return JSONError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	err := h.codes.RequestCode(c.Request().Context(), strings.TrimSpace(req.Email))
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, verification.ErrEmailRequired):
		return JSONError(c, http.StatusBadRequest, msgEmailRequired)
	case errors.Is(err, verification.ErrRateLimited):
		return JSONError(c, http.StatusTooManyRequests, msgRateLimited)
	default:
		return serverError(c, msgSendFailed, err)
	}
}

// VerifyCode redeems a code and starts the session.
func (h *AuthHandlers) VerifyCode(c echo.Context) error {
	var req VerifyCodeRequest
	if err := c.Bind(&req); err != nil {
		return JSONError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	addr := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(req.Code)

	err := h.codes.Verify(c.Request().Context(), addr, code)
	if errors.Is(err, verification.ErrInvalidCode) {
		return JSONError(c, http.StatusBadRequest, msgInvalidCode)
	}
	if err != nil {
		return serverError(c, msgVerifyFailed, err)
	}

	cookie, err := h.sessions.Create(addr)
	if err != nil {
		return serverError(c, msgVerifyFailed, err)
	}
	c.SetCookie(cookie)
	appcontext.From(c).Session.Login(addr)

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"email":   addr,
	})
}

// Session reports whether the caller is logged in.
func (h *AuthHandlers) Session(c echo.Context) error {
	ac := appcontext.From(c)
	return c.JSON(http.StatusOK, SessionResponse{
		Authenticated: ac.IsAuthenticated(),
		Email:         ac.Email(),
	})
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	appcontext.From(c).Session.Logout()
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
