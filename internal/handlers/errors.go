// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Client-facing error messages. They never carry internal detail.
const (
	msgEmailRequired      = "Email is required"
	msgRateLimited        = "rate_limit"
	msgSendFailed         = "Failed to send verification code"
	msgInvalidCode        = "Invalid or expired code"
	msgVerifyFailed       = "Failed to verify code"
	msgNoFilterOptions    = "No filter options found in database"
	msgFilterFetchFailed  = "Failed to fetch filter options"
	msgSettingsFailed     = "Failed to fetch settings"
	msgSubmitFailed       = "Failed to save setting"
	msgSettingNotFound    = "Setting not found"
	msgLikeFailed         = "Failed to like setting"
	msgInvalidRequest     = "Invalid request"
	msgUnauthorized       = "Authentication required"
	msgInternalServerFail = "Internal server error"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// JSONError writes {"error": message} with the given status.
func JSONError(c echo.Context, code int, message string) error {
	return c.JSON(code, ErrorResponse{Error: message})
}

// serverError logs err and answers with a generic 500.
func serverError(c echo.Context, message string, err error) error {
	slog.ErrorContext(c.Request().Context(), message,
		"error", err,
		"method", c.Request().Method,
		"path", c.Path(),
	)
	return JSONError(c, http.StatusInternalServerError, message)
}

// Unauthorized answers with 401.
func Unauthorized(c echo.Context) error {
	return JSONError(c, http.StatusUnauthorized, msgUnauthorized)
}

// HTTPErrorHandler renders echo errors, including unmatched routes, as JSON.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := msgInternalServerFail
	if he, ok := err.(*echo.HTTPError); ok { //nolint:errorlint // echo returns the concrete type
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		slog.ErrorContext(c.Request().Context(), "unhandled error", "error", err, "path", c.Request().URL.Path)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = JSONError(c, code, message)
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}
