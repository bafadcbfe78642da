// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LanceVShoot/FFB-Garage/internal/config"
	"github.com/LanceVShoot/FFB-Garage/internal/handlers"
	"github.com/LanceVShoot/FFB-Garage/internal/repository"
	"github.com/LanceVShoot/FFB-Garage/internal/services/session"
	"github.com/LanceVShoot/FFB-Garage/internal/services/verification"
	"github.com/LanceVShoot/FFB-Garage/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

type authFixture struct {
	h        *handlers.AuthHandlers
	repo     *repository.Repository
	mailer   *testutil.Mailer
	sessions *session.Manager
}

func newTestAuthHandlers(t *testing.T) *authFixture {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	mailer := &testutil.Mailer{}

	svc := verification.NewService(repo, mailer,
		verification.WithCodeGenerator(func() (string, error) { return "424242", nil }),
	)

	sessMgr, err := session.NewManager(&config.SessionConfig{
		CookieName: "_test_session",
		MaxAge:     3600,
		HashKey:    testHashKey,
	}, false)
	require.NoError(t, err)

	return &authFixture{
		h:        handlers.NewAuth(svc, sessMgr),
		repo:     repo,
		mailer:   mailer,
		sessions: sessMgr,
	}
}

func postJSON(path, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func sendCode(t *testing.T, f *authFixture, email string) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := postJSON("/api/auth/send-code", `{"email":"`+email+`"}`)
	c := newTestContext(echo.New(), req, rec, "")
	require.NoError(t, f.h.SendCode(c))
	return rec
}

func TestSendCode(t *testing.T) {
	f := newTestAuthHandlers(t)

	rec := sendCode(t, f, "driver@example.com")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	require.Len(t, f.mailer.Sent(), 1)
	assert.Contains(t, f.mailer.Sent()[0].Text, "424242")
}

func TestSendCode_EmailRequired(t *testing.T) {
	f := newTestAuthHandlers(t)

	rec := sendCode(t, f, "  ")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Email is required"}`, rec.Body.String())
}

func TestSendCode_RateLimited(t *testing.T) {
	f := newTestAuthHandlers(t)

	for range verification.MaxCodesPerWindow {
		require.Equal(t, http.StatusOK, sendCode(t, f, "driver@example.com").Code)
	}
	rec := sendCode(t, f, "driver@example.com")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate_limit"}`, rec.Body.String())
}

func TestSendCode_DeliveryFailure(t *testing.T) {
	f := newTestAuthHandlers(t)
	f.mailer.Err = errors.New("connection refused by smtp.internal:25")

	rec := sendCode(t, f, "driver@example.com")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to send verification code"}`, rec.Body.String())
}

func TestVerifyCode(t *testing.T) {
	f := newTestAuthHandlers(t)
	require.Equal(t, http.StatusOK, sendCode(t, f, "driver@example.com").Code)

	req, rec := postJSON("/api/auth/verify-code", `{"email":"driver@example.com","code":"424242"}`)
	c := newTestContext(echo.New(), req, rec, "")

	require.NoError(t, f.h.VerifyCode(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"email":"driver@example.com"}`, rec.Body.String())
	assert.True(t, c.Session.IsAuthenticated())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "_test_session", cookies[0].Name)

	parseReq := httptest.NewRequest(http.MethodGet, "/", nil)
	parseReq.AddCookie(cookies[0])
	data, err := f.sessions.Parse(parseReq)
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "driver@example.com", data.Email)

	assert.True(t, testutil.UserExists(t, f.repo, "driver@example.com"))
}

func TestVerifyCode_Invalid(t *testing.T) {
	f := newTestAuthHandlers(t)
	require.Equal(t, http.StatusOK, sendCode(t, f, "driver@example.com").Code)

	tests := []struct {
		name string
		body string
	}{
		{"wrong code", `{"email":"driver@example.com","code":"000000"}`},
		{"wrong email", `{"email":"other@example.com","code":"424242"}`},
		{"missing code", `{"email":"driver@example.com"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := postJSON("/api/auth/verify-code", tt.body)
			c := newTestContext(echo.New(), req, rec, "")

			require.NoError(t, f.h.VerifyCode(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid or expired code"}`, rec.Body.String())
			assert.False(t, c.Session.IsAuthenticated())
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestVerifyCode_Twice(t *testing.T) {
	f := newTestAuthHandlers(t)
	require.Equal(t, http.StatusOK, sendCode(t, f, "driver@example.com").Code)

	body := `{"email":"driver@example.com","code":"424242"}`
	req, rec := postJSON("/api/auth/verify-code", body)
	require.NoError(t, f.h.VerifyCode(newTestContext(echo.New(), req, rec, "")))
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = postJSON("/api/auth/verify-code", body)
	require.NoError(t, f.h.VerifyCode(newTestContext(echo.New(), req, rec, "")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSession(t *testing.T) {
	f := newTestAuthHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, f.h.Session(newTestContext(echo.New(), req, rec, "")))
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, f.h.Session(newTestContext(echo.New(), req, rec, "driver@example.com")))
	assert.JSONEq(t, `{"authenticated":true,"email":"driver@example.com"}`, rec.Body.String())
}

func TestLogout(t *testing.T) {
	f := newTestAuthHandlers(t)

	req, rec := postJSON("/api/auth/logout", "")
	c := newTestContext(echo.New(), req, rec, "driver@example.com")

	require.NoError(t, f.h.Logout(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, c.Session.IsAuthenticated())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
