// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/appcontext"
	"github.com/LanceVShoot/FFB-Garage/internal/config"
	"github.com/LanceVShoot/FFB-Garage/internal/i18n"
	"github.com/LanceVShoot/FFB-Garage/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newTestSessions(t *testing.T) *session.Manager {
	t.Helper()
	sessMgr, err := session.NewManager(&config.SessionConfig{
		CookieName: "_session",
		MaxAge:     3600,
		HashKey:    testHashKey,
	}, false)
	require.NoError(t, err)
	return sessMgr
}

func TestI18nMiddleware(t *testing.T) {
	require.NoError(t, i18n.Init())

	e := echo.New()
	e.Use(i18nMiddleware())

	var locale string
	e.GET("/", func(c echo.Context) error {
		locale = i18n.GetLocale(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	t.Run("English header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en-US")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.True(t, strings.HasPrefix(locale, "en"), "expected locale to start with 'en', got %s", locale)
	})

	t.Run("German header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "de-DE")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.True(t, strings.HasPrefix(locale, "de"), "expected locale to start with 'de', got %s", locale)
	})
}

func TestSessionMiddleware_NoCookie(t *testing.T) {
	e := echo.New()
	e.Use(SessionMiddleware(newTestSessions(t)))

	var holder *session.Holder
	e.GET("/", func(c echo.Context) error {
		cc, ok := c.(*appcontext.Context)
		require.True(t, ok)
		holder = cc.Session
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, holder)
	assert.Equal(t, session.Anonymous, holder.State())
}

func TestSessionMiddleware_WithCookie(t *testing.T) {
	sessMgr := newTestSessions(t)
	cookie, err := sessMgr.Create("driver@example.com")
	require.NoError(t, err)

	e := echo.New()
	e.Use(SessionMiddleware(sessMgr))

	var email string
	e.GET("/", func(c echo.Context) error {
		email = appcontext.From(c).Email()
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "driver@example.com", email)
}

func TestSessionMiddleware_InvalidCookie(t *testing.T) {
	e := echo.New()
	e.Use(SessionMiddleware(newTestSessions(t)))

	authenticated := true
	e.GET("/", func(c echo.Context) error {
		authenticated = appcontext.From(c).IsAuthenticated()
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "_session", Value: "forged"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, authenticated)
}

func TestRequireAuth_NotAuthenticated(t *testing.T) {
	e := echo.New()
	e.Use(SessionMiddleware(newTestSessions(t)))
	e.Use(RequireAuth())
	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, rec.Body.String())
}

func TestRequireAuth_Authenticated(t *testing.T) {
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			holder := session.NewHolder()
			holder.Login("driver@example.com")
			return next(&appcontext.Context{Context: c, Session: holder})
		}
	})
	e.Use(RequireAuth())
	e.GET("/protected", func(c echo.Context) error {
		return c.String(http.StatusOK, "protected content")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "protected content", rec.Body.String())
}

func TestRequireAuth_NotCustomContext(t *testing.T) {
	e := echo.New()
	e.Use(RequireAuth())
	e.GET("/protected", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIPRateLimiter(t *testing.T) {
	rl := newIPRateLimiter(1, 2)

	e := echo.New()
	e.POST("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, rl.Middleware())

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"), "buckets are per client")
}

func TestIPRateLimiter_Prune(t *testing.T) {
	rl := newIPRateLimiter(1, 1)
	rl.get("10.0.0.1")
	rl.get("10.0.0.2")

	rl.prune(time.Hour)
	assert.Len(t, rl.limiters, 2)

	rl.limiters["10.0.0.1"].lastSeen = time.Now().Add(-2 * time.Hour)
	rl.prune(time.Hour)
	assert.Len(t, rl.limiters, 1)
	assert.Contains(t, rl.limiters, "10.0.0.2")
}
