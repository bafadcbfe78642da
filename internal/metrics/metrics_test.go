// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LanceVShoot/FFB-Garage/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.CodeIssued()
		m.CodeRateLimited()
		m.DeliveryFailed()
		m.Verified(metrics.ResultSuccess)
		m.Swept(3)
	})
}

func TestLifecycleCounters(t *testing.T) {
	m := metrics.New()

	m.CodeIssued()
	m.CodeIssued()
	m.CodeRateLimited()
	m.DeliveryFailed()
	m.Verified(metrics.ResultSuccess)
	m.Verified(metrics.ResultInvalid)
	m.Verified(metrics.ResultInvalid)
	m.Swept(4)
	m.Swept(0)

	expected := map[string]float64{
		"ffbgarage_verification_codes_issued_total":           2,
		"ffbgarage_verification_codes_rate_limited_total":     1,
		"ffbgarage_verification_code_delivery_failures_total": 1,
		"ffbgarage_verification_codes_swept_total":            4,
	}
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	found := map[string]float64{}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			found[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, expected, found)

	count, err := testutil.GatherAndCount(m.Registry(), "ffbgarage_verification_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result label")
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/filters", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{})
	})
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ffbgarage_http_requests_total{endpoint="/api/filters",method="GET",status="200"} 1`)
}
