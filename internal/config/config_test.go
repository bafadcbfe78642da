// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v3"
)

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"garage.localhost", true},
		{"ffbgarage.com", false},
		{"192.168.1.1", false},
		{"localhost.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalhost(tt.host))
		})
	}
}

func TestShouldUseTLS(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		host     string
		expected bool
	}{
		{"off mode", "off", "ffbgarage.com", false},
		{"acme mode", "acme", "localhost", true},
		{"manual mode", "manual", "localhost", true},
		{"auto mode with localhost", "auto", "localhost", false},
		{"auto mode with remote host", "auto", "ffbgarage.com", true},
		{"empty mode with remote host", "", "ffbgarage.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldUseTLS(tt.mode, tt.host))
		})
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name: "localhost HTTP default port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 80},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost",
		},
		{
			name: "localhost HTTP custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 8080},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost:8080",
		},
		{
			name: "manual TLS custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "ffbgarage.com", Port: 8443},
				TLS:    TLSConfig{Mode: "manual"},
			},
			expected: "https://ffbgarage.com:8443",
		},
		{
			name: "ACME mode forces port 443",
			cfg: &Config{
				Server: ServerConfig{Host: "ffbgarage.com", Port: 8080},
				TLS:    TLSConfig{Mode: "acme"},
			},
			expected: "https://ffbgarage.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range Flags() {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{
		"host", "port", "database-dsn", "tls-mode", "session-cookie-name",
		"mail-provider", "mail-timeout", "smtp-host", "sendgrid-api-key",
		"mailersend-api-key", "sweep-interval", "auth-rate-limit", "metrics-enabled",
	} {
		assert.True(t, flagNames[name], "missing flag %s", name)
	}
}

func TestDatabaseFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range DatabaseFlags() {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	assert.True(t, flagNames["database-dsn"])
	assert.False(t, flagNames["host"])
}

func TestNewFromCLI(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "localhost", cfg.Server.Host)
			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
			assert.Equal(t, "ffb_session", cfg.Session.CookieName)
			assert.Equal(t, "log", cfg.Mail.Provider)
			assert.Equal(t, "noreply@ffbgarage.com", cfg.Mail.From)
			assert.Equal(t, "FFB Garage", cfg.Mail.FromName)
			assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
			assert.Equal(t, 587, cfg.Mail.SMTP.Port)
			assert.True(t, cfg.Mail.SMTP.TLS)
			assert.Equal(t, time.Minute, cfg.Auth.SweepInterval)
			assert.InDelta(t, 1.0, cfg.Auth.RateLimit, 0.0001)
			assert.Equal(t, 5, cfg.Auth.RateBurst)
			assert.True(t, cfg.Metrics.Enabled)

			return nil
		},
	}

	err := app.Run(context.Background(), []string{"test"})
	assert.NoError(t, err)
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg := NewFromCLI(cmd)

			assert.Equal(t, "0.0.0.0", cfg.Server.Host)
			assert.Equal(t, 9000, cfg.Server.Port)
			assert.Equal(t, "https://ffbgarage.com", cfg.Server.BaseURL)
			assert.Equal(t, "./data/test.db", cfg.Database.DSN)
			assert.Equal(t, "sendgrid", cfg.Mail.Provider)
			assert.Equal(t, "SG.key", cfg.Mail.SendGridAPIKey)
			assert.Equal(t, 30*time.Second, cfg.Auth.SweepInterval)

			return nil
		},
	}

	args := []string{
		"test",
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://ffbgarage.com",
		"--database-dsn", "./data/test.db",
		"--mail-provider", "SendGrid",
		"--sendgrid-api-key", "SG.key",
		"--sweep-interval", "30s",
	}
	err := app.Run(context.Background(), args)
	assert.NoError(t, err)
}
