// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/config"
	"github.com/LanceVShoot/FFB-Garage/internal/database"
	"github.com/LanceVShoot/FFB-Garage/internal/handlers"
	"github.com/LanceVShoot/FFB-Garage/internal/i18n"
	"github.com/LanceVShoot/FFB-Garage/internal/metrics"
	"github.com/LanceVShoot/FFB-Garage/internal/repository"
	"github.com/LanceVShoot/FFB-Garage/internal/services/email"
	"github.com/LanceVShoot/FFB-Garage/internal/services/session"
	"github.com/LanceVShoot/FFB-Garage/internal/services/verification"
	"github.com/LanceVShoot/FFB-Garage/internal/validate"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Services bundles the collaborators the HTTP layer is built from.
type Services struct {
	Repo     *repository.Repository
	Codes    *verification.Service
	Sessions *session.Manager
	Metrics  *metrics.Metrics // nil when disabled
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database, migrations run on open
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	repo := repository.New(db)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	mailer, err := email.New(&cfg.Mail)
	if err != nil {
		return fmt.Errorf("failed to configure mail provider: %w", err)
	}

	sessions, err := session.NewManager(&cfg.Session, isSecure(cfg))
	if err != nil {
		return fmt.Errorf("failed to configure sessions: %w", err)
	}

	svc := &Services{
		Repo: repo,
		Codes: verification.NewService(repo, mailer,
			verification.WithMetrics(m),
			verification.WithMailTimeout(cfg.Mail.Timeout),
		),
		Sessions: sessions,
		Metrics:  m,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := NewEcho(ctx, cfg, svc)

	go svc.Codes.RunSweeper(ctx, cfg.Auth.SweepInterval)

	return startWithGracefulShutdown(ctx, e, cfg)
}

// NewEcho builds the Echo instance with middleware and routes. Background
// work started here stops when ctx is done.
func NewEcho(ctx context.Context, cfg *config.Config, svc *Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.Echo{}
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	setupMiddleware(e, cfg, svc.Metrics, svc.Sessions)

	limiter := newIPRateLimiter(rate.Limit(cfg.Auth.RateLimit), cfg.Auth.RateBurst)
	go limiter.runCleanup(ctx)

	setupRoutes(e, svc, limiter)
	return e
}

func setupRoutes(e *echo.Echo, svc *Services, limiter *ipRateLimiter) {
	h := handlers.New(svc.Repo)
	authH := handlers.NewAuth(svc.Codes, svc.Sessions)

	e.GET("/health", h.Health)
	if svc.Metrics != nil {
		registerStoreGauges(svc.Metrics, svc.Repo)
		e.GET("/metrics", echo.WrapHandler(svc.Metrics.Handler()))
	}

	api := e.Group("/api")
	api.GET("/filters", h.Filters)
	api.GET("/settings", h.Settings)
	api.GET("/settings/:id", h.Setting)
	api.POST("/settings", h.CreateSetting, RequireAuth())
	api.POST("/settings/:id/like", h.LikeSetting, RequireAuth())

	auth := api.Group("/auth")
	auth.POST("/send-code", authH.SendCode, limiter.Middleware())
	auth.POST("/verify-code", authH.VerifyCode, limiter.Middleware())
	auth.GET("/session", authH.Session)
	auth.POST("/logout", authH.Logout)
}

// registerStoreGauges exposes row counts that are read at scrape time.
func registerStoreGauges(m *metrics.Metrics, repo *repository.Repository) {
	m.Registry().MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ffbgarage",
		Name:      "users",
		Help:      "Number of registered users.",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := repo.CountUsers(ctx)
		if err != nil {
			slog.Error("failed to count users", "error", err)
			return 0
		}
		return float64(n)
	}))
}

func isSecure(cfg *config.Config) bool {
	return strings.HasPrefix(cfg.Server.BaseURL, "https://")
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	tlsResult, err := SetupTLS(cfg)
	if err != nil {
		return fmt.Errorf("TLS setup failed: %w", err)
	}

	errChan := make(chan error, 2)

	// HTTP redirect server for ACME mode
	var httpServer *http.Server

	switch tlsResult.Mode {
	case TLSModeOff:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeACME:
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, ":443", tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		httpServer = &http.Server{
			Addr:              ":80",
			Handler:           tlsResult.HTTPHandler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			slog.Info("HTTP→HTTPS redirect active", "addr", ":80")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

	case TLSModeManual:
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		go func() {
			slog.Info("Server running", "url", cfg.Server.BaseURL)
			if err := startTLSServer(e, addr, tlsResult.TLSConfig); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown main server", "error", err)
	}
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown HTTP redirect server", "error", err)
		}
	}

	slog.Info("server stopped")
	return nil
}

// startTLSServer starts the Echo server with a custom TLS configuration.
func startTLSServer(e *echo.Echo, addr string, tlsConfig *tls.Config) error {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	e.TLSListener = tls.NewListener(ln, tlsConfig)
	e.TLSServer.TLSConfig = tlsConfig
	return e.Server.Serve(e.TLSListener)
}
