// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/repository"
	"github.com/labstack/echo/v4"
)

// Handlers contains the catalog HTTP handlers.
type Handlers struct {
	repo *repository.Repository
	now  func() time.Time
}

// New creates a new Handlers instance.
func New(repo *repository.Repository) *Handlers {
	return &Handlers{repo: repo, now: time.Now}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
