// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LanceVShoot/FFB-Garage/internal/appcontext"
	"github.com/LanceVShoot/FFB-Garage/internal/models"
	"github.com/LanceVShoot/FFB-Garage/internal/repository"
	"github.com/LanceVShoot/FFB-Garage/internal/validate"
	"github.com/labstack/echo/v4"
)

// Filters returns the distinct filter values of the catalog.
func (h *Handlers) Filters(c echo.Context) error {
	opts, err := h.repo.FilterOptions(c.Request().Context())
	if err != nil {
		return serverError(c, msgFilterFetchFailed, err)
	}
	if opts.Empty() {
		return JSONError(c, http.StatusNotFound, msgNoFilterOptions)
	}
	return c.JSON(http.StatusOK, opts)
}

// SettingsResponse wraps the settings listing.
type SettingsResponse struct {
	Settings []models.Setting `json:"settings"`
}

// Settings lists presets narrowed by the brand, model, discipline and source
// query parameters and ordered by sort.
func (h *Handlers) Settings(c echo.Context) error {
	var filter models.SettingsFilter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filter); err != nil {
		return JSONError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := validate.Struct(&filter); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest, Details: err.Error()})
	}

	settings, err := h.repo.ListSettings(c.Request().Context(), filter)
	if err != nil {
		return serverError(c, msgSettingsFailed, err)
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	return c.JSON(http.StatusOK, SettingsResponse{Settings: settings})
}

// Setting returns a single preset.
func (h *Handlers) Setting(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return JSONError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	setting, err := h.repo.GetSetting(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return JSONError(c, http.StatusNotFound, msgSettingNotFound)
	}
	if err != nil {
		return serverError(c, msgSettingsFailed, err)
	}
	return c.JSON(http.StatusOK, setting)
}

// CreateSetting stores a preset submitted by the authenticated user.
func (h *Handlers) CreateSetting(c echo.Context) error {
	ac := appcontext.From(c)
	if !ac.IsAuthenticated() {
		return Unauthorized(c)
	}

	var ns models.NewSetting
	if err := c.Bind(&ns); err != nil {
		return JSONError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	sanitizeSetting(&ns)
	ns.IsManufacturerProvided = false
	ns.Likes = 0
	ns.SubmittedBy = ac.Email()

	if err := validate.Struct(&ns); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest, Details: err.Error()})
	}

	id, err := h.repo.CreateSetting(c.Request().Context(), &ns, h.now())
	if err != nil {
		return serverError(c, msgSubmitFailed, err)
	}

	slog.InfoContext(c.Request().Context(), "setting submitted", "id", id, "email", ns.SubmittedBy)
	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

func sanitizeSetting(ns *models.NewSetting) {
	ns.Brand = validate.Text(ns.Brand)
	ns.Model = validate.Text(ns.Model)
	ns.Car = validate.Text(ns.Car)
	ns.Discipline = validate.Text(ns.Discipline)

	values := make(models.SettingValues, len(ns.Settings))
	for name, v := range ns.Settings {
		values[models.NormalizeFieldName(validate.Text(name))] = v
	}
	ns.Settings = values
}

// LikeSetting increments the like counter of a preset.
func (h *Handlers) LikeSetting(c echo.Context) error {
	if !appcontext.From(c).IsAuthenticated() {
		return Unauthorized(c)
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return JSONError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	likes, err := h.repo.LikeSetting(c.Request().Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return JSONError(c, http.StatusNotFound, msgSettingNotFound)
	}
	if err != nil {
		return serverError(c, msgLikeFailed, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"likes": likes})
}
