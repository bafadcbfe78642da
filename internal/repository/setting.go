// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/models"
	"github.com/vinovest/sqlx"
)

const selectSettings = `
SELECT f.id,
       f.car_name AS car,
       f.discipline,
       f.is_manufacturer_provided,
       f.likes,
       m.name AS brand,
       w.name AS model,
       COALESCE((
           SELECT json_group_object(sf.field_name, sv.value)
           FROM setting_values sv
           JOIN setting_fields sf ON sf.id = sv.setting_field_id
           WHERE sv.ffb_setting_id = f.id
       ), '{}') AS settings
FROM ffb_settings f
JOIN wheelbase_models w ON w.id = f.wheelbase_model_id
JOIN manufacturers m ON m.id = w.manufacturer_id`

// FilterOptions returns the distinct manufacturers, wheelbases, cars and
// disciplines present in the catalog.
func (r *Repository) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	opts := &models.FilterOptions{
		Manufacturers: []string{},
		Wheelbases:    []string{},
		Cars:          []string{},
		Disciplines:   []string{},
	}

	queries := []struct {
		dest  *[]string
		query string
	}{
		{&opts.Manufacturers, `SELECT DISTINCT name FROM manufacturers ORDER BY name`},
		{&opts.Wheelbases, `SELECT DISTINCT name FROM wheelbase_models ORDER BY name`},
		{&opts.Cars, `SELECT DISTINCT car_name FROM ffb_settings ORDER BY car_name`},
		{&opts.Disciplines, `SELECT DISTINCT discipline FROM ffb_settings ORDER BY discipline`},
	}

	for _, q := range queries {
		if err := r.db.SelectContext(ctx, q.dest, q.query); err != nil {
			return nil, err
		}
	}

	return opts, nil
}

// ListSettings returns the presets matching filter in the requested order.
func (r *Repository) ListSettings(ctx context.Context, filter models.SettingsFilter) ([]models.Setting, error) {
	var (
		where []string
		args  []any
	)

	if len(filter.Brands) > 0 {
		where = append(where, "m.name IN (?)")
		args = append(args, filter.Brands)
	}
	if len(filter.Models) > 0 {
		where = append(where, "w.name IN (?)")
		args = append(args, filter.Models)
	}
	if len(filter.Disciplines) > 0 {
		where = append(where, "f.discipline IN (?)")
		args = append(args, filter.Disciplines)
	}

	manufacturer := slices.Contains(filter.Sources, models.SourceManufacturer)
	community := slices.Contains(filter.Sources, models.SourceCommunity)
	if manufacturer != community {
		where = append(where, "f.is_manufacturer_provided = ?")
		args = append(args, manufacturer)
	}

	query := selectSettings
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY " + orderBy(filter.Sort)

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}

	settings := []models.Setting{}
	if err := r.db.SelectContext(ctx, &settings, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return settings, nil
}

func orderBy(sort string) string {
	switch sort {
	case models.SortDrivers:
		return "f.likes DESC, f.id DESC"
	case models.SortNewest:
		return "f.id DESC"
	case models.SortOldest:
		return "f.id ASC"
	default:
		return "f.id"
	}
}

// GetSetting retrieves a single preset by ID.
func (r *Repository) GetSetting(ctx context.Context, id int64) (*models.Setting, error) {
	var setting models.Setting
	if err := r.db.GetContext(ctx, &setting, selectSettings+"\nWHERE f.id = ?", id); err != nil {
		return nil, err
	}
	return &setting, nil
}

// CreateSetting stores a preset, creating its manufacturer, wheelbase model
// and setting fields on first use.
func (r *Repository) CreateSetting(ctx context.Context, ns *models.NewSetting, now time.Time) (int64, error) {
	var id int64
	err := r.InTx(ctx, func(tx *Repository) error {
		manufacturerID, err := tx.ensureManufacturer(ctx, ns.Brand)
		if err != nil {
			return err
		}

		modelID, err := tx.ensureWheelbaseModel(ctx, manufacturerID, ns.Model)
		if err != nil {
			return err
		}

		var submittedBy any
		if ns.SubmittedBy != "" {
			submittedBy = ns.SubmittedBy
		}

		res, err := tx.db.ExecContext(ctx,
			`INSERT INTO ffb_settings
			 (wheelbase_model_id, car_name, discipline, is_manufacturer_provided, likes, submitted_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			modelID, ns.Car, ns.Discipline, ns.IsManufacturerProvided, ns.Likes, submittedBy, now.UTC())
		if err != nil {
			return fmt.Errorf("insert setting: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		fields := make([]string, 0, len(ns.Settings))
		for name := range ns.Settings {
			fields = append(fields, name)
		}
		slices.Sort(fields)

		for _, name := range fields {
			fieldID, err := tx.ensureSettingField(ctx, manufacturerID, models.NormalizeFieldName(name))
			if err != nil {
				return err
			}
			if _, err := tx.db.ExecContext(ctx,
				`INSERT INTO setting_values (ffb_setting_id, setting_field_id, value) VALUES (?, ?, ?)
				 ON CONFLICT (ffb_setting_id, setting_field_id) DO UPDATE SET value = excluded.value`,
				id, fieldID, ns.Settings[name]); err != nil {
				return fmt.Errorf("insert setting value %q: %w", name, err)
			}
		}

		return nil
	})
	return id, err
}

// ImportSettings stores all presets in a single transaction.
func (r *Repository) ImportSettings(ctx context.Context, settings []models.NewSetting, now time.Time) (int, error) {
	imported := 0
	err := r.InTx(ctx, func(tx *Repository) error {
		for i := range settings {
			if _, err := tx.CreateSetting(ctx, &settings[i], now); err != nil {
				return fmt.Errorf("setting %d (%s %s, %s): %w", i, settings[i].Brand, settings[i].Model, settings[i].Car, err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return imported, nil
}

// LikeSetting increments the like counter of a preset and returns the new count.
func (r *Repository) LikeSetting(ctx context.Context, id int64) (int64, error) {
	var likes int64
	err := r.db.GetContext(ctx, &likes,
		`UPDATE ffb_settings SET likes = likes + 1 WHERE id = ? RETURNING likes`, id)
	return likes, err
}

func (r *Repository) ensureManufacturer(ctx context.Context, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO manufacturers (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("insert manufacturer: %w", err)
	}
	var id int64
	err := r.db.GetContext(ctx, &id, `SELECT id FROM manufacturers WHERE name = ?`, name)
	return id, err
}

func (r *Repository) ensureWheelbaseModel(ctx context.Context, manufacturerID int64, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO wheelbase_models (manufacturer_id, name) VALUES (?, ?)
		 ON CONFLICT (manufacturer_id, name) DO NOTHING`, manufacturerID, name); err != nil {
		return 0, fmt.Errorf("insert wheelbase model: %w", err)
	}
	var id int64
	err := r.db.GetContext(ctx, &id,
		`SELECT id FROM wheelbase_models WHERE manufacturer_id = ? AND name = ?`, manufacturerID, name)
	return id, err
}

func (r *Repository) ensureSettingField(ctx context.Context, manufacturerID int64, fieldName string) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO setting_fields (manufacturer_id, field_name, display_name, min_value, max_value)
		 VALUES (?, ?, ?, 0, 100)
		 ON CONFLICT (manufacturer_id, field_name) DO NOTHING`,
		manufacturerID, fieldName, models.DisplayName(fieldName)); err != nil {
		return 0, fmt.Errorf("insert setting field: %w", err)
	}
	var id int64
	err := r.db.GetContext(ctx, &id,
		`SELECT id FROM setting_fields WHERE manufacturer_id = ? AND field_name = ?`, manufacturerID, fieldName)
	return id, err
}
