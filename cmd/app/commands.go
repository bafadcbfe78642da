// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/LanceVShoot/FFB-Garage/internal/database"
	"github.com/LanceVShoot/FFB-Garage/internal/models"
	"github.com/LanceVShoot/FFB-Garage/internal/repository"
	"github.com/LanceVShoot/FFB-Garage/internal/server"
	"github.com/LanceVShoot/FFB-Garage/internal/services/verification"
	"github.com/LanceVShoot/FFB-Garage/internal/validate"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// openDB configures logging and opens the database named by the global flags.
func openDB(cmd *cli.Command) (*sqlx.DB, error) {
	server.SetupLogger(cmd.String("log-level"), cmd.String("log-format"))

	db, err := database.Open(cmd.String("database-dsn"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func sweepCommand() *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "Delete expired verification codes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := verification.NewService(repository.New(db), nil).Sweep(ctx)
			if err != nil {
				return err
			}
			slog.Info("expired verification codes removed", "count", n)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Load FFB presets from a JSON file",
		ArgsUsage: "<file.json>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("import requires a file argument")
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			settings, err := readImport(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := repository.New(db).ImportSettings(ctx, settings, time.Now())
			if err != nil {
				return err
			}
			slog.Info("settings imported", "count", n, "file", path)
			return nil
		},
	}
}

// importFile is the layout accepted by the import command.
type importFile struct {
	Settings []importSetting `json:"settings"`
}

// importSetting is one preset of an import file. Exported catalogs carry
// their old numeric id, which is accepted and dropped.
type importSetting struct {
	ID *int64 `json:"id,omitempty"`
	models.NewSetting
}

// readImport decodes and validates an import file.
func readImport(r io.Reader) ([]models.NewSetting, error) {
	var file importFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(file.Settings) == 0 {
		return nil, errors.New("no settings found")
	}

	settings := make([]models.NewSetting, 0, len(file.Settings))
	for i := range file.Settings {
		ns := file.Settings[i].NewSetting
		if err := validate.Struct(&ns); err != nil {
			return nil, fmt.Errorf("setting %d: %w", i, err)
		}
		settings = append(settings, ns)
	}
	return settings, nil
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:      "user",
		Usage:     "Show the account and outstanding login codes of an email",
		ArgsUsage: "<email>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			addr := cmd.Args().First()
			if addr == "" {
				return errors.New("user requires an email argument")
			}

			db, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := lookupUser(ctx, repository.New(db), addr)
			if err != nil {
				return err
			}

			if report.User == nil {
				slog.Info("no account", "email", addr)
			} else {
				slog.Info("account", "email", addr, "id", report.User.ID, "created_at", report.User.CreatedAt)
			}
			now := time.Now()
			for _, c := range report.Codes {
				slog.Info("verification code",
					"id", c.ID,
					"created_at", c.CreatedAt,
					"expires_at", c.ExpiresAt,
					"expired", c.IsExpired(now),
				)
			}
			return nil
		},
	}
}

// userReport is what the user command knows about an email.
type userReport struct {
	User  *models.User // nil without an account
	Codes []models.VerificationCode
}

func lookupUser(ctx context.Context, repo *repository.Repository, addr string) (*userReport, error) {
	var report userReport

	user, err := repo.GetUserByEmail(ctx, addr)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("get user: %w", err)
	default:
		report.User = user
	}

	report.Codes, err = repo.ListVerificationCodes(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("list verification codes: %w", err)
	}
	return &report, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Print the applied schema version",
				Action: withDB(func(_ context.Context, db *sqlx.DB) error {
					v, err := database.Version(db.DB)
					if err != nil {
						return err
					}
					slog.Info("schema version", "version", v)
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "Roll back the last migration",
				Action: withDB(func(_ context.Context, db *sqlx.DB) error {
					return database.MigrateDown(db.DB)
				}),
			},
			{
				Name:  "reset",
				Usage: "Roll back all migrations",
				Action: withDB(func(_ context.Context, db *sqlx.DB) error {
					return database.MigrateReset(db.DB)
				}),
			},
		},
	}
}

func withDB(fn func(context.Context, *sqlx.DB) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(ctx, db)
	}
}
