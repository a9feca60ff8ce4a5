// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/dose-go/internal/config"
	"github.com/olegiv/dose-go/internal/logging"
	"github.com/olegiv/dose-go/internal/service"
	"github.com/olegiv/dose-go/internal/store"
	"github.com/olegiv/dose-go/internal/version"
)

var cfg *config.Config

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dose",
		Short:         "Dose newsletter site",
		Long:          "Dose serves the public newsletter site and its admin dashboard.",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			// .env is optional (development)
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			slog.SetDefault(slog.New(newLogHandler()))
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := openDB()
				if err != nil {
					return err
				}
				defer closeDB(db)

				v, err := store.MigrationVersion(db)
				if err != nil {
					return fmt.Errorf("reading schema version: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database %s at schema version %d\n", cfg.DBPath, v)
				return nil
			},
		},
		newSeedCmd(),
		newUsersCmd(),
		newEventsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
			},
		},
	)
	return root
}

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixtures into an empty database",
		Long:  "Load YAML fixtures into the database. Without --file the built-in demo content is used. Seeding is skipped when editions exist.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if file == "" {
				return store.SeedDemo(cmd.Context(), db)
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("opening fixtures: %w", err)
			}
			defer func() { _ = f.Close() }()

			fixtures, err := store.ParseFixtures(f)
			if err != nil {
				return err
			}
			return store.SeedFixtures(cmd.Context(), db, fixtures)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixtures file")
	return cmd
}

func newEventsCmd() *cobra.Command {
	events := &cobra.Command{
		Use:   "events",
		Short: "Maintain the event log",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete events older than --older-than",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(db)

			n, err := service.NewEventService(db).DeleteOldEvents(cmd.Context(), olderThan)
			if err != nil {
				return fmt.Errorf("pruning events: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d events\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "minimum event age")
	events.AddCommand(prune)
	return events
}

// openDB opens and migrates the configured database and routes WARN and
// ERROR logs into its event log.
func openDB() (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	slog.SetDefault(slog.New(logging.NewEventLogHandler(newLogHandler(), db)))
	return db, nil
}

func closeDB(db *sql.DB) {
	// Logs written after this point must not reach the closed database.
	slog.SetDefault(slog.New(newLogHandler()))
	if err := db.Close(); err != nil {
		slog.Error("error closing database connection", "error", err)
	}
}

// newLogHandler writes text logs in development and JSON logs elsewhere.
func newLogHandler() slog.Handler {
	opts := &slog.HandlerOptions{Level: logging.ParseLevel(cfg.LogLevel)}
	if cfg.IsDevelopment() {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}

