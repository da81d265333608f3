package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/chordsync/internal/shared"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	if config.Store.Backend != shared.BackendSQLite {
		r.logger.Info("store backend needs no local database", "backend", config.Store.Backend)
		return nil
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	ran, err := shared.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Applied %d migrations, schema at version %d\n", ran, version)
}

// SetupRollback reverts the most recent migration of the configured SQLite database.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if r.config.Store.Backend != shared.BackendSQLite {
		return fmt.Errorf("%w: rollback needs the sqlite backend, have %q", shared.ErrInvalidArgument, r.config.Store.Backend)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	m, err := shared.RollbackMigration(db)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return r.writePlain("✓ Rolled back migration %d (%s) of %s\n", m.Version, m.Name, r.config.Database.Path)
}

// SetupApprove writes the approved user document that lets a non-admin sign in.
func (r *Runner) SetupApprove(ctx context.Context, cmd *cli.Command) error {
	uid := cmd.StringArg("uid")
	if uid == "" {
		return fmt.Errorf("%w: uid", shared.ErrMissingArgument)
	}

	store, err := r.backend(ctx)
	if err != nil {
		return err
	}

	data := map[string]any{"approved": true}
	if email := cmd.String("approved-email"); email != "" {
		data["email"] = email
	}
	if err := store.Set(ctx, r.paths().ApprovedUser(uid), data); err != nil {
		return fmt.Errorf("failed to approve user: %w", err)
	}

	r.logger.Info("approved user", "uid", uid)
	return r.writePlain("✓ Approved %s\n", uid)
}
