package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig creates a configuration file from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%w: %s already exists", shared.ErrInvalidConfig, configPath)
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("Config written to %s\n", configPath)
	r.writePlain("Fill in spotify.client_id and spotify.client_secret before running\n")
	return nil
}

// SetupRegistry initializes the registry database and runs migrations.
func (r *Runner) SetupRegistry(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing registry", "path", config.Registry.Path)

	db, err := shared.NewDatabase(config.Registry.Path)
	if err != nil {
		return fmt.Errorf("failed to create registry database: %w", err)
	}
	defer db.Close()

	r.logger.Info("running registry migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for registry: %v", config.Registry.Path)
	return nil
}
