package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotify-etl/internal/repositories"
	"github.com/desertthunder/spotify-etl/internal/services"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	logger  *log.Logger
	output  io.Writer
	catalog services.Catalog
	engine  *tasks.EtlEngine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog and Engine are injected by tests; when nil they are built per
// action from the loaded configuration.
type RunnerOpts struct {
	Logger  *log.Logger
	Output  io.Writer
	Catalog services.Catalog
	Engine  *tasks.EtlEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		logger:  opts.Logger,
		output:  opts.Output,
		catalog: opts.Catalog,
		engine:  opts.Engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, extractCommand, transformCommand, publishCommand, latestCommand, batchesCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// loadConfig reads and validates the configuration file for an action.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s (run 'spotify-etl setup config')", shared.ErrMissingConfig, path)
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// openRegistry opens the registry database and applies pending migrations.
func (r *Runner) openRegistry(config *shared.Config) (*sql.DB, *repositories.BatchRegistry, error) {
	db, err := shared.NewDatabase(config.Registry.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open registry: %w", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to migrate registry: %w", err)
	}
	return db, repositories.NewBatchRegistry(db), nil
}

// buildEngine assembles an engine for one action. The returned cleanup
// closes the registry database.
func (r *Runner) buildEngine(cmd *cli.Command) (*tasks.EtlEngine, func(), error) {
	if r.engine != nil {
		return r.engine, func() {}, nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	catalog := r.catalog
	if catalog == nil {
		service, err := services.NewSpotifyService(services.SpotifyOpts{
			ClientID:     config.Spotify.ClientID,
			ClientSecret: config.Spotify.ClientSecret,
			Timeout:      time.Duration(config.Extraction.TimeoutSeconds) * time.Second,
			RateLimit:    config.Extraction.RateLimit,
		})
		if err != nil {
			return nil, nil, err
		}
		catalog = service
	}

	db, registry, err := r.openRegistry(config)
	if err != nil {
		return nil, nil, err
	}

	engine := tasks.NewEtlEngine(tasks.EngineOpts{
		Config:   config,
		Catalog:  catalog,
		Registry: registry,
		Logger:   r.logger,
	})
	return engine, func() { db.Close() }, nil
}

// watchProgress drains a progress channel to the output writer. The returned
// channel closes once the progress channel is fully drained, so callers can
// close the channel, wait, and then write their summary without interleaving.
func (r *Runner) watchProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.FetchReleases, tasks.FetchTracks:
				r.writePlain("⬇ %s\n", update.Message)
			case tasks.FlattenAlbums, tasks.FlattenTracks:
				r.writePlain("⚙ %s\n", update.Message)
			default:
				r.writePlain("→ %s\n", update.Message)
			}
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
