package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
	tu "github.com/desertthunder/spotify-etl/internal/testing"
	"github.com/urfave/cli/v3"
)

// writeTestConfig writes a valid config whose data directories and registry
// live under a temp dir, returning the config path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := fmt.Sprintf(`
[spotify]
client_id = "id"
client_secret = "secret"

[extraction]
limit = 10
timeout_seconds = 5
rate_limit = 100.0
fetch_tracks = true

[output]
format = "csv"
prefix = "spotify"

[paths]
raw = %q
processed = %q
final = %q

[registry]
path = %q

[transform]
max_skip_ratio = 0.5
`,
		filepath.Join(tmpDir, "raw"),
		filepath.Join(tmpDir, "processed"),
		filepath.Join(tmpDir, "final"),
		filepath.Join(tmpDir, "registry.db"),
	)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func newTestApp(runner *Runner) *cli.Command {
	return &cli.Command{
		Name:     "spotify-etl",
		Commands: runner.register(),
	}
}

func testRunnerCatalog() *tu.MockCatalog {
	return &tu.MockCatalog{
		Releases: []models.SnapshotAlbum{
			{ID: "alb1", Name: "First Album", ReleaseDate: "2024-01-12", TotalTracks: 1,
				Artists: []models.SnapshotArtist{{ID: "art1", Name: "Artist One"}}},
		},
		Tracks: map[string][]models.SnapshotTrack{
			"alb1": {{ID: "trk1", Name: "Opener", DurationMS: 180000, TrackNumber: 1}},
		},
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunnerDefaults", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		if runner.logger == nil {
			t.Error("expected default logger")
		}
		if runner.output == nil {
			t.Error("expected default output")
		}
	})

	t.Run("Register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: io.Discard})
		commands := newTestApp(runner).Commands

		names := map[string]bool{}
		for _, command := range commands {
			names[command.Name] = true
		}
		for _, want := range []string{"run", "extract", "transform", "publish", "latest", "batches", "setup"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("WriteJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writeJSON(map[string]int{"albums": 2}, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if output.String() != "{\"albums\":2}\n" {
			t.Errorf("unexpected output: %q", output.String())
		}
	})

	t.Run("WritePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("rows: %d\n", 3); err != nil {
			t.Fatalf("writePlain failed: %v", err)
		}
		if output.String() != "rows: 3\n" {
			t.Errorf("unexpected output: %q", output.String())
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("RunFullCycle", func(t *testing.T) {
		configPath := writeTestConfig(t)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Logger:  shared.NewLogger(io.Discard),
			Output:  output,
			Catalog: testRunnerCatalog(),
		})

		app := newTestApp(runner)
		if err := app.Run(context.Background(), []string{"spotify-etl", "run", "-c", configPath}); err != nil {
			t.Fatalf("run command failed: %v", err)
		}

		if !strings.Contains(output.String(), "Cycle complete") {
			t.Errorf("expected completion summary, got %q", output.String())
		}

		dataDir := filepath.Dir(configPath)
		tu.AssertFileExists(t, filepath.Join(dataDir, "final", "albums_latest.csv"))
		tu.AssertFileExists(t, filepath.Join(dataDir, "final", "tracks_latest.csv"))
	})

	t.Run("ExtractThenTransformThenPublish", func(t *testing.T) {
		configPath := writeTestConfig(t)
		dataDir := filepath.Dir(configPath)
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Logger:  shared.NewLogger(io.Discard),
			Output:  output,
			Catalog: testRunnerCatalog(),
		})
		app := newTestApp(runner)
		ctx := context.Background()

		if err := app.Run(ctx, []string{"spotify-etl", "extract", "-c", configPath}); err != nil {
			t.Fatalf("extract command failed: %v", err)
		}

		entries, err := os.ReadDir(filepath.Join(dataDir, "raw"))
		if err != nil || len(entries) != 1 {
			t.Fatalf("expected one snapshot, got %v (%v)", entries, err)
		}
		snapshotPath := filepath.Join(dataDir, "raw", entries[0].Name())

		if err := app.Run(ctx, []string{"spotify-etl", "transform", "-c", configPath, "--snapshot", snapshotPath}); err != nil {
			t.Fatalf("transform command failed: %v", err)
		}

		processed, err := os.ReadDir(filepath.Join(dataDir, "processed"))
		if err != nil || len(processed) != 2 {
			t.Fatalf("expected two processed files, got %v (%v)", processed, err)
		}

		var albumsPath, tracksPath string
		for _, entry := range processed {
			path := filepath.Join(dataDir, "processed", entry.Name())
			if strings.Contains(entry.Name(), "albums") {
				albumsPath = path
			} else {
				tracksPath = path
			}
		}

		if err := app.Run(ctx, []string{
			"spotify-etl", "publish", "-c", configPath,
			"--albums", albumsPath, "--tracks", tracksPath, "--snapshot", snapshotPath,
		}); err != nil {
			t.Fatalf("publish command failed: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(dataDir, "final", "albums_latest.csv"))

		output.Reset()
		if err := app.Run(ctx, []string{"spotify-etl", "latest", "-c", configPath, "--json"}); err != nil {
			t.Fatalf("latest command failed: %v", err)
		}
		if !strings.Contains(output.String(), "albums_latest.csv") {
			t.Errorf("latest output should name the pointer path, got %q", output.String())
		}

		output.Reset()
		if err := app.Run(ctx, []string{"spotify-etl", "batches", "-c", configPath}); err != nil {
			t.Fatalf("batches command failed: %v", err)
		}
		if !strings.Contains(output.String(), albumsPath) {
			t.Errorf("batches output should list the batch, got %q", output.String())
		}
	})

	t.Run("LatestBeforeAnyPublish", func(t *testing.T) {
		configPath := writeTestConfig(t)
		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(io.Discard),
			Output: io.Discard,
		})

		err := newTestApp(runner).Run(context.Background(), []string{"spotify-etl", "latest", "-c", configPath})
		if err == nil {
			t.Error("expected error before any publish")
		}
	})

	t.Run("MissingConfig", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(io.Discard),
			Output: io.Discard,
		})

		err := newTestApp(runner).Run(context.Background(), []string{
			"spotify-etl", "extract", "-c", filepath.Join(t.TempDir(), "nope.toml"),
		})
		if err == nil {
			t.Fatal("expected error for missing config")
		}
	})

	t.Run("SetupConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(io.Discard),
			Output: output,
		})
		app := newTestApp(runner)
		ctx := context.Background()

		if err := app.Run(ctx, []string{"spotify-etl", "setup", "config", "-c", configPath}); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, configPath)

		if err := app.Run(ctx, []string{"spotify-etl", "setup", "config", "-c", configPath}); err == nil {
			t.Error("second setup should fail on existing file")
		}
	})

	t.Run("SetupRegistry", func(t *testing.T) {
		configPath := writeTestConfig(t)
		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(io.Discard),
			Output: io.Discard,
		})

		if err := newTestApp(runner).Run(context.Background(), []string{"spotify-etl", "setup", "registry", "-c", configPath}); err != nil {
			t.Fatalf("setup registry failed: %v", err)
		}
		tu.AssertFileExists(t, filepath.Join(filepath.Dir(configPath), "registry.db"))
	})
}
