package main

import (
	"context"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/repositories"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"github.com/desertthunder/spotify-etl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RunCycle executes extract, transform and publish as one run.
func (r *Runner) RunCycle(ctx context.Context, cmd *cli.Command) error {
	engine, cleanup, err := r.buildEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.watchProgress(progressCh)

	result, err := engine.Run(ctx, progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("\nCycle complete\n")
	r.writePlain("Snapshot:  %s\n", result.SnapshotPath)
	r.writePlain("Batch:     %s\n", result.Batch.ID)
	r.writePlain("Albums:    %d (%d skipped)\n", result.Albums, result.SkippedAlbums)
	r.writePlain("Tracks:    %d (%d skipped)\n", result.Tracks, result.SkippedTracks)
	r.writePlain("Elapsed:   %s\n", result.Elapsed)
	return nil
}

// Extract writes one raw snapshot.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	engine, cleanup, err := r.buildEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.watchProgress(progressCh)

	result, err := engine.Extract(ctx, progressCh)
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	r.writePlain("Snapshot written: %s (%d albums, %d tracks)\n", result.SnapshotPath, result.Albums, result.Tracks)
	return nil
}

// Transform flattens one snapshot into a processed batch.
func (r *Runner) Transform(ctx context.Context, cmd *cli.Command) error {
	engine, cleanup, err := r.buildEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.watchProgress(progressCh)

	result, err := engine.Transform(ctx, progressCh, cmd.String("snapshot"))
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	r.writePlain("Batch %s written\n", result.Batch.ID)
	r.writePlain("Albums: %s (%d rows, %d skipped)\n", result.Batch.AlbumsPath, result.Albums, result.SkippedAlbums)
	r.writePlain("Tracks: %s (%d rows, %d skipped)\n", result.Batch.TracksPath, result.Tracks, result.SkippedTracks)
	return nil
}

// Publish promotes a processed batch to latest.
func (r *Runner) Publish(ctx context.Context, cmd *cli.Command) error {
	engine, cleanup, err := r.buildEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	batch := models.ProcessedBatch{
		ID:         shared.GenerateID(),
		AlbumsPath: cmd.String("albums"),
		TracksPath: cmd.String("tracks"),
		Format:     engine.OutputFormat(),
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.watchProgress(progressCh)

	result, err := engine.Publish(ctx, progressCh, batch, cmd.String("snapshot"))
	close(progressCh)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	r.writePlain("Published batch %s\n", result.BatchID)
	r.writePlain("Albums latest: %s\n", result.AlbumsPath)
	r.writePlain("Tracks latest: %s\n", result.TracksPath)
	return nil
}

// Latest reads the current latest pointers from the registry.
func (r *Runner) Latest(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, registry, err := r.openRegistry(config)
	if err != nil {
		return err
	}
	defer db.Close()

	albums, err := registry.Latest(models.RecordTypeAlbums)
	if err != nil {
		return err
	}
	tracks, err := registry.Latest(models.RecordTypeTracks)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]*repositories.LatestPointer{
			models.RecordTypeAlbums: albums,
			models.RecordTypeTracks: tracks,
		}, cmd.Bool("pretty"))
	}
	for _, pointer := range []*repositories.LatestPointer{albums, tracks} {
		r.writePlain("%s: %s (batch %s, updated %s)\n",
			pointer.RecordType, pointer.Path, pointer.BatchID, pointer.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}

// Batches lists recently published batches.
func (r *Runner) Batches(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	db, registry, err := r.openRegistry(config)
	if err != nil {
		return err
	}
	defer db.Close()

	batches, err := registry.Batches(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(batches, cmd.Bool("pretty"))
	}
	if len(batches) == 0 {
		r.writePlain("No batches published yet\n")
		return nil
	}
	for _, batch := range batches {
		r.writePlain("%s  %s  %s\n", batch.ID, batch.CreatedAt.Format(time.RFC3339), batch.AlbumsPath)
	}
	return nil
}
