package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// PublishResult reports the latest pointer paths refreshed by one publish.
type PublishResult struct {
	BatchID    string
	AlbumsPath string
	TracksPath string
}

// Publish makes the batch the official latest: one registry transaction
// records the batch and repoints both record types, then the files under
// paths.final are refreshed as copies. The registry is the authoritative
// pointer; any failure returns ErrPublish with the prior registry state
// intact, and the step is safe to retry while the batch files exist.
func (e *EtlEngine) Publish(ctx context.Context, progress chan<- ProgressUpdate, batch models.ProcessedBatch, snapshotPath string) (*PublishResult, error) {
	for _, path := range []string{batch.AlbumsPath, batch.TracksPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: batch file missing: %w", shared.ErrPublish, err)
		}
	}

	sendProgress(progress, registerBatchUpdate(batch.ID))
	if err := e.registry.RecordBatch(batch, snapshotPath); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPublish, err)
	}

	albumsLatest := filepath.Join(e.config.Paths.Final, shared.LatestFilename(models.RecordTypeAlbums, batch.Format))
	tracksLatest := filepath.Join(e.config.Paths.Final, shared.LatestFilename(models.RecordTypeTracks, batch.Format))

	sendProgress(progress, publishPointerUpdate(1, 2, albumsLatest))
	if err := shared.CopyFileAtomic(batch.AlbumsPath, albumsLatest); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPublish, err)
	}
	sendProgress(progress, publishPointerUpdate(2, 2, tracksLatest))
	if err := shared.CopyFileAtomic(batch.TracksPath, tracksLatest); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrPublish, err)
	}

	e.logger.Info("batch published",
		"batch_id", batch.ID,
		"albums", albumsLatest,
		"tracks", tracksLatest)
	return &PublishResult{
		BatchID:    batch.ID,
		AlbumsPath: albumsLatest,
		TracksPath: tracksLatest,
	}, nil
}
