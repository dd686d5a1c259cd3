package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// ExtractResult describes the snapshot written by one extraction.
type ExtractResult struct {
	SnapshotPath string
	Timestamp    string
	Albums       int
	Tracks       int
}

// Extract pulls up to extraction.limit new releases from the catalog,
// optionally enriches each album with its tracks, and writes exactly one
// timestamped snapshot under paths.raw. On any failure nothing is written:
// the snapshot only becomes visible through the final rename.
func (e *EtlEngine) Extract(ctx context.Context, progress chan<- ProgressUpdate) (*ExtractResult, error) {
	opts := e.config.Extraction

	sendProgress(progress, fetchReleasesUpdate(opts.Limit))
	albums, err := e.catalog.NewReleases(ctx, opts.Limit, opts.Country)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrExtraction, err)
	}

	trackCount := 0
	if opts.FetchTracks {
		for i := range albums {
			sendProgress(progress, fetchTracksUpdate(i+1, len(albums), albums[i].Name))
			tracks, err := e.catalog.AlbumTracks(ctx, albums[i].ID)
			if err != nil {
				return nil, fmt.Errorf("%w: tracks for album %s: %w", shared.ErrExtraction, albums[i].ID, err)
			}
			albums[i].Tracks = tracks
			trackCount += len(tracks)
		}
	}

	extractedAt := e.now().UTC()
	snapshot := models.Snapshot{
		ExtractionTimestamp: extractedAt.Format(time.RFC3339),
		Releases:            albums,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode snapshot: %w", shared.ErrExtraction, err)
	}

	timestamp := shared.FormatTimestamp(extractedAt)
	path := filepath.Join(e.config.Paths.Raw, shared.SnapshotFilename(e.config.Output.Prefix, timestamp))
	sendProgress(progress, writeSnapshotUpdate(path))
	if err := shared.AtomicWriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrExtraction, err)
	}

	e.logger.Info("snapshot written", "path", path, "albums", len(albums), "tracks", trackCount)
	return &ExtractResult{
		SnapshotPath: path,
		Timestamp:    timestamp,
		Albums:       len(albums),
		Tracks:       trackCount,
	}, nil
}
