package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/bjaus/etl"
	"github.com/desertthunder/spotify-etl/internal/formatter"
	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// rawSnapshot defers release decoding to the pipeline so one malformed entry
// cannot abort the whole batch.
type rawSnapshot struct {
	ExtractionTimestamp string            `json:"extraction_timestamp"`
	Releases            []json.RawMessage `json:"releases"`
}

// decodeAlbum rejects entries that are not JSON objects or lack an id.
// Missing optional fields decode to zero values and keep the row.
func decodeAlbum(entry json.RawMessage) (models.SnapshotAlbum, error) {
	var album models.SnapshotAlbum
	if err := json.Unmarshal(entry, &album); err != nil {
		return album, fmt.Errorf("malformed release entry: %w", err)
	}
	if album.ID == "" {
		return album, errors.New("release entry missing id")
	}
	return album, nil
}

// entrySource yields each release entry of a snapshot in document order.
func entrySource(entries []json.RawMessage) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		for _, entry := range entries {
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// albumJob flattens release entries into album rows, one row per entry.
type albumJob struct {
	entries []json.RawMessage
	seen    map[string]struct{}
	rows    []models.AlbumRecord
	stats   *etl.Stats
}

func (j *albumJob) Extract(ctx context.Context, _ *int) iter.Seq2[json.RawMessage, error] {
	return entrySource(j.entries)
}

func (j *albumJob) Transform(ctx context.Context, src json.RawMessage) (models.AlbumRecord, error) {
	album, err := decodeAlbum(src)
	if err != nil {
		return models.AlbumRecord{}, err
	}
	return models.AlbumRecord{
		ID:          album.ID,
		Name:        album.Name,
		ReleaseDate: album.ReleaseDate,
		TotalTracks: album.TotalTracks,
		ArtistNames: models.JoinArtistNames(album.Artists),
	}, nil
}

// Load deduplicates by id, first occurrence wins. The snapshot preserves API
// page order, so the kept row is the one a reader of the raw document sees
// first; later duplicates are dropped silently.
func (j *albumJob) Load(ctx context.Context, batch []models.AlbumRecord) error {
	for _, row := range batch {
		if _, dup := j.seen[row.ID]; dup {
			continue
		}
		j.seen[row.ID] = struct{}{}
		j.rows = append(j.rows, row)
	}
	return nil
}

// OnError skips malformed entries so they are counted, not fatal. Load
// errors still stop the pipeline.
func (j *albumJob) OnError(ctx context.Context, stage etl.Stage, err error) etl.Action {
	if stage == etl.StageTransform {
		return etl.ActionSkip
	}
	return etl.ActionFail
}

func (j *albumJob) Stop(ctx context.Context, stats *etl.Stats, err error) {
	j.stats = stats
}

// trackJob expands release entries into track rows, zero or more per entry.
type trackJob struct {
	entries []json.RawMessage
	seen    map[string]struct{}
	rows    []models.TrackRecord
	stats   *etl.Stats
}

func (j *trackJob) Extract(ctx context.Context, _ *int) iter.Seq2[json.RawMessage, error] {
	return entrySource(j.entries)
}

func (j *trackJob) Expand(ctx context.Context, src json.RawMessage) ([]models.TrackRecord, error) {
	album, err := decodeAlbum(src)
	if err != nil {
		return nil, err
	}
	rows := make([]models.TrackRecord, 0, len(album.Tracks))
	for _, track := range album.Tracks {
		if track.ID == "" {
			// a row without an id cannot be keyed downstream
			continue
		}
		rows = append(rows, models.TrackRecord{
			ID:          track.ID,
			Name:        track.Name,
			AlbumID:     album.ID,
			DurationMS:  track.DurationMS,
			TrackNumber: track.TrackNumber,
			ArtistNames: models.JoinArtistNames(track.Artists),
		})
	}
	return rows, nil
}

func (j *trackJob) Load(ctx context.Context, batch []models.TrackRecord) error {
	for _, row := range batch {
		if _, dup := j.seen[row.ID]; dup {
			continue
		}
		j.seen[row.ID] = struct{}{}
		j.rows = append(j.rows, row)
	}
	return nil
}

func (j *trackJob) OnError(ctx context.Context, stage etl.Stage, err error) etl.Action {
	if stage == etl.StageTransform {
		return etl.ActionSkip
	}
	return etl.ActionFail
}

func (j *trackJob) Stop(ctx context.Context, stats *etl.Stats, err error) {
	j.stats = stats
}

// TransformResult describes the processed batch produced from one snapshot.
type TransformResult struct {
	Batch         models.ProcessedBatch
	Albums        int
	Tracks        int
	SkippedAlbums int64
	SkippedTracks int64
}

// Transform reads a snapshot by path, flattens it into album and track rows
// through two pipelines, and writes both tables under paths.processed in the
// configured format. The batch reuses the snapshot's timestamp, so re-running
// on the same snapshot produces the same filenames and the same logical rows.
func (e *EtlEngine) Transform(ctx context.Context, progress chan<- ProgressUpdate, snapshotPath string) (*TransformResult, error) {
	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, snapshotPath)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrTransformation, err)
	}

	var snapshot rawSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %w", shared.ErrTransformation, err)
	}

	timestamp, err := snapshotTimestamp(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTransformation, err)
	}

	sendProgress(progress, flattenUpdate(FlattenAlbums, len(snapshot.Releases)))
	albums := &albumJob{entries: snapshot.Releases, seen: map[string]struct{}{}}
	if err := etl.New[json.RawMessage, models.AlbumRecord, int](albums).Run(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTransformation, err)
	}
	if err := e.checkSkipRatio(models.RecordTypeAlbums, albums.stats); err != nil {
		return nil, err
	}

	sendProgress(progress, flattenUpdate(FlattenTracks, len(snapshot.Releases)))
	tracks := &trackJob{entries: snapshot.Releases, seen: map[string]struct{}{}}
	if err := etl.New[json.RawMessage, models.TrackRecord, int](tracks).Run(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTransformation, err)
	}
	if err := e.checkSkipRatio(models.RecordTypeTracks, tracks.stats); err != nil {
		return nil, err
	}

	format := e.config.Output.Format
	prefix := e.config.Output.Prefix
	albumsPath := filepath.Join(e.config.Paths.Processed, shared.BatchFilename(prefix, models.RecordTypeAlbums, timestamp, format))
	tracksPath := filepath.Join(e.config.Paths.Processed, shared.BatchFilename(prefix, models.RecordTypeTracks, timestamp, format))

	sendProgress(progress, writeBatchUpdate(1, 2, albumsPath))
	if err := formatter.WriteAlbums(albumsPath, format, albums.rows); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTransformation, err)
	}
	sendProgress(progress, writeBatchUpdate(2, 2, tracksPath))
	if err := formatter.WriteTracks(tracksPath, format, tracks.rows); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrTransformation, err)
	}

	batch := models.ProcessedBatch{
		ID:         shared.GenerateID(),
		Timestamp:  timestamp,
		AlbumsPath: albumsPath,
		TracksPath: tracksPath,
		Format:     format,
	}
	e.logger.Info("batch written",
		"batch_id", batch.ID,
		"albums", len(albums.rows),
		"tracks", len(tracks.rows),
		"skipped_albums", albums.stats.Errors(),
		"skipped_tracks", tracks.stats.Errors())
	return &TransformResult{
		Batch:         batch,
		Albums:        len(albums.rows),
		Tracks:        len(tracks.rows),
		SkippedAlbums: albums.stats.Errors(),
		SkippedTracks: tracks.stats.Errors(),
	}, nil
}

// checkSkipRatio fails the batch when too many source entries were dropped,
// which usually means the upstream document shape changed.
func (e *EtlEngine) checkSkipRatio(recordType string, stats *etl.Stats) error {
	if stats == nil || stats.Extracted() == 0 {
		return nil
	}
	ratio := float64(stats.Errors()) / float64(stats.Extracted())
	if ratio > e.config.Transform.MaxSkipRatio {
		return fmt.Errorf("%w: %s skip ratio %.2f exceeds %.2f",
			shared.ErrTransformation, recordType, ratio, e.config.Transform.MaxSkipRatio)
	}
	return nil
}

// snapshotTimestamp recovers the extraction timestamp embedded in a snapshot
// filename, e.g. spotify_20240101_093000.json.
func snapshotTimestamp(path string) (string, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return "", fmt.Errorf("no timestamp in snapshot filename %q", filepath.Base(path))
	}
	timestamp := strings.Join(parts[len(parts)-2:], "_")
	if _, err := shared.ParseTimestamp(timestamp); err != nil {
		return "", fmt.Errorf("no timestamp in snapshot filename %q", filepath.Base(path))
	}
	return timestamp, nil
}
