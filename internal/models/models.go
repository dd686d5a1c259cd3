package models

import "strings"

// Record types published to downstream consumers.
const (
	RecordTypeAlbums = "albums"
	RecordTypeTracks = "tracks"
)

// SnapshotArtist is an artist reference embedded in a snapshot entry.
type SnapshotArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SnapshotTrack is a track embedded in a snapshot album entry.
type SnapshotTrack struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	DurationMS  int              `json:"duration_ms"`
	TrackNumber int              `json:"track_number"`
	Artists     []SnapshotArtist `json:"artists"`
}

// SnapshotAlbum is one album release captured in a raw snapshot, enriched
// with its tracks at extraction time.
type SnapshotAlbum struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	ReleaseDate string           `json:"release_date"`
	TotalTracks int              `json:"total_tracks"`
	Artists     []SnapshotArtist `json:"artists"`
	Tracks      []SnapshotTrack  `json:"tracks,omitempty"`
}

// Snapshot is the raw document written to the raw directory: one bounded
// API extraction captured at a point in time. Immutable once written.
type Snapshot struct {
	ExtractionTimestamp string          `json:"extraction_timestamp"`
	Releases            []SnapshotAlbum `json:"releases"`
}

// AlbumRecord is a flat album row in a processed batch.
type AlbumRecord struct {
	ID          string
	Name        string
	ReleaseDate string
	TotalTracks int
	ArtistNames string
}

// TrackRecord is a flat track row in a processed batch.
type TrackRecord struct {
	ID          string
	Name        string
	AlbumID     string
	DurationMS  int
	TrackNumber int
	ArtistNames string
}

// ProcessedBatch identifies the pair of tabular files produced from one
// snapshot. Created by the transformer, never mutated, superseded (not
// deleted) by later batches.
type ProcessedBatch struct {
	ID         string
	Timestamp  string
	AlbumsPath string
	TracksPath string
	Format     string
}

// JoinArtistNames flattens artist references into the comma-joined string
// stored in the artist_names column.
func JoinArtistNames(artists []SnapshotArtist) string {
	if len(artists) == 0 {
		return ""
	}
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}
