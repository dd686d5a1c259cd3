package services

import (
	"context"

	"github.com/desertthunder/spotify-etl/internal/models"
)

// Catalog defines the catalog-query surface the extractor consumes.
// Implementations must honor context cancellation and carry their own
// request timeouts; no call may block indefinitely.
type Catalog interface {
	// Name returns the service name for display and logging.
	Name() string

	// NewReleases fetches up to limit newly released albums, paginating as
	// needed. country optionally restricts results to a market.
	NewReleases(ctx context.Context, limit int, country string) ([]models.SnapshotAlbum, error)

	// AlbumTracks fetches the tracks of a single album.
	AlbumTracks(ctx context.Context, albumID string) ([]models.SnapshotTrack, error)
}
