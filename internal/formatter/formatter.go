// package formatter encodes processed batch rows into the supported tabular
// output formats (CSV, Parquet) with a stable column order.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
)

// Column orders are part of the output contract; downstream consumers rely
// on them being stable across runs.
var (
	AlbumColumns = []string{"id", "name", "release_date", "total_tracks", "artist_names"}
	TrackColumns = []string{"id", "name", "album_id", "duration_ms", "track_number", "artist_names"}
)

// EncodeAlbums renders album rows in the requested format.
func EncodeAlbums(format string, rows []models.AlbumRecord) ([]byte, error) {
	switch format {
	case shared.FormatCSV:
		return encodeAlbumsCSV(rows)
	case shared.FormatParquet:
		return encodeAlbumsParquet(rows)
	default:
		return nil, fmt.Errorf("unsupported output format: %q", format)
	}
}

// EncodeTracks renders track rows in the requested format.
func EncodeTracks(format string, rows []models.TrackRecord) ([]byte, error) {
	switch format {
	case shared.FormatCSV:
		return encodeTracksCSV(rows)
	case shared.FormatParquet:
		return encodeTracksParquet(rows)
	default:
		return nil, fmt.Errorf("unsupported output format: %q", format)
	}
}

// WriteAlbums encodes album rows and publishes them to path atomically.
func WriteAlbums(path, format string, rows []models.AlbumRecord) error {
	data, err := EncodeAlbums(format, rows)
	if err != nil {
		return err
	}
	return shared.AtomicWriteFile(path, data, 0644)
}

// WriteTracks encodes track rows and publishes them to path atomically.
func WriteTracks(path, format string, rows []models.TrackRecord) error {
	data, err := EncodeTracks(format, rows)
	if err != nil {
		return err
	}
	return shared.AtomicWriteFile(path, data, 0644)
}

func encodeAlbumsCSV(rows []models.AlbumRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(AlbumColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.ID,
			row.Name,
			row.ReleaseDate,
			strconv.Itoa(row.TotalTracks),
			row.ArtistNames,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeTracksCSV(rows []models.TrackRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(TrackColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.ID,
			row.Name,
			row.AlbumID,
			strconv.Itoa(row.DurationMS),
			strconv.Itoa(row.TrackNumber),
			row.ArtistNames,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}
