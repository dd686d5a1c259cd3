package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/spotify-etl/internal/models"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// parquetField describes one column in the schema-tag document consumed by
// [writer.NewJSONWriter].
type parquetField struct {
	Name string
	Type string // BYTE_ARRAY (UTF8) or INT64
}

var (
	albumParquetFields = []parquetField{
		{Name: "id", Type: "BYTE_ARRAY"},
		{Name: "name", Type: "BYTE_ARRAY"},
		{Name: "release_date", Type: "BYTE_ARRAY"},
		{Name: "total_tracks", Type: "INT64"},
		{Name: "artist_names", Type: "BYTE_ARRAY"},
	}
	trackParquetFields = []parquetField{
		{Name: "id", Type: "BYTE_ARRAY"},
		{Name: "name", Type: "BYTE_ARRAY"},
		{Name: "album_id", Type: "BYTE_ARRAY"},
		{Name: "duration_ms", Type: "INT64"},
		{Name: "track_number", Type: "INT64"},
		{Name: "artist_names", Type: "BYTE_ARRAY"},
	}
)

func buildParquetSchema(fields []parquetField) string {
	defs := make([]map[string]string, 0, len(fields))
	for _, f := range fields {
		tag := fmt.Sprintf("name=%s, type=%s, repetitiontype=REQUIRED", f.Name, f.Type)
		if f.Type == "BYTE_ARRAY" {
			tag += ", convertedtype=UTF8"
		}
		defs = append(defs, map[string]string{"Tag": tag})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": defs,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// encodeParquet writes rows (already projected to column maps) into an
// in-memory Parquet file with SNAPPY compression.
func encodeParquet(fields []parquetField, rows []map[string]any) ([]byte, error) {
	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)

	pw, err := writer.NewJSONWriter(buildParquetSchema(fields), pfw, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		encoded, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parquet row: %w", err)
		}
		if err := pw.Write(string(encoded)); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return nil, fmt.Errorf("failed to write parquet row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return nil, fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	if err := pfw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeAlbumsParquet(rows []models.AlbumRecord) ([]byte, error) {
	projected := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		projected = append(projected, map[string]any{
			"id":           row.ID,
			"name":         row.Name,
			"release_date": row.ReleaseDate,
			"total_tracks": int64(row.TotalTracks),
			"artist_names": row.ArtistNames,
		})
	}
	return encodeParquet(albumParquetFields, projected)
}

func encodeTracksParquet(rows []models.TrackRecord) ([]byte, error) {
	projected := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		projected = append(projected, map[string]any{
			"id":           row.ID,
			"name":         row.Name,
			"album_id":     row.AlbumID,
			"duration_ms":  int64(row.DurationMS),
			"track_number": int64(row.TrackNumber),
			"artist_names": row.ArtistNames,
		})
	}
	return encodeParquet(trackParquetFields, projected)
}
