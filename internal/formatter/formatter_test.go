package formatter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spotify-etl/internal/models"
	th "github.com/desertthunder/spotify-etl/internal/testing"
)

var (
	albumRows = []models.AlbumRecord{
		{ID: "alb1", Name: "First Album", ReleaseDate: "2024-01-12", TotalTracks: 2, ArtistNames: "Artist One"},
		{ID: "alb2", Name: "Second, With Comma", ReleaseDate: "2024-01-13", TotalTracks: 1, ArtistNames: "Artist Two, Artist Three"},
	}
	trackRows = []models.TrackRecord{
		{ID: "trk1", Name: "Opener", AlbumID: "alb1", DurationMS: 180000, TrackNumber: 1, ArtistNames: "Artist One"},
		{ID: "trk2", Name: "Closer", AlbumID: "alb1", DurationMS: 240000, TrackNumber: 2, ArtistNames: "Artist One"},
	}
)

func TestEncodeCSV(t *testing.T) {
	t.Run("Albums", func(t *testing.T) {
		data, err := EncodeAlbums("csv", albumRows)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d records", len(records))
		}
		if strings.Join(records[0], ",") != strings.Join(AlbumColumns, ",") {
			t.Errorf("unexpected header: %v", records[0])
		}
		if records[1][0] != "alb1" || records[1][3] != "2" {
			t.Errorf("unexpected first row: %v", records[1])
		}
		if records[2][4] != "Artist Two, Artist Three" {
			t.Errorf("comma-joined artists should survive quoting: %v", records[2])
		}
	})

	t.Run("Tracks", func(t *testing.T) {
		data, err := EncodeTracks("csv", trackRows)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d records", len(records))
		}
		if strings.Join(records[0], ",") != strings.Join(TrackColumns, ",") {
			t.Errorf("unexpected header: %v", records[0])
		}
		if records[1][2] != "alb1" || records[1][3] != "180000" {
			t.Errorf("unexpected first row: %v", records[1])
		}
	})

	t.Run("EmptyRowsStillWriteHeader", func(t *testing.T) {
		data, err := EncodeAlbums("csv", nil)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if !strings.HasPrefix(string(data), "id,name,release_date") {
			t.Errorf("expected header for empty table, got %q", data)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		first, err := EncodeAlbums("csv", albumRows)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		second, err := EncodeAlbums("csv", albumRows)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if string(first) != string(second) {
			t.Error("encoding the same rows twice should be byte-identical")
		}
	})
}

func TestEncodeParquet(t *testing.T) {
	t.Run("Albums", func(t *testing.T) {
		data, err := EncodeAlbums("parquet", albumRows)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if len(data) == 0 {
			t.Fatal("expected non-empty parquet output")
		}
		// Magic bytes at both ends of the file
		if string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
			t.Error("output does not look like a parquet file")
		}
	})

	t.Run("Tracks", func(t *testing.T) {
		data, err := EncodeTracks("parquet", trackRows)
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		if len(data) == 0 {
			t.Fatal("expected non-empty parquet output")
		}
	})
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	if _, err := EncodeAlbums("xlsx", albumRows); err == nil {
		t.Error("expected error for unsupported album format")
	}
	if _, err := EncodeTracks("xlsx", trackRows); err == nil {
		t.Error("expected error for unsupported track format")
	}
}

func TestWriteFiles(t *testing.T) {
	t.Run("WriteAlbums", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "processed", "spotify_albums_20240115_093042.csv")

		if err := WriteAlbums(path, "csv", albumRows); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		th.AssertFileExists(t, path)

		content := th.MustReadFile(t, path)
		if !strings.Contains(content, "alb1") || !strings.Contains(content, "alb2") {
			t.Errorf("written file missing rows: %s", content)
		}
	})

	t.Run("WriteTracks", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "spotify_tracks_20240115_093042.csv")

		if err := WriteTracks(path, "csv", trackRows); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		th.AssertFileExists(t, path)

		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatalf("failed to list directory: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the final file, got %d entries", len(entries))
		}
	})
}
