package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout is the second-precision layout used in snapshot and batch
// filenames (e.g. spotify_20240115_093042.json).
const TimestampLayout = "20060102_150405"

// FormatTimestamp renders t in the filename timestamp layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a filename timestamp back into a [time.Time].
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// SnapshotFilename returns the raw snapshot filename for the given prefix and timestamp.
func SnapshotFilename(prefix, timestamp string) string {
	return fmt.Sprintf("%s_%s.json", prefix, timestamp)
}

// BatchFilename returns a processed batch filename for the given prefix,
// record type (albums or tracks), timestamp and format extension.
func BatchFilename(prefix, recordType, timestamp, format string) string {
	return fmt.Sprintf("%s_%s_%s.%s", prefix, recordType, timestamp, format)
}

// LatestFilename returns the stable latest-pointer filename for a record type.
func LatestFilename(recordType, format string) string {
	return fmt.Sprintf("%s_latest.%s", recordType, format)
}

// AtomicWriteFile writes data to a temporary file in the same directory as
// path and renames it into place. Readers never observe a partially written
// file: either the previous content is intact or the new content is complete.
// On any failure the temporary file is removed and path is left untouched.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%s", filepath.Base(path), GenerateID()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// CopyFileAtomic copies src to dst through a temporary file and rename,
// with the same visibility guarantees as [AtomicWriteFile].
func CopyFileAtomic(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	return AtomicWriteFile(dst, data, 0644)
}
