// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/spotify-etl/internal/models"
)

// MockCatalog is a test double for [services.Catalog]. Configure the fields
// to script responses; zero values return empty results.
type MockCatalog struct {
	Releases     []models.SnapshotAlbum
	Tracks       map[string][]models.SnapshotTrack
	ReleasesErr  error
	TracksErr    error
	TrackCalls   int
	ReleaseCalls int
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) NewReleases(ctx context.Context, limit int, country string) ([]models.SnapshotAlbum, error) {
	m.ReleaseCalls++
	if m.ReleasesErr != nil {
		return nil, m.ReleasesErr
	}
	if limit < len(m.Releases) {
		return m.Releases[:limit], nil
	}
	return m.Releases, nil
}

func (m *MockCatalog) AlbumTracks(ctx context.Context, albumID string) ([]models.SnapshotTrack, error) {
	m.TrackCalls++
	if m.TracksErr != nil {
		return nil, m.TracksErr
	}
	return m.Tracks[albumID], nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// SequenceRoundTripper replays responses in order, one per request.
type SequenceRoundTripper struct {
	responses []*http.Response
	calls     int
}

func NewSequenceRoundTripper(responses ...*http.Response) *SequenceRoundTripper {
	return &SequenceRoundTripper{responses: responses}
}

func (s *SequenceRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	if s.calls >= len(s.responses) {
		return nil, errors.New("no response scripted for request")
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

// FuncRoundTripper dispatches each request to a function.
type FuncRoundTripper func(*http.Request) (*http.Response, error)

func (f FuncRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
