package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/desertthunder/spotify-etl/internal/shared"
)

// newTestService wires a SpotifyService against a local test server that
// serves both the token endpoint and the API.
func newTestService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.Handle("/", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	service, err := NewSpotifyService(SpotifyOpts{
		ClientID:     "id",
		ClientSecret: "secret",
		Timeout:      5 * time.Second,
		RateLimit:    1000,
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/api/token",
		HTTPClient:   server.Client(),
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return service, server
}

func releasesPage(items []SpotifyAlbum, next string) newReleasesResponse {
	page := SpotifyPaginatedAlbums{Items: items}
	if next != "" {
		page.Next = &next
	}
	return newReleasesResponse{Albums: page}
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("RequiresCredentials", func(t *testing.T) {
		if _, err := NewSpotifyService(SpotifyOpts{ClientSecret: "x"}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for missing client_id, got %v", err)
		}
		if _, err := NewSpotifyService(SpotifyOpts{ClientID: "x"}); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for missing client_secret, got %v", err)
		}
	})
}

func TestNewReleases(t *testing.T) {
	t.Run("SinglePage", func(t *testing.T) {
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/browse/new-releases" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("unexpected authorization header: %s", got)
			}
			json.NewEncoder(w).Encode(releasesPage([]SpotifyAlbum{
				{ID: "alb1", Name: "One", ReleaseDate: "2024-01-12", TotalTracks: 2,
					Artists: []SpotifyArtist{{ID: "art1", Name: "Artist One"}}},
				{ID: "alb2", Name: "Two", ReleaseDate: "2024-01-13", TotalTracks: 1},
			}, ""))
		}))

		albums, err := service.NewReleases(context.Background(), 10, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if len(albums) != 2 {
			t.Fatalf("expected 2 albums, got %d", len(albums))
		}
		if albums[0].ID != "alb1" || albums[0].Artists[0].Name != "Artist One" {
			t.Errorf("unexpected first album: %+v", albums[0])
		}
	})

	t.Run("FollowsPagination", func(t *testing.T) {
		var offsets []string
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			offset := r.URL.Query().Get("offset")
			offsets = append(offsets, offset)
			if offset == "0" {
				json.NewEncoder(w).Encode(releasesPage([]SpotifyAlbum{{ID: "alb1"}, {ID: "alb2"}}, "next-page"))
				return
			}
			json.NewEncoder(w).Encode(releasesPage([]SpotifyAlbum{{ID: "alb3"}}, ""))
		}))

		albums, err := service.NewReleases(context.Background(), 3, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if len(albums) != 3 {
			t.Fatalf("expected 3 albums, got %d", len(albums))
		}
		if len(offsets) != 2 || offsets[1] != "2" {
			t.Errorf("expected offsets [0 2], got %v", offsets)
		}
	})

	t.Run("StopsAtLimit", func(t *testing.T) {
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			size, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			items := make([]SpotifyAlbum, size)
			for i := range items {
				items[i] = SpotifyAlbum{ID: fmt.Sprintf("alb%d", i)}
			}
			json.NewEncoder(w).Encode(releasesPage(items, "next-page"))
		}))

		albums, err := service.NewReleases(context.Background(), 5, "")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if len(albums) != 5 {
			t.Errorf("expected exactly 5 albums, got %d", len(albums))
		}
	})

	t.Run("CountryFilter", func(t *testing.T) {
		var country string
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country = r.URL.Query().Get("country")
			json.NewEncoder(w).Encode(releasesPage(nil, ""))
		}))

		if _, err := service.NewReleases(context.Background(), 5, "SE"); err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if country != "SE" {
			t.Errorf("expected country SE, got %q", country)
		}
	})

	t.Run("RejectsNonPositiveLimit", func(t *testing.T) {
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		if _, err := service.NewReleases(context.Background(), 0, ""); err == nil {
			t.Error("expected error for zero limit")
		}
	})
}

func TestErrorClassification(t *testing.T) {
	status := func(code int) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if code == http.StatusTooManyRequests {
				w.Header().Set("Retry-After", "2")
			}
			w.WriteHeader(code)
		})
	}

	t.Run("Unauthorized", func(t *testing.T) {
		service, _ := newTestService(t, status(http.StatusUnauthorized))
		_, err := service.NewReleases(context.Background(), 5, "")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Forbidden", func(t *testing.T) {
		service, _ := newTestService(t, status(http.StatusForbidden))
		_, err := service.NewReleases(context.Background(), 5, "")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("RateLimited", func(t *testing.T) {
		service, _ := newTestService(t, status(http.StatusTooManyRequests))
		_, err := service.NewReleases(context.Background(), 5, "")
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("ServerError", func(t *testing.T) {
		service, _ := newTestService(t, status(http.StatusInternalServerError))
		_, err := service.NewReleases(context.Background(), 5, "")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestAlbumTracks(t *testing.T) {
	t.Run("FetchesTracks", func(t *testing.T) {
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/albums/alb1/tracks" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(albumTracksResponse{Items: []SpotifyTrack{
				{ID: "trk1", Name: "Opener", DurationMS: 180000, TrackNumber: 1,
					Artists: []SpotifyArtist{{ID: "art1", Name: "Artist One"}}},
			}})
		}))

		tracks, err := service.AlbumTracks(context.Background(), "alb1")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].Name != "Opener" || tracks[0].DurationMS != 180000 {
			t.Errorf("unexpected track: %+v", tracks[0])
		}
	})

	t.Run("RequiresAlbumID", func(t *testing.T) {
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		if _, err := service.AlbumTracks(context.Background(), ""); err == nil {
			t.Error("expected error for missing album ID")
		}
	})
}
