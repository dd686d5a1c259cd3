// Spotify Web API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/spotify-etl/internal/models"
	"github.com/desertthunder/spotify-etl/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// The API caps page size at 50 for browse and album-track endpoints.
	maxPageSize = 50
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AlbumType   string          `json:"album_type"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	URI         string          `json:"uri"`
}

// SpotifyTrack represents a simplified track object as returned by the
// album-tracks endpoint.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	DurationMS  int             `json:"duration_ms"`
	TrackNumber int             `json:"track_number"`
	Explicit    bool            `json:"explicit"`
	URI         string          `json:"uri"`
}

// SpotifyPaginatedAlbums represents the paginated envelope of the
// new-releases endpoint.
type SpotifyPaginatedAlbums struct {
	Items  []SpotifyAlbum `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

type newReleasesResponse struct {
	Albums SpotifyPaginatedAlbums `json:"albums"`
}

type albumTracksResponse struct {
	Items []SpotifyTrack `json:"items"`
}

// SpotifyService implements [Catalog] against the Spotify Web API. Requests
// authenticate with the client-credentials grant via [clientcredentials];
// the oauth2 transport refreshes expired tokens transparently.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// SpotifyOpts configures a [SpotifyService].
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	Timeout      time.Duration // per-request timeout, required
	RateLimit    float64       // requests per second (default 5)
	BaseURL      string        // API base URL override, for tests
	TokenURL     string        // token URL override, for tests
	HTTPClient   *http.Client  // base transport for token and API calls, for tests
}

// NewSpotifyService creates a new Spotify catalog service with the given
// client-credentials.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrInvalidConfig)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrInvalidConfig)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	config := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	ctx := context.Background()
	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	client := config.Client(ctx)
	client.Timeout = opts.Timeout

	return &SpotifyService{
		baseURL:    opts.BaseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs a rate-limited, authenticated GET against the API and
// decodes the JSON response into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: retry after %s", shared.ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// NewReleases fetches up to limit new releases, following offset pagination
// until the limit is reached or the API reports no further pages.
func (s *SpotifyService) NewReleases(ctx context.Context, limit int, country string) ([]models.SnapshotAlbum, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", shared.ErrAPIRequest)
	}

	albums := make([]models.SnapshotAlbum, 0, limit)
	offset := 0

	for len(albums) < limit {
		pageSize := limit - len(albums)
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		params := url.Values{}
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(offset))
		if country != "" {
			params.Set("country", country)
		}

		var response newReleasesResponse
		if err := s.doRequest(ctx, "/browse/new-releases?"+params.Encode(), &response); err != nil {
			return nil, err
		}

		for _, item := range response.Albums.Items {
			albums = append(albums, toSnapshotAlbum(item))
		}

		if response.Albums.Next == nil || len(response.Albums.Items) == 0 {
			break
		}
		offset += len(response.Albums.Items)
	}

	return albums, nil
}

// AlbumTracks fetches the tracks of a single album.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]models.SnapshotTrack, error) {
	if albumID == "" {
		return nil, fmt.Errorf("%w: missing album ID", shared.ErrAPIRequest)
	}

	endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d", url.PathEscape(albumID), maxPageSize)

	var response albumTracksResponse
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := make([]models.SnapshotTrack, 0, len(response.Items))
	for _, item := range response.Items {
		tracks = append(tracks, models.SnapshotTrack{
			ID:          item.ID,
			Name:        item.Name,
			DurationMS:  item.DurationMS,
			TrackNumber: item.TrackNumber,
			Artists:     toSnapshotArtists(item.Artists),
		})
	}
	return tracks, nil
}

func toSnapshotAlbum(album SpotifyAlbum) models.SnapshotAlbum {
	return models.SnapshotAlbum{
		ID:          album.ID,
		Name:        album.Name,
		ReleaseDate: album.ReleaseDate,
		TotalTracks: album.TotalTracks,
		Artists:     toSnapshotArtists(album.Artists),
	}
}

func toSnapshotArtists(artists []SpotifyArtist) []models.SnapshotArtist {
	if len(artists) == 0 {
		return nil
	}
	out := make([]models.SnapshotArtist, 0, len(artists))
	for _, a := range artists {
		out = append(out, models.SnapshotArtist{ID: a.ID, Name: a.Name})
	}
	return out
}
