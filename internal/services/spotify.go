// Spotify API implementation of [StatsProvider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const spotifyBaseURL = "https://api.spotify.com/v1"

// Spotify allows roughly 180 requests per minute per client before
// returning 429s; stay comfortably under that.
const spotifyRequestsPerSecond = 2

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum   `json:"album"`
	DurationMS int            `json:"duration_ms"`
	Popularity int            `json:"popularity"`
	URI        string         `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []models.Image `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []models.Image `json:"images"`
	URI         string         `json:"uri"`
}

// spotifyPaginated is the common shape of top-item responses.
type spotifyPaginated[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// spotifyPlayHistory is one entry of the recently-played response.
type spotifyPlayHistory struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

// SpotifyService implements [StatsProvider] against the Spotify Web API.
// Requests are rate limited to stay under the API's request budget.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a Spotify stats client. baseURL overrides the
// production API host when non-empty (used in tests).
func NewSpotifyService(baseURL string) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}

	return &SpotifyService{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(spotifyRequestsPerSecond), 1),
	}
}

// Authenticate installs a bearer token for subsequent requests.
func (s *SpotifyService) Authenticate(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrNotAuthenticated)
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	s.httpClient = oauth2.NewClient(ctx, source)

	return nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated, rate-limited GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
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

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Profile retrieves the current authenticated user's profile.
func (s *SpotifyService) Profile(ctx context.Context) (*models.Profile, error) {
	var profile models.Profile
	if err := s.doRequest(ctx, "/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// TopTracks retrieves the user's most played tracks for a time range.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int, timeRange string) ([]Track, error) {
	limit = clampLimit(limit)
	if timeRange == "" {
		timeRange = RangeMediumTerm
	}

	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=%s", limit, timeRange)

	var response spotifyPaginated[SpotifyTrack]
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	tracks := make([]Track, 0, len(response.Items))
	for _, st := range response.Items {
		tracks = append(tracks, convertTrack(st))
	}

	return tracks, nil
}

// TopArtists retrieves the user's most played artists for a time range.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int, timeRange string) ([]Artist, error) {
	limit = clampLimit(limit)
	if timeRange == "" {
		timeRange = RangeMediumTerm
	}

	endpoint := fmt.Sprintf("/me/top/artists?limit=%d&time_range=%s", limit, timeRange)

	var response spotifyPaginated[SpotifyArtist]
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	artists := make([]Artist, 0, len(response.Items))
	for _, sa := range response.Items {
		artist := Artist{
			ID:     sa.ID,
			Name:   sa.Name,
			Genres: sa.Genres,
		}
		if len(sa.Images) > 0 {
			artist.Image = sa.Images[0]
		}
		artists = append(artists, artist)
	}

	return artists, nil
}

// RecentlyPlayed retrieves the user's play history, most recent first.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]Play, error) {
	limit = clampLimit(limit)

	endpoint := fmt.Sprintf("/me/player/recently-played?limit=%d", limit)

	var response spotifyPaginated[spotifyPlayHistory]
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	plays := make([]Play, 0, len(response.Items))
	for _, item := range response.Items {
		plays = append(plays, Play{
			Track:    convertTrack(item.Track),
			PlayedAt: item.PlayedAt,
		})
	}

	return plays, nil
}

// TopGenres derives a ranked genre list from the user's top artists.
func (s *SpotifyService) TopGenres(ctx context.Context, limit int) ([]string, error) {
	artists, err := s.TopArtists(ctx, 50, RangeMediumTerm)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, artist := range artists {
		for _, genre := range artist.Genres {
			counts[genre]++
		}
	}

	genres := make([]string, 0, len(counts))
	for genre := range counts {
		genres = append(genres, genre)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})

	if limit > 0 && limit < len(genres) {
		genres = genres[:limit]
	}

	return genres, nil
}

func convertTrack(st SpotifyTrack) Track {
	track := Track{
		ID:       st.ID,
		Title:    st.Name,
		Album:    st.Album.Name,
		Duration: st.DurationMS,
	}
	if len(st.Artists) > 0 {
		track.Artist = st.Artists[0].Name
	}
	if len(st.Album.Images) > 0 {
		track.Image = st.Album.Images[0]
	}
	return track
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 50 {
		return 50
	}
	return limit
}
