// package services defines clients for the HTTP APIs the stats client
// talks to: the Spotify Web API and the snapshot backend.
package services

import (
	"context"

	"github.com/replayfm/replay/internal/models"
)

// Valid Spotify time ranges for top-item queries.
const (
	RangeShortTerm  = "short_term"
	RangeMediumTerm = "medium_term"
	RangeLongTerm   = "long_term"
)

// StatsProvider is the provider surface the stats views consume.
type StatsProvider interface {
	// Authenticate installs a bearer token for subsequent requests.
	Authenticate(ctx context.Context, accessToken string) error

	// Profile retrieves the current authenticated user's profile.
	Profile(ctx context.Context) (*models.Profile, error)

	// TopTracks retrieves the user's most played tracks for a time range.
	TopTracks(ctx context.Context, limit int, timeRange string) ([]Track, error)

	// TopArtists retrieves the user's most played artists for a time range.
	TopArtists(ctx context.Context, limit int, timeRange string) ([]Artist, error)

	// TopGenres derives a ranked genre list from the user's top artists.
	TopGenres(ctx context.Context, limit int) ([]string, error)

	// RecentlyPlayed retrieves the user's play history, most recent first.
	RecentlyPlayed(ctx context.Context, limit int) ([]Play, error)

	// Name returns the name of the provider (e.g. "Spotify")
	Name() string
}

// Track represents a music track from the provider.
type Track struct {
	ID       string
	Title    string
	Artist   string
	Album    string
	Duration int // Duration in milliseconds
	Image    models.Image
}

// Artist represents an artist from the provider.
type Artist struct {
	ID     string
	Name   string
	Genres []string
	Image  models.Image
}

// Play represents one entry of the user's play history.
type Play struct {
	Track    Track
	PlayedAt string
}
