package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/replayfm/replay/internal/shared"
)

const topTracksPayload = `{
	"items": [
		{
			"id": "t1",
			"name": "Song One",
			"duration_ms": 201000,
			"artists": [{"id": "a1", "name": "Artist One"}],
			"album": {"id": "al1", "name": "Album One", "images": [{"url": "http://img/al1.png", "height": 300, "width": 300}]}
		},
		{
			"id": "t2",
			"name": "Song Two",
			"duration_ms": 185000,
			"artists": [],
			"album": {"id": "al2", "name": "Album Two", "images": []}
		}
	],
	"total": 2, "limit": 20, "offset": 0
}`

const topArtistsPayload = `{
	"items": [
		{"id": "a1", "name": "Artist One", "genres": ["indie rock", "shoegaze"], "images": [{"url": "http://img/a1.png"}]},
		{"id": "a2", "name": "Artist Two", "genres": ["indie rock"], "images": []},
		{"id": "a3", "name": "Artist Three", "genres": ["ambient"], "images": []}
	],
	"total": 3, "limit": 50, "offset": 0
}`

func newSpotifyTestServer(t *testing.T, routes map[string]string) (*httptest.Server, *SpotifyService) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))

	return srv, NewSpotifyService(srv.URL)
}

func TestSpotifyService(t *testing.T) {
	t.Run("AuthenticateRequiresToken", func(t *testing.T) {
		service := NewSpotifyService("")
		if err := service.Authenticate(context.Background(), ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Name", func(t *testing.T) {
		if got := NewSpotifyService("").Name(); got != "Spotify" {
			t.Errorf("expected Spotify, got %s", got)
		}
	})

	t.Run("TopTracks", func(t *testing.T) {
		srv, service := newSpotifyTestServer(t, map[string]string{"/me/top/tracks": topTracksPayload})
		defer srv.Close()

		tracks, err := service.TopTracks(context.Background(), 20, RangeMediumTerm)
		if err != nil {
			t.Fatalf("failed to fetch top tracks: %v", err)
		}

		if len(tracks) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(tracks))
		}
		if tracks[0].Title != "Song One" || tracks[0].Artist != "Artist One" {
			t.Errorf("unexpected first track: %+v", tracks[0])
		}
		if tracks[0].Image.URL != "http://img/al1.png" {
			t.Errorf("album art not carried over: %+v", tracks[0].Image)
		}
		if tracks[1].Artist != "" {
			t.Errorf("track with no artists should have empty artist, got %q", tracks[1].Artist)
		}
	})

	t.Run("TopArtists", func(t *testing.T) {
		srv, service := newSpotifyTestServer(t, map[string]string{"/me/top/artists": topArtistsPayload})
		defer srv.Close()

		artists, err := service.TopArtists(context.Background(), 20, RangeShortTerm)
		if err != nil {
			t.Fatalf("failed to fetch top artists: %v", err)
		}

		if len(artists) != 3 {
			t.Fatalf("expected 3 artists, got %d", len(artists))
		}
		if artists[0].Image.URL != "http://img/a1.png" {
			t.Errorf("artist image not carried over: %+v", artists[0].Image)
		}
	})

	t.Run("TopGenresRankedByFrequency", func(t *testing.T) {
		srv, service := newSpotifyTestServer(t, map[string]string{"/me/top/artists": topArtistsPayload})
		defer srv.Close()

		genres, err := service.TopGenres(context.Background(), 2)
		if err != nil {
			t.Fatalf("failed to fetch top genres: %v", err)
		}

		if len(genres) != 2 {
			t.Fatalf("expected 2 genres, got %d", len(genres))
		}
		if genres[0] != "indie rock" {
			t.Errorf("expected indie rock first (2 artists), got %s", genres[0])
		}
	})

	t.Run("RecentlyPlayed", func(t *testing.T) {
		payload := `{"items": [{"track": {"id": "t1", "name": "Song One", "artists": [{"name": "Artist One"}], "album": {"name": "Album One"}}, "played_at": "2025-06-01T11:00:00Z"}]}`
		srv, service := newSpotifyTestServer(t, map[string]string{"/me/player/recently-played": payload})
		defer srv.Close()

		plays, err := service.RecentlyPlayed(context.Background(), 10)
		if err != nil {
			t.Fatalf("failed to fetch play history: %v", err)
		}

		if len(plays) != 1 {
			t.Fatalf("expected 1 play, got %d", len(plays))
		}
		if plays[0].PlayedAt != "2025-06-01T11:00:00Z" {
			t.Errorf("unexpected played_at: %s", plays[0].PlayedAt)
		}
	})

	t.Run("ExpiredTokenSurfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		service := NewSpotifyService(srv.URL)
		_, err := service.TopTracks(context.Background(), 10, RangeMediumTerm)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("ServerErrorSurfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		service := NewSpotifyService(srv.URL)
		_, err := service.TopArtists(context.Background(), 10, RangeMediumTerm)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{-5, 20},
		{0, 20},
		{1, 1},
		{50, 50},
		{99, 50},
	}

	for _, tc := range cases {
		if got := clampLimit(tc.in); got != tc.want {
			t.Errorf("clampLimit(%d): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}
