package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/replayfm/replay/internal/shared"
)

const snapshotPayload = `{
	"date": "2025-06-01",
	"username": "user1",
	"avatar_url": "http://img/u1.png",
	"listening_time": 7265000,
	"top_genres": ["indie rock", "ambient"],
	"top_songs": {"songs": [{"name": "Song One", "artist": "Artist One", "image": {"url": "http://img/s1.png"}}]},
	"top_artists": {"artists": [{"name": "Artist One", "image": {"url": "http://img/a1.png"}}]}
}`

func TestBackendService(t *testing.T) {
	t.Run("GetRecent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/recent" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			io.WriteString(w, snapshotPayload)
		}))
		defer srv.Close()

		backend := NewBackendService(srv.URL, nil)
		snapshot, err := backend.GetRecent(context.Background())
		if err != nil {
			t.Fatalf("failed to fetch recent snapshot: %v", err)
		}

		if snapshot.Username != "user1" {
			t.Errorf("expected user1, got %s", snapshot.Username)
		}
		if snapshot.ListeningTime != 7265000 {
			t.Errorf("expected 7265000 ms, got %d", snapshot.ListeningTime)
		}
		if len(snapshot.TopSongs.Songs) != 1 || snapshot.TopSongs.Songs[0].Artist != "Artist One" {
			t.Errorf("nested songs not decoded: %+v", snapshot.TopSongs)
		}
	})

	t.Run("GetSnapshot", func(t *testing.T) {
		var requested string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requested = r.URL.Path
			io.WriteString(w, snapshotPayload)
		}))
		defer srv.Close()

		backend := NewBackendService(srv.URL, nil)
		if _, err := backend.GetSnapshot(context.Background(), 3); err != nil {
			t.Fatalf("failed to fetch snapshot: %v", err)
		}
		if requested != "/api/snapshots/3" {
			t.Errorf("expected /api/snapshots/3, got %s", requested)
		}
	})

	t.Run("GetSnapshotRejectsNegativeIndex", func(t *testing.T) {
		backend := NewBackendService("http://unused", nil)
		if _, err := backend.GetSnapshot(context.Background(), -1); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("NotFoundSurfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		backend := NewBackendService(srv.URL, nil)
		if _, err := backend.GetSnapshot(context.Background(), 99); !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
		}
	})

	t.Run("ListSnapshots", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "["+snapshotPayload+","+snapshotPayload+"]")
		}))
		defer srv.Close()

		backend := NewBackendService(srv.URL, nil)
		snapshots, err := backend.ListSnapshots(context.Background())
		if err != nil {
			t.Fatalf("failed to list snapshots: %v", err)
		}
		if len(snapshots) != 2 {
			t.Errorf("expected 2 snapshots, got %d", len(snapshots))
		}
	})

	t.Run("CreateProfile", func(t *testing.T) {
		var received []byte
		var contentType string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/profile" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			contentType = r.Header.Get("Content-Type")
			received, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		backend := NewBackendService(srv.URL, nil)
		payload := []byte(`{"access_token":"at"}`)
		if err := backend.CreateProfile(context.Background(), payload); err != nil {
			t.Fatalf("failed to create profile: %v", err)
		}

		if string(received) != string(payload) {
			t.Error("payload was not forwarded verbatim")
		}
		if contentType != "application/json" {
			t.Errorf("expected application/json, got %s", contentType)
		}
	})

	t.Run("CreateProfileRejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		backend := NewBackendService(srv.URL, nil)
		if err := backend.CreateProfile(context.Background(), []byte("{}")); !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
	})
}
