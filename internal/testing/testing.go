// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/services"
)

// MockProvider is a test double for [services.StatsProvider]
type MockProvider struct {
	TracksFn  func(ctx context.Context, limit int, timeRange string) ([]services.Track, error)
	ArtistsFn func(ctx context.Context, limit int, timeRange string) ([]services.Artist, error)
}

func (m *MockProvider) Authenticate(ctx context.Context, accessToken string) error {
	return nil
}

func (m *MockProvider) Profile(ctx context.Context) (*models.Profile, error) {
	return &models.Profile{ID: "mock", DisplayName: "Mock User"}, nil
}

func (m *MockProvider) TopTracks(ctx context.Context, limit int, timeRange string) ([]services.Track, error) {
	if m.TracksFn != nil {
		return m.TracksFn(ctx, limit, timeRange)
	}
	return []services.Track{}, nil
}

func (m *MockProvider) TopArtists(ctx context.Context, limit int, timeRange string) ([]services.Artist, error) {
	if m.ArtistsFn != nil {
		return m.ArtistsFn(ctx, limit, timeRange)
	}
	return []services.Artist{}, nil
}

func (m *MockProvider) TopGenres(ctx context.Context, limit int) ([]string, error) {
	return []string{}, nil
}

func (m *MockProvider) RecentlyPlayed(ctx context.Context, limit int) ([]services.Play, error) {
	return []services.Play{}, nil
}

func (m *MockProvider) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
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

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
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
