// Client for the stats backend that stores profile snapshots and serves
// aggregated listening statistics.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/shared"
)

// BackendService talks to the remote snapshot backend. It implements the
// profile-creation collaborator the auth core notifies on login.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendService creates a backend client for the given base URL.
func NewBackendService(baseURL string, client *http.Client) *BackendService {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &BackendService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// CreateProfile notifies the backend of a new or refreshed session with the
// raw token payload, so it can provision a profile record.
func (b *BackendService) CreateProfile(ctx context.Context, tokenPayload []byte) error {
	resp, err := b.do(ctx, http.MethodPost, "/api/profile", tokenPayload)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: profile creation returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	return nil
}

// GetRecent fetches the most recent aggregated statistics.
func (b *BackendService) GetRecent(ctx context.Context) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := b.getJSON(ctx, "/api/recent", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshots fetches all historical snapshots, most recent first.
func (b *BackendService) ListSnapshots(ctx context.Context) ([]models.Snapshot, error) {
	var snapshots []models.Snapshot
	if err := b.getJSON(ctx, "/api/snapshots", &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// GetSnapshot fetches the snapshot at the given index (0 is most recent).
func (b *BackendService) GetSnapshot(ctx context.Context, index int) (*models.Snapshot, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: snapshot index must be >= 0", shared.ErrInvalidArgument)
	}

	var snapshot models.Snapshot
	if err := b.getJSON(ctx, fmt.Sprintf("/api/snapshots/%d", index), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// getJSON performs a GET and decodes a 2xx JSON response into result.
func (b *BackendService) getJSON(ctx context.Context, path string, result any) error {
	resp, err := b.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: backend returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.Unmarshal(resp.Body, result); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}

	return nil
}

// backendResponse is a raw backend response with status and body.
type backendResponse struct {
	StatusCode int
	Body       []byte
}

func (b *BackendService) do(ctx context.Context, method, path string, payload []byte) (*backendResponse, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &backendResponse{StatusCode: resp.StatusCode, Body: data}, nil
}
