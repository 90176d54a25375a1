package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/shared"
	"github.com/replayfm/replay/internal/store"
)

// FetchProfile retrieves the current user's profile with a bearer token,
// persists it, and resets the snapshot index to the most recent snapshot.
// A profile is only ever cached for the token bundle currently on record.
func (m *Manager) FetchProfile(ctx context.Context, accessToken string) (*models.Profile, error) {
	if accessToken == "" {
		m.logger.Error("profile fetch requested without an access token")
		return nil, fmt.Errorf("%w: no access token", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Error("profile fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %v", shared.ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrProfileFetch, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		m.logger.Error("profile endpoint rejected the request", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", shared.ErrProfileFetch, resp.StatusCode)
	}

	var profile models.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("%w: failed to parse profile: %v", shared.ErrProfileFetch, err)
	}

	if err := m.store.Set(store.KeyProfile, string(body)); err != nil {
		return nil, fmt.Errorf("failed to store profile: %w", err)
	}
	if err := m.store.Set(store.KeySnapshotIndex, "0"); err != nil {
		return nil, fmt.Errorf("failed to reset snapshot index: %w", err)
	}

	m.logger.Info("profile fetched", "user", profile.ID)

	return &profile, nil
}
