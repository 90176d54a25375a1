package auth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/replayfm/replay/internal/shared"
	"github.com/replayfm/replay/internal/store"
)

// ExchangeCode exchanges an authorization code plus the stored verifier for a
// token bundle. The exchange fails closed when no verifier is on record: a
// code with no matching verifier cannot be trusted.
//
// On success the bundle and expiry are persisted together, the verifier is
// consumed, and the backend collaborator is notified with the raw payload.
func (m *Manager) ExchangeCode(ctx context.Context, code string) (string, error) {
	if code == "" {
		m.logger.Error("code exchange requested without a code")
		return "", shared.ErrMissingCode
	}

	verifier, err := m.store.Get(store.KeyVerifier)
	if err != nil {
		m.logger.Error("code exchange requested without a stored verifier")
		return "", shared.ErrNoVerifier
	}

	form := url.Values{}
	form.Set("client_id", m.config.ClientID)
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", m.config.RedirectURL)
	form.Set("code_verifier", verifier)

	bundle, err := m.postToken(ctx, form)
	if err != nil {
		m.logger.Error("code exchange failed", "error", err)
		return "", err
	}

	if err := m.writeBundle(bundle); err != nil {
		return "", err
	}

	// The verifier is bound to the code just redeemed; it must not be
	// reusable for another exchange.
	if err := m.store.Delete(store.KeyVerifier); err != nil {
		m.logger.Warn("failed to clear consumed verifier", "error", err)
	}

	if m.backend != nil {
		if err := m.backend.CreateProfile(ctx, bundle.Raw()); err != nil {
			m.logger.Warn("backend profile creation failed", "error", err)
		}
	}

	m.logger.Info("session established", "expires_in", bundle.ExpiresIn)

	return bundle.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new bundle. On any
// failure the prior, now-expired bundle is left intact so the caller can
// decide to re-authorize.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	bundle, err := m.bundle()
	if err != nil {
		m.logger.Error("refresh requested without a prior session")
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if bundle.RefreshToken == "" {
		m.logger.Error("stored bundle carries no refresh token")
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, shared.ErrNoRefreshToken)
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", bundle.RefreshToken)
	form.Set("client_id", m.config.ClientID)

	fresh, err := m.postToken(ctx, form)
	if err != nil {
		m.logger.Error("token refresh failed", "error", err)
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if err := m.writeBundle(fresh); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	m.logger.Info("session refreshed", "expires_in", fresh.ExpiresIn)

	return fresh.AccessToken, nil
}

// postToken submits a form-encoded request to the provider token endpoint
// and parses the bundle. A response without an access token is a provider
// rejection regardless of status code.
func (m *Manager) postToken(ctx context.Context, form url.Values) (*TokenBundle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read token response: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: token endpoint returned status %d", shared.ErrAuthFailed, resp.StatusCode)
	}

	bundle, err := ParseTokenBundle(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if bundle.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", shared.ErrAuthFailed)
	}

	return bundle, nil
}
