package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/shared"
	"github.com/replayfm/replay/internal/store"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL    = "https://accounts.spotify.com/authorize"
	spotifyTokenURL   = "https://accounts.spotify.com/api/token"
	spotifyProfileURL = "https://api.spotify.com/v1/me"
)

// Scopes requested during authorization.
var Scopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
	"user-read-recently-played",
}

// ProfileCreator is the remote collaborator notified when a new session is
// established. Implemented by the stats backend client.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, tokenPayload []byte) error
}

// Status describes the outcome of a session validation pass.
type Status int

const (
	// StatusValid: an unexpired token bundle is on record; nothing was done.
	StatusValid Status = iota
	// StatusRefreshed: the expired bundle was exchanged for a fresh one.
	StatusRefreshed
	// StatusEstablished: a callback code was exchanged into a new session.
	StatusEstablished
	// StatusRedirect: no session exists; the caller must navigate the user
	// to the returned authorize URL.
	StatusRedirect
	// StatusFailed: a transition was required and did not complete.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusRefreshed:
		return "refreshed"
	case StatusEstablished:
		return "established"
	case StatusRedirect:
		return "redirect required"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FlowState carries the parameters of an in-flight authorization attempt.
type FlowState struct {
	AuthURL string
	State   string
}

// Outcome is the result of [Manager.EnsureValid]. Flow is non-nil only when
// Status is [StatusRedirect].
type Outcome struct {
	Status Status
	Flow   *FlowState
}

// Manager orchestrates the PKCE flow and session lifecycle around the
// credential store. The store is the only shared mutable state; at most one
// validation pass runs at a time per Manager.
type Manager struct {
	store      store.SessionStore
	config     *oauth2.Config
	client     *http.Client
	logger     *log.Logger
	backend    ProfileCreator
	now        func() time.Time
	profileURL string
	inflight   atomic.Bool
}

// ManagerOpts contains dependencies for creating a [Manager].
type ManagerOpts struct {
	Store       store.SessionStore
	ClientID    string
	RedirectURI string
	HTTPClient  *http.Client
	Logger      *log.Logger
	Backend     ProfileCreator // optional; skipped when nil
	Now         func() time.Time
}

// NewManager creates a session [Manager] with the provided dependencies.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: session store is required", shared.ErrInvalidArgument)
	}
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id must be set", shared.ErrMissingCredentials)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	config := &oauth2.Config{
		ClientID:    opts.ClientID,
		RedirectURL: opts.RedirectURI,
		Scopes:      Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Manager{
		store:      opts.Store,
		config:     config,
		client:     opts.HTTPClient,
		logger:     opts.Logger,
		backend:    opts.Backend,
		now:        opts.Now,
		profileURL: spotifyProfileURL,
	}, nil
}

// BeginFlow starts a fresh authorization attempt: wipes the session record,
// generates and stores a new verifier, and builds the authorize URL carrying
// the derived challenge. The caller performs the navigation.
//
// Clearing first prevents an abandoned flow from being completed later with
// mismatched verifier or token state.
func (m *Manager) BeginFlow(ctx context.Context) (*FlowState, error) {
	if err := m.store.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear session record: %w", err)
	}

	verifier, err := GenerateVerifier(VerifierLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verifier: %w", err)
	}

	if err := m.store.Set(store.KeyVerifier, verifier); err != nil {
		return nil, fmt.Errorf("failed to store verifier: %w", err)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := m.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge_method", MethodS256),
		oauth2.SetAuthURLParam("code_challenge", DeriveChallenge(verifier)),
	)

	m.logger.Info("authorization flow started", "redirect_uri", m.config.RedirectURL)

	return &FlowState{AuthURL: authURL, State: state}, nil
}

// ResumeFlow completes an authorization attempt with the code delivered to
// the callback route: exchanges it for tokens and fetches the profile.
func (m *Manager) ResumeFlow(ctx context.Context, code string) (*models.Profile, error) {
	token, err := m.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return m.FetchProfile(ctx, token)
}

// EnsureValid inspects the session record and drives the next required
// transition. It is idempotent: with a valid unexpired bundle it performs no
// network calls and no writes. Callers invoke it unconditionally before any
// protected operation.
//
// A concurrent invocation fails with [shared.ErrValidationInFlight] rather
// than racing the store.
func (m *Manager) EnsureValid(ctx context.Context, code string) (Outcome, error) {
	if !m.inflight.CompareAndSwap(false, true) {
		return Outcome{Status: StatusFailed}, shared.ErrValidationInFlight
	}
	defer m.inflight.Store(false)

	expiresAt, hasBundle := m.expiry()

	if hasBundle {
		if m.now().UnixMilli() >= expiresAt {
			token, err := m.Refresh(ctx)
			if err != nil {
				return Outcome{Status: StatusFailed}, err
			}
			if _, err := m.FetchProfile(ctx, token); err != nil {
				// Session tokens are fresh; only the cached profile is stale.
				m.logger.Warn("profile fetch after refresh failed", "error", err)
				return Outcome{Status: StatusRefreshed}, err
			}
			return Outcome{Status: StatusRefreshed}, nil
		}
		return Outcome{Status: StatusValid}, nil
	}

	_, verifierErr := m.store.Get(store.KeyVerifier)
	hasVerifier := verifierErr == nil

	if !hasVerifier || code == "" {
		// Fresh login, or an abandoned/invalid callback: restart the flow.
		flow, err := m.BeginFlow(ctx)
		if err != nil {
			return Outcome{Status: StatusFailed}, err
		}
		return Outcome{Status: StatusRedirect, Flow: flow}, nil
	}

	if _, err := m.ResumeFlow(ctx, code); err != nil {
		return Outcome{Status: StatusFailed}, err
	}
	return Outcome{Status: StatusEstablished}, nil
}

// Clear wipes the session record (logout).
func (m *Manager) Clear() error {
	return m.store.Clear()
}

// Info describes the observable session state for status reporting.
type Info struct {
	HasBundle   bool
	HasVerifier bool
	ExpiresAt   time.Time
	Expired     bool
	Profile     *models.Profile
}

// Info reports the current session state without side effects.
func (m *Manager) Info() Info {
	info := Info{}

	expiresAt, hasBundle := m.expiry()
	info.HasBundle = hasBundle
	if hasBundle {
		info.ExpiresAt = time.UnixMilli(expiresAt)
		info.Expired = m.now().UnixMilli() >= expiresAt
	}

	if _, err := m.store.Get(store.KeyVerifier); err == nil {
		info.HasVerifier = true
	}

	if profile, err := m.Profile(); err == nil {
		info.Profile = profile
	}

	return info
}

// Profile returns the cached profile from the session record.
func (m *Manager) Profile() (*models.Profile, error) {
	data, err := m.store.Get(store.KeyProfile)
	if err != nil {
		return nil, fmt.Errorf("%w: no cached profile", shared.ErrNotAuthenticated)
	}

	var profile models.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to parse cached profile: %w", err)
	}

	return &profile, nil
}

// AccessToken returns the access token of the stored bundle, if any.
func (m *Manager) AccessToken() (string, error) {
	bundle, err := m.bundle()
	if err != nil {
		return "", err
	}
	return bundle.AccessToken, nil
}

// SnapshotIndex returns the index of the currently displayed snapshot,
// defaulting to 0.
func (m *Manager) SnapshotIndex() int {
	value, err := m.store.Get(store.KeySnapshotIndex)
	if err != nil {
		return 0
	}
	index, err := strconv.Atoi(value)
	if err != nil || index < 0 {
		return 0
	}
	return index
}

// SetSnapshotIndex records the index of the snapshot being displayed.
func (m *Manager) SetSnapshotIndex(index int) error {
	if index < 0 {
		return fmt.Errorf("%w: snapshot index must be >= 0", shared.ErrInvalidArgument)
	}
	return m.store.Set(store.KeySnapshotIndex, strconv.Itoa(index))
}

// bundle reads and parses the stored token bundle.
func (m *Manager) bundle() (*TokenBundle, error) {
	data, err := m.store.Get(store.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: no token bundle stored", shared.ErrNoSession)
	}
	return ParseTokenBundle([]byte(data))
}

// expiry reads the stored expiry; hasBundle is true only when both the
// bundle and its expiry are on record, since they are written together.
func (m *Manager) expiry() (expiresAt int64, hasBundle bool) {
	if _, err := m.store.Get(store.KeyAccessToken); err != nil {
		return 0, false
	}

	value, err := m.store.Get(store.KeyExpire)
	if err != nil {
		return 0, false
	}

	expiresAt, err = strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}

	return expiresAt, true
}

// writeBundle persists a token response and its computed expiry. The two
// keys are written together; a partial write is rolled back.
func (m *Manager) writeBundle(bundle *TokenBundle) error {
	expiresAt := m.now().Add(time.Duration(bundle.ExpiresIn-1) * time.Second).UnixMilli()

	if err := m.store.Set(store.KeyAccessToken, string(bundle.Raw())); err != nil {
		return fmt.Errorf("failed to store token bundle: %w", err)
	}
	if err := m.store.Set(store.KeyExpire, strconv.FormatInt(expiresAt, 10)); err != nil {
		m.store.Delete(store.KeyAccessToken)
		return fmt.Errorf("failed to store token expiry: %w", err)
	}

	return nil
}
