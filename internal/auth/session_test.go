package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/replayfm/replay/internal/shared"
	"github.com/replayfm/replay/internal/store"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// tokenResponse is the canonical successful token endpoint payload.
func tokenResponse(accessToken, refreshToken string) string {
	return fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","scope":"user-read-private","expires_in":3600,"refresh_token":%q}`,
		accessToken, refreshToken)
}

// newTokenServer serves the token endpoint, recording each submitted form.
func newTokenServer(t *testing.T, status int, body string, forms *[]url.Values) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse token form: %v", err)
		}
		if forms != nil {
			*forms = append(*forms, r.PostForm)
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

// newProfileServer serves the profile endpoint, recording bearer tokens.
func newProfileServer(t *testing.T, status int, body string, tokens *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tokens != nil {
			*tokens = append(*tokens, r.Header.Get("Authorization"))
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

// newTestManager builds a manager against a memory store and the given fake
// endpoints, with a fixed clock.
func newTestManager(t *testing.T, tokenURL, profileURL string) (*Manager, *store.MemoryStore) {
	t.Helper()

	memory := store.NewMemoryStore()
	manager, err := NewManager(ManagerOpts{
		Store:       memory,
		ClientID:    "test-client",
		RedirectURI: "http://127.0.0.1:8080/auth",
		Logger:      shared.NewLogger(io.Discard),
		Now:         func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	if tokenURL != "" {
		manager.config.Endpoint.TokenURL = tokenURL
	}
	if profileURL != "" {
		manager.profileURL = profileURL
	}

	return manager, memory
}

// seedBundle writes a token bundle and expiry directly into the store.
func seedBundle(t *testing.T, s *store.MemoryStore, refreshToken string, expiresAt time.Time) {
	t.Helper()

	bundle := tokenResponse("stored-token", refreshToken)
	if err := s.Set(store.KeyAccessToken, bundle); err != nil {
		t.Fatalf("failed to seed bundle: %v", err)
	}
	if err := s.Set(store.KeyExpire, strconv.FormatInt(expiresAt.UnixMilli(), 10)); err != nil {
		t.Fatalf("failed to seed expiry: %v", err)
	}
}

func TestBeginFlow(t *testing.T) {
	t.Run("WipesPriorSessionState", func(t *testing.T) {
		manager, memory := newTestManager(t, "", "")

		memory.Set(store.KeyVerifier, "stale-verifier")
		memory.Set(store.KeyAccessToken, "stale-bundle")
		memory.Set(store.KeyExpire, "12345")
		memory.Set(store.KeyProfile, "{}")

		flow, err := manager.BeginFlow(context.Background())
		if err != nil {
			t.Fatalf("failed to begin flow: %v", err)
		}
		if flow.AuthURL == "" || flow.State == "" {
			t.Fatal("flow missing auth URL or state")
		}

		if _, err := memory.Get(store.KeyAccessToken); err == nil {
			t.Error("stale bundle survived flow start")
		}
		if _, err := memory.Get(store.KeyExpire); err == nil {
			t.Error("stale expiry survived flow start")
		}

		verifier, err := memory.Get(store.KeyVerifier)
		if err != nil {
			t.Fatal("no verifier stored")
		}
		if verifier == "stale-verifier" {
			t.Error("verifier was not regenerated")
		}
		if len(verifier) != VerifierLength {
			t.Errorf("expected %d-character verifier, got %d", VerifierLength, len(verifier))
		}
	})

	t.Run("AuthURLCarriesChallenge", func(t *testing.T) {
		manager, memory := newTestManager(t, "", "")

		flow, err := manager.BeginFlow(context.Background())
		if err != nil {
			t.Fatalf("failed to begin flow: %v", err)
		}

		parsed, err := url.Parse(flow.AuthURL)
		if err != nil {
			t.Fatalf("invalid auth URL: %v", err)
		}

		query := parsed.Query()
		if got := query.Get("code_challenge_method"); got != MethodS256 {
			t.Errorf("expected method %s, got %s", MethodS256, got)
		}
		if got := query.Get("client_id"); got != "test-client" {
			t.Errorf("expected client_id test-client, got %s", got)
		}
		if got := query.Get("response_type"); got != "code" {
			t.Errorf("expected response_type code, got %s", got)
		}
		if got := query.Get("state"); got != flow.State {
			t.Errorf("state mismatch: URL %s, flow %s", got, flow.State)
		}

		verifier, _ := memory.Get(store.KeyVerifier)
		if got := query.Get("code_challenge"); got != DeriveChallenge(verifier) {
			t.Error("challenge does not match the stored verifier")
		}
	})
}

func TestEnsureValid(t *testing.T) {
	t.Run("FreshLoginRedirects", func(t *testing.T) {
		manager, memory := newTestManager(t, "", "")

		outcome, err := manager.EnsureValid(context.Background(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if outcome.Status != StatusRedirect {
			t.Fatalf("expected redirect, got %s", outcome.Status)
		}
		if outcome.Flow == nil {
			t.Fatal("redirect outcome missing flow state")
		}
		if _, err := memory.Get(store.KeyVerifier); err != nil {
			t.Error("no verifier stored for the new flow")
		}
	})

	t.Run("ValidSessionNoOp", func(t *testing.T) {
		var forms []url.Values
		tokenSrv := newTokenServer(t, http.StatusOK, tokenResponse("new", "rt"), &forms)
		defer tokenSrv.Close()

		manager, memory := newTestManager(t, tokenSrv.URL, "")
		seedBundle(t, memory, "rt", testNow.Add(30*time.Minute))

		outcome, err := manager.EnsureValid(context.Background(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Status != StatusValid {
			t.Fatalf("expected valid, got %s", outcome.Status)
		}
		if len(forms) != 0 {
			t.Errorf("expected no network calls, token endpoint hit %d times", len(forms))
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		manager, memory := newTestManager(t, "", "")
		seedBundle(t, memory, "rt", testNow.Add(30*time.Minute))

		for range 3 {
			outcome, err := manager.EnsureValid(context.Background(), "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome.Status != StatusValid {
				t.Fatalf("expected valid, got %s", outcome.Status)
			}
		}
	})

	t.Run("ExpiryBoundary", func(t *testing.T) {
		// A bundle expiring exactly now is expired; one millisecond later is not.
		manager, memory := newTestManager(t, "", "")
		seedBundle(t, memory, "rt", testNow.Add(time.Millisecond))

		outcome, err := manager.EnsureValid(context.Background(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Status != StatusValid {
			t.Errorf("bundle expiring after now should be valid, got %s", outcome.Status)
		}
	})

	t.Run("ExpiredSessionRefreshes", func(t *testing.T) {
		var forms []url.Values
		var tokens []string
		tokenSrv := newTokenServer(t, http.StatusOK, tokenResponse("fresh-token", "fresh-rt"), &forms)
		defer tokenSrv.Close()
		profileSrv := newProfileServer(t, http.StatusOK, `{"id":"user1","display_name":"User One"}`, &tokens)
		defer profileSrv.Close()

		manager, memory := newTestManager(t, tokenSrv.URL, profileSrv.URL)
		seedBundle(t, memory, "old-rt", testNow.Add(-time.Minute))

		outcome, err := manager.EnsureValid(context.Background(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Status != StatusRefreshed {
			t.Fatalf("expected refreshed, got %s", outcome.Status)
		}

		if len(forms) != 1 {
			t.Fatalf("expected one token call, got %d", len(forms))
		}
		if got := forms[0].Get("grant_type"); got != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %s", got)
		}
		if got := forms[0].Get("refresh_token"); got != "old-rt" {
			t.Errorf("expected stored refresh token, got %s", got)
		}

		expire, err := memory.Get(store.KeyExpire)
		if err != nil {
			t.Fatal("no expiry stored after refresh")
		}
		want := testNow.Add(3599 * time.Second).UnixMilli()
		if got, _ := strconv.ParseInt(expire, 10, 64); got != want {
			t.Errorf("expected expiry %d, got %d", want, got)
		}

		if len(tokens) != 1 || tokens[0] != "Bearer fresh-token" {
			t.Errorf("profile not refetched with the fresh token: %v", tokens)
		}
		if index, _ := memory.Get(store.KeySnapshotIndex); index != "0" {
			t.Errorf("expected snapshot index reset to 0, got %q", index)
		}
	})

	t.Run("RefreshFailureLeavesStoreUntouched", func(t *testing.T) {
		tokenSrv := newTokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`, nil)
		defer tokenSrv.Close()

		manager, memory := newTestManager(t, tokenSrv.URL, "")
		seedBundle(t, memory, "revoked-rt", testNow.Add(-time.Minute))

		before, _ := memory.Get(store.KeyAccessToken)
		beforeExpire, _ := memory.Get(store.KeyExpire)

		outcome, err := manager.EnsureValid(context.Background(), "")
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Fatalf("expected ErrRefreshFailed, got %v", err)
		}
		if outcome.Status != StatusFailed {
			t.Errorf("expected failed, got %s", outcome.Status)
		}

		after, _ := memory.Get(store.KeyAccessToken)
		afterExpire, _ := memory.Get(store.KeyExpire)
		if before != after || beforeExpire != afterExpire {
			t.Error("failed refresh mutated the stored session")
		}
	})

	t.Run("CallbackCodeEstablishesSession", func(t *testing.T) {
		var forms []url.Values
		tokenSrv := newTokenServer(t, http.StatusOK, tokenResponse("cb-token", "cb-rt"), &forms)
		defer tokenSrv.Close()
		profileSrv := newProfileServer(t, http.StatusOK, `{"id":"user1","display_name":"User One"}`, nil)
		defer profileSrv.Close()

		manager, memory := newTestManager(t, tokenSrv.URL, profileSrv.URL)
		memory.Set(store.KeyVerifier, "callback-verifier-callback-verifier-callback")

		outcome, err := manager.EnsureValid(context.Background(), "auth-code-123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Status != StatusEstablished {
			t.Fatalf("expected established, got %s", outcome.Status)
		}

		if got := forms[0].Get("grant_type"); got != "authorization_code" {
			t.Errorf("expected authorization_code grant, got %s", got)
		}
		if got := forms[0].Get("code"); got != "auth-code-123" {
			t.Errorf("expected callback code, got %s", got)
		}
		if got := forms[0].Get("code_verifier"); got != "callback-verifier-callback-verifier-callback" {
			t.Errorf("expected stored verifier, got %s", got)
		}
		if forms[0].Has("client_secret") {
			t.Error("public client must not send a client secret")
		}

		expire, _ := memory.Get(store.KeyExpire)
		want := testNow.Add(3599 * time.Second).UnixMilli()
		if got, _ := strconv.ParseInt(expire, 10, 64); got != want {
			t.Errorf("expected expiry %d, got %d", want, got)
		}

		if _, err := memory.Get(store.KeyVerifier); err == nil {
			t.Error("verifier was not consumed by the exchange")
		}
		if _, err := memory.Get(store.KeyProfile); err != nil {
			t.Error("profile was not cached")
		}
	})

	t.Run("VerifierWithoutCodeRestartsFlow", func(t *testing.T) {
		manager, memory := newTestManager(t, "", "")
		memory.Set(store.KeyVerifier, "abandoned-verifier")

		outcome, err := manager.EnsureValid(context.Background(), "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Status != StatusRedirect {
			t.Fatalf("expected redirect, got %s", outcome.Status)
		}

		verifier, err := memory.Get(store.KeyVerifier)
		if err != nil {
			t.Fatal("no verifier after restart")
		}
		if verifier == "abandoned-verifier" {
			t.Error("abandoned verifier was reused")
		}
	})

	t.Run("CodeWithoutVerifierRestartsFlow", func(t *testing.T) {
		manager, memory := newTestManager(t, "", "")

		outcome, err := manager.EnsureValid(context.Background(), "orphan-code")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if outcome.Status != StatusRedirect {
			t.Fatalf("expected redirect for a code with no verifier, got %s", outcome.Status)
		}
		if _, err := memory.Get(store.KeyAccessToken); err == nil {
			t.Error("an orphan code must never produce a session")
		}
	})

	t.Run("ConcurrentValidationRejected", func(t *testing.T) {
		manager, _ := newTestManager(t, "", "")
		manager.inflight.Store(true)

		_, err := manager.EnsureValid(context.Background(), "")
		if !errors.Is(err, shared.ErrValidationInFlight) {
			t.Fatalf("expected ErrValidationInFlight, got %v", err)
		}

		manager.inflight.Store(false)
		if _, err := manager.EnsureValid(context.Background(), ""); err != nil {
			t.Errorf("validation after release failed: %v", err)
		}
	})
}

func TestManagerInfo(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		manager, _ := newTestManager(t, "", "")

		info := manager.Info()
		if info.HasBundle || info.HasVerifier || info.Profile != nil {
			t.Errorf("expected empty info, got %+v", info)
		}
	})

	t.Run("ActiveSession", func(t *testing.T) {
		manager, memory := newTestManager(t, "", "")
		seedBundle(t, memory, "rt", testNow.Add(time.Hour))
		memory.Set(store.KeyProfile, `{"id":"user1","display_name":"User One"}`)

		info := manager.Info()
		if !info.HasBundle {
			t.Error("expected a bundle on record")
		}
		if info.Expired {
			t.Error("unexpired bundle reported expired")
		}
		if info.Profile == nil || info.Profile.ID != "user1" {
			t.Errorf("expected cached profile, got %+v", info.Profile)
		}
	})

	t.Run("ExpireWithoutBundleIgnored", func(t *testing.T) {
		manager, memory := newTestManager(t, "", "")
		memory.Set(store.KeyExpire, strconv.FormatInt(testNow.Add(time.Hour).UnixMilli(), 10))

		if info := manager.Info(); info.HasBundle {
			t.Error("expiry without a bundle must not count as a session")
		}
	})
}

func TestSnapshotIndex(t *testing.T) {
	manager, memory := newTestManager(t, "", "")

	t.Run("DefaultsToZero", func(t *testing.T) {
		if got := manager.SnapshotIndex(); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("RoundTrips", func(t *testing.T) {
		if err := manager.SetSnapshotIndex(4); err != nil {
			t.Fatalf("failed to set index: %v", err)
		}
		if got := manager.SnapshotIndex(); got != 4 {
			t.Errorf("expected 4, got %d", got)
		}
	})

	t.Run("RejectsNegative", func(t *testing.T) {
		if err := manager.SetSnapshotIndex(-1); err == nil {
			t.Error("expected error for negative index")
		}
	})

	t.Run("GarbageFallsBack", func(t *testing.T) {
		memory.Set(store.KeySnapshotIndex, "not-a-number")
		if got := manager.SnapshotIndex(); got != 0 {
			t.Errorf("expected fallback to 0, got %d", got)
		}
	})
}

func TestTokenBundle(t *testing.T) {
	t.Run("KeepsRawPayload", func(t *testing.T) {
		raw := tokenResponse("at", "rt")
		bundle, err := ParseTokenBundle([]byte(raw))
		if err != nil {
			t.Fatalf("failed to parse bundle: %v", err)
		}

		if string(bundle.Raw()) != raw {
			t.Error("raw payload was not preserved")
		}
		if bundle.AccessToken != "at" || bundle.RefreshToken != "rt" {
			t.Errorf("unexpected fields: %+v", bundle)
		}
		if bundle.ExpiresIn != 3600 {
			t.Errorf("expected expires_in 3600, got %d", bundle.ExpiresIn)
		}
	})

	t.Run("RejectsInvalidJSON", func(t *testing.T) {
		if _, err := ParseTokenBundle([]byte("not json")); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})
}

// The guard must be released after every pass regardless of interleaving.
func TestEnsureValidConcurrency(t *testing.T) {
	manager, memory := newTestManager(t, "", "")
	seedBundle(t, memory, "rt", testNow.Add(time.Hour))

	done := make(chan struct{})
	for range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			_, err := manager.EnsureValid(context.Background(), "")
			if err != nil && !errors.Is(err, shared.ErrValidationInFlight) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	for range 8 {
		<-done
	}

	if _, err := manager.EnsureValid(context.Background(), ""); err != nil {
		t.Fatalf("guard left held after concurrent passes: %v", err)
	}
}

func TestProfileParsing(t *testing.T) {
	manager, memory := newTestManager(t, "", "")

	payload := `{"id":"user1","display_name":"User One","email":"u@example.com","images":[{"url":"http://img/a.png"}]}`
	memory.Set(store.KeyProfile, payload)

	profile, err := manager.Profile()
	if err != nil {
		t.Fatalf("failed to read profile: %v", err)
	}
	if profile.DisplayName != "User One" {
		t.Errorf("unexpected display name %q", profile.DisplayName)
	}
	if profile.AvatarURL() != "http://img/a.png" {
		t.Errorf("unexpected avatar URL %q", profile.AvatarURL())
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("test payload invalid: %v", err)
	}
}
