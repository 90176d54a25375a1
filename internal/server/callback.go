package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/shared"
)

// FlowResumer completes an authorization attempt with a callback code.
// Implemented by the auth session manager.
type FlowResumer interface {
	ResumeFlow(ctx context.Context, code string) (*models.Profile, error)
}

// CallbackResult contains the result of a completed authorization flow.
type CallbackResult struct {
	Profile *models.Profile
	err     error
}

func (r *CallbackResult) Error() error {
	return r.err
}

// CallbackHandler serves the /auth route the provider redirects back to
// after authorization. Implements the [Handler] interface.
type CallbackHandler struct {
	resumer     FlowResumer
	state       string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a callback handler that resumes the flow via
// resumer. state is the CSRF token issued when the flow began.
func NewCallbackHandler(resumer FlowResumer, state string) *CallbackHandler {
	return &CallbackHandler{
		resumer:    resumer,
		state:      state,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/auth"}
}

// ServeHTTP handles the provider redirect.
//
// Validates the state parameter, treats a provider error or missing code as
// a malformed callback, resumes the flow (code exchange + profile fetch),
// and sends the result through the result channel.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle the callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if state := r.URL.Query().Get("state"); state != h.state {
		h.Send(CallbackResult{err: shared.ErrStateMismatch})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		// The provider reports denial via an error parameter; either way
		// there is nothing to exchange and the flow must be restarted.
		if errParam := r.URL.Query().Get("error"); errParam != "" {
			h.Send(CallbackResult{err: fmt.Errorf("%w: provider reported %q", shared.ErrMissingCode, errParam)})
		} else {
			h.Send(CallbackResult{err: shared.ErrMissingCode})
		}
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	profile, err := h.resumer.ResumeFlow(r.Context(), code)
	if err != nil {
		h.Send(CallbackResult{err: err})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(CallbackResult{Profile: profile})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Login Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Login Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}
