package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/replayfm/replay/internal/auth"
	"github.com/replayfm/replay/internal/server"
	"github.com/replayfm/replay/internal/shared"
	"github.com/urfave/cli/v3"
)

// loginTimeout bounds how long the CLI waits for the provider redirect.
const loginTimeout = 2 * time.Minute

// AuthLogin validates the stored session, and when none exists drives the
// authorization flow: opens the authorize URL in a browser and serves the
// callback route until the redirect lands or the wait times out.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.manager == nil {
		return fmt.Errorf("%w: spotify client_id not configured", shared.ErrMissingConfig)
	}

	outcome, err := r.manager.EnsureValid(ctx, "")
	if err != nil {
		return fmt.Errorf("session validation failed: %w", err)
	}

	switch outcome.Status {
	case auth.StatusValid:
		r.writePlain("✓ Already logged in\n")
		if profile, err := r.manager.Profile(); err == nil {
			r.writePlain("Account: %s\n", profile.DisplayName)
		}
		return nil
	case auth.StatusRefreshed:
		r.writePlain("✓ Session refreshed\n")
		return nil
	case auth.StatusRedirect:
		return r.runLoginFlow(ctx, cmd, outcome.Flow)
	default:
		return fmt.Errorf("%w: unexpected state %s", shared.ErrAuthFailed, outcome.Status)
	}
}

// runLoginFlow serves the callback route and waits for the redirect.
func (r *Runner) runLoginFlow(ctx context.Context, cmd *cli.Command, flow *auth.FlowState) error {
	handler := server.NewCallbackHandler(r.manager, flow.State)

	router := server.NewBasicRouter()
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	r.logger.Info("waiting for authorization", "addr", addr)

	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to authorize:\n%s\n", flow.AuthURL)
	} else {
		r.writePlain("Opening browser to authorize...\n")
		if err := shared.OpenBrowser(flow.AuthURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			r.writePlain("Open this URL to authorize:\n%s\n", flow.AuthURL)
		}
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
		}
		r.writePlain("✓ Login successful\n")
		if result.Profile != nil {
			r.writePlain("Account: %s\n", result.Profile.DisplayName)
		}
		return nil
	case err := <-serverErr:
		return fmt.Errorf("callback server failed: %w", err)
	case <-time.After(loginTimeout):
		return fmt.Errorf("%w: no callback received within %s", shared.ErrTimeout, loginTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AuthStatus reports the observable session state without side effects.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.manager == nil {
		return fmt.Errorf("%w: spotify client_id not configured", shared.ErrMissingConfig)
	}

	info := r.manager.Info()

	r.writePlainHeader("Session Status")

	if !info.HasBundle {
		if info.HasVerifier {
			r.writePlain("✗ Authorization pending (restart with 'replay auth login')\n")
		} else {
			r.writePlain("✗ Not logged in\n")
		}
		return nil
	}

	if info.Expired {
		r.writePlain("⚠ Session expired (will refresh on next use)\n")
	} else {
		r.writePlain("✓ Logged in\n")
		r.writePlain("Expires: %s\n", info.ExpiresAt.Format(time.RFC1123))
	}

	if info.Profile != nil {
		r.writePlain("Account: %s", info.Profile.DisplayName)
		if info.Profile.Email != "" {
			r.writePlain(" <%s>", info.Profile.Email)
		}
		r.writePlain("\n")
		if info.Profile.Product != "" {
			r.writePlain("Plan: %s\n", info.Profile.Product)
		}
	}

	return nil
}

// AuthLogout wipes the stored session and the local snapshot cache.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.manager == nil {
		return fmt.Errorf("%w: spotify client_id not configured", shared.ErrMissingConfig)
	}

	if err := r.manager.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if r.snapshots != nil {
		if err := r.snapshots.Clear(); err != nil {
			r.logger.Warn("failed to clear snapshot cache", "error", err)
		}
	}

	r.logger.Info("session cleared")
	return r.writePlain("✓ Logged out\n")
}
