package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/replayfm/replay/internal/auth"
	"github.com/replayfm/replay/internal/formatter"
	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/shared"
	"github.com/urfave/cli/v3"
)

// ensureSession validates the stored session and installs its access token
// on the stats provider. Fails when no session exists rather than starting
// a browser flow mid-command.
func (r *Runner) ensureSession(ctx context.Context) error {
	if r.manager == nil {
		return fmt.Errorf("%w: spotify client_id not configured", shared.ErrMissingConfig)
	}

	outcome, err := r.manager.EnsureValid(ctx, "")
	if err != nil {
		return fmt.Errorf("session validation failed: %w", err)
	}

	if outcome.Status == auth.StatusRedirect {
		return fmt.Errorf("%w: run 'replay auth login' first", shared.ErrNotAuthenticated)
	}

	token, err := r.manager.AccessToken()
	if err != nil {
		return err
	}

	return r.spotify.Authenticate(ctx, token)
}

// StatsRecent shows the user's recently played tracks from Spotify.
func (r *Runner) StatsRecent(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	limit := cmd.Int("limit")

	plays, err := r.spotify.RecentlyPlayed(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch play history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(plays, true)
	}

	r.writePlainHeader("Recently Played")
	if len(plays) == 0 {
		return r.writePlain("No plays on record\n")
	}

	return r.writePlain("%s", formatter.PlaysToText(plays))
}

// StatsTop shows the user's top tracks, artists and genres for a time range.
func (r *Runner) StatsTop(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureSession(ctx); err != nil {
		return err
	}

	limit := cmd.Int("limit")
	timeRange := cmd.String("range")

	tracks, err := r.spotify.TopTracks(ctx, limit, timeRange)
	if err != nil {
		return fmt.Errorf("failed to fetch top tracks: %w", err)
	}

	artists, err := r.spotify.TopArtists(ctx, limit, timeRange)
	if err != nil {
		return fmt.Errorf("failed to fetch top artists: %w", err)
	}

	genres, err := r.spotify.TopGenres(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to fetch top genres: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"tracks":  tracks,
			"artists": artists,
			"genres":  genres,
		}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Top Stats (%s)", timeRange))

	r.writePlainln("Tracks:")
	for i, track := range tracks {
		r.writePlain("%d. %s - %s\n", i+1, track.Artist, track.Title)
	}

	r.writePlainln("Artists:")
	for i, artist := range artists {
		r.writePlain("%d. %s\n", i+1, artist.Name)
	}

	if len(genres) > 0 {
		r.writePlainln("Genres: %s", strings.Join(genres, ", "))
	}

	return nil
}

// StatsSnapshots lists historical snapshots, from the backend or the local cache.
func (r *Runner) StatsSnapshots(ctx context.Context, cmd *cli.Command) error {
	var snapshots []*models.Snapshot

	if cmd.Bool("cached") {
		if r.snapshots == nil {
			return fmt.Errorf("%w: snapshot cache unavailable", shared.ErrServiceUnavailable)
		}
		cached, err := r.snapshots.List()
		if err != nil {
			return fmt.Errorf("failed to read snapshot cache: %w", err)
		}
		snapshots = cached
	} else {
		if r.backend == nil {
			return fmt.Errorf("%w: stats backend not configured", shared.ErrServiceUnavailable)
		}
		fetched, err := r.backend.ListSnapshots(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch snapshots: %w", err)
		}
		for i := range fetched {
			snapshots = append(snapshots, &fetched[i])
		}
		r.cacheSnapshots(snapshots)
	}

	if cmd.Bool("json") {
		return r.writeJSON(snapshots, true)
	}

	r.writePlainHeader("Snapshots")
	if len(snapshots) == 0 {
		return r.writePlain("No snapshots on record\n")
	}

	return r.writePlain("%s", formatter.SnapshotListToText(snapshots))
}

// StatsShow displays one snapshot in full. Defaults to the last viewed index
// and records the index it displays.
func (r *Runner) StatsShow(ctx context.Context, cmd *cli.Command) error {
	index := cmd.Int("index")
	if index < 0 {
		if r.manager != nil {
			index = r.manager.SnapshotIndex()
		} else {
			index = 0
		}
	}

	snapshot, err := r.loadSnapshot(ctx, index)
	if err != nil {
		return err
	}

	if r.manager != nil {
		if err := r.manager.SetSnapshotIndex(index); err != nil {
			r.logger.Warn("failed to record snapshot index", "error", err)
		}
	}

	if dir := cmd.String("export"); dir != "" {
		result, err := formatter.WriteMarkdownExport(snapshot, dir)
		if err != nil {
			return fmt.Errorf("failed to export snapshot: %w", err)
		}
		return r.writePlain("✓ Exported to %s\n", result.Directory)
	}

	if cmd.Bool("json") {
		data, err := formatter.ToJSON(snapshot)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", data)
	}

	r.writePlainHeader(fmt.Sprintf("Snapshot #%d", index))
	return r.writePlain("%s", formatter.SnapshotToText(snapshot))
}

// loadSnapshot fetches a snapshot from the backend, falling back to the local
// cache when the backend is unreachable.
func (r *Runner) loadSnapshot(ctx context.Context, index int) (*models.Snapshot, error) {
	if r.backend == nil {
		if r.snapshots == nil {
			return nil, fmt.Errorf("%w: stats backend not configured", shared.ErrServiceUnavailable)
		}
		return r.snapshots.Get(index)
	}

	snapshot, err := r.backend.GetSnapshot(ctx, index)
	if err == nil {
		if r.snapshots != nil {
			if cacheErr := r.snapshots.Upsert(index, snapshot); cacheErr != nil {
				r.logger.Warn("failed to cache snapshot", "error", cacheErr)
			}
		}
		return snapshot, nil
	}

	if errors.Is(err, shared.ErrSnapshotNotFound) || r.snapshots == nil {
		return nil, err
	}

	r.logger.Warn("backend unreachable, trying local cache", "error", err)

	cached, cacheErr := r.snapshots.Get(index)
	if cacheErr != nil {
		return nil, err
	}
	return cached, nil
}

// cacheSnapshots writes fetched snapshots into the local cache, best effort.
func (r *Runner) cacheSnapshots(snapshots []*models.Snapshot) {
	if r.snapshots == nil {
		return
	}
	for i, snapshot := range snapshots {
		if err := r.snapshots.Upsert(i, snapshot); err != nil {
			r.logger.Warn("failed to cache snapshot", "index", i, "error", err)
			return
		}
	}
}
