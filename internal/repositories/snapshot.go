package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/replayfm/replay/internal/models"
	"github.com/replayfm/replay/internal/shared"
)

// SnapshotRepository caches backend snapshots in SQLite, keyed by their
// position in the backend's history (0 is most recent).
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert inserts or replaces the cached snapshot at the given index.
func (r *SnapshotRepository) Upsert(idx int, snapshot *models.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	genres, err := json.Marshal(snapshot.TopGenres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}
	songs, err := json.Marshal(snapshot.TopSongs)
	if err != nil {
		return fmt.Errorf("failed to encode songs: %w", err)
	}
	artists, err := json.Marshal(snapshot.TopArtists)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}

	sequence, err := NextSequence(r.db, "snapshots")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO snapshots (id, sequence, idx, date, username, avatar_url, listening_time, top_genres, top_songs, top_artists, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idx) DO UPDATE SET
			date = excluded.date,
			username = excluded.username,
			avatar_url = excluded.avatar_url,
			listening_time = excluded.listening_time,
			top_genres = excluded.top_genres,
			top_songs = excluded.top_songs,
			top_artists = excluded.top_artists
	`

	_, err = r.db.Exec(query,
		shared.GenerateID(),
		sequence,
		idx,
		snapshot.Date,
		snapshot.Username,
		snapshot.AvatarURL,
		snapshot.ListeningTime,
		string(genres),
		string(songs),
		string(artists),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// Get retrieves the cached snapshot at the given index.
func (r *SnapshotRepository) Get(idx int) (*models.Snapshot, error) {
	query := `
		SELECT date, username, avatar_url, listening_time, top_genres, top_songs, top_artists
		FROM snapshots
		WHERE idx = ?
	`

	return r.scanOne(r.db.QueryRow(query, idx))
}

// List retrieves all cached snapshots ordered by index (most recent first).
func (r *SnapshotRepository) List() ([]*models.Snapshot, error) {
	query := `
		SELECT date, username, avatar_url, listening_time, top_genres, top_songs, top_artists
		FROM snapshots
		ORDER BY idx ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.Snapshot
	for rows.Next() {
		snapshot, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return snapshots, nil
}

// Count returns the number of cached snapshots.
func (r *SnapshotRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Clear removes all cached snapshots. Called on logout.
func (r *SnapshotRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// scanOne scans a single row into a [models.Snapshot]
func (r *SnapshotRepository) scanOne(row *sql.Row) (*models.Snapshot, error) {
	var (
		date          string
		username      string
		avatarURL     string
		listeningTime int64
		genresJSON    string
		songsJSON     string
		artistsJSON   string
	)

	err := row.Scan(&date, &username, &avatarURL, &listeningTime, &genresJSON, &songsJSON, &artistsJSON)
	if err == sql.ErrNoRows {
		return nil, shared.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	return decodeSnapshot(date, username, avatarURL, listeningTime, genresJSON, songsJSON, artistsJSON)
}

// scanRow scans a row from [sql.Rows] into a [models.Snapshot]
func (r *SnapshotRepository) scanRow(rows *sql.Rows) (*models.Snapshot, error) {
	var (
		date          string
		username      string
		avatarURL     string
		listeningTime int64
		genresJSON    string
		songsJSON     string
		artistsJSON   string
	)

	err := rows.Scan(&date, &username, &avatarURL, &listeningTime, &genresJSON, &songsJSON, &artistsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	return decodeSnapshot(date, username, avatarURL, listeningTime, genresJSON, songsJSON, artistsJSON)
}

func decodeSnapshot(date, username, avatarURL string, listeningTime int64, genresJSON, songsJSON, artistsJSON string) (*models.Snapshot, error) {
	snapshot := models.Snapshot{
		Date:          date,
		Username:      username,
		AvatarURL:     avatarURL,
		ListeningTime: listeningTime,
	}

	if err := json.Unmarshal([]byte(genresJSON), &snapshot.TopGenres); err != nil {
		return nil, fmt.Errorf("failed to decode genres: %w", err)
	}
	if err := json.Unmarshal([]byte(songsJSON), &snapshot.TopSongs); err != nil {
		return nil, fmt.Errorf("failed to decode songs: %w", err)
	}
	if err := json.Unmarshal([]byte(artistsJSON), &snapshot.TopArtists); err != nil {
		return nil, fmt.Errorf("failed to decode artists: %w", err)
	}

	return &snapshot, nil
}
