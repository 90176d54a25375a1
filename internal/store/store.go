// package store provides the persistent credential store backing the
// session record: PKCE verifier, token bundle, expiry, cached profile and
// the index of the currently displayed snapshot.
package store

import "errors"

// Persisted keys of the session record.
const (
	KeyVerifier      = "verifier"
	KeyAccessToken   = "access_token"
	KeyExpire        = "expire"
	KeyProfile       = "profile"
	KeySnapshotIndex = "snapshot_index"
)

// ErrNotFound is returned by Get when a key has never been set or was cleared.
var ErrNotFound = errors.New("key not found")

// SessionStore is the synchronous key-value store the auth core reads and
// writes. Implementations must survive process restarts except where
// documented (the in-memory store exists for tests).
type SessionStore interface {
	// Get returns the stored value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Clear wipes the entire session record.
	Clear() error
}
