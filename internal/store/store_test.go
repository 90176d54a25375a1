package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/replayfm/replay/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// exerciseStore runs the shared contract every SessionStore must satisfy.
func exerciseStore(t *testing.T, s SessionStore) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get("missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetGet", func(t *testing.T) {
		if err := s.Set(KeyVerifier, "some-verifier"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		value, err := s.Get(KeyVerifier)
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if value != "some-verifier" {
			t.Errorf("expected some-verifier, got %s", value)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := s.Set(KeyVerifier, "replacement"); err != nil {
			t.Fatalf("failed to overwrite: %v", err)
		}

		value, _ := s.Get(KeyVerifier)
		if value != "replacement" {
			t.Errorf("expected replacement, got %s", value)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete(KeyVerifier); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := s.Get(KeyVerifier); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("DeleteMissingIsNoOp", func(t *testing.T) {
		if err := s.Delete("never-set"); err != nil {
			t.Errorf("deleting a missing key should not fail: %v", err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s.Set(KeyAccessToken, "bundle")
		s.Set(KeyExpire, "12345")
		s.Set(KeyProfile, "{}")

		if err := s.Clear(); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		for _, key := range []string{KeyAccessToken, KeyExpire, KeyProfile} {
			if _, err := s.Get(key); !errors.Is(err, ErrNotFound) {
				t.Errorf("key %s survived clear", key)
			}
		}
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	exerciseStore(t, NewSQLiteStore(db))
}

func TestSQLiteStorePersistsAcrossInstances(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first := NewSQLiteStore(db)
	if err := first.Set(KeyAccessToken, "bundle"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	second := NewSQLiteStore(db)
	value, err := second.Get(KeyAccessToken)
	if err != nil {
		t.Fatalf("failed to get from second instance: %v", err)
	}
	if value != "bundle" {
		t.Errorf("expected bundle, got %s", value)
	}
}
