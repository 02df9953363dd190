package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates a Store in a temporary directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatal("database file should not exist before creating store")
	}

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"settings", "rounds"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Settings().Set(KeyPlayerName, "Asha"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	got, err := s.Settings().Get(KeyPlayerName)
	if err != nil || got != "Asha" {
		t.Errorf("Get after reopen = %q, %v", got, err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
	if err := s.DB().Ping(); err == nil {
		t.Error("database should be closed")
	}
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	t.Run("missing key", func(t *testing.T) {
		_, err := repo.Get("nope")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set and overwrite", func(t *testing.T) {
		if err := repo.Set(KeyPlayerName, "one"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if err := repo.Set(KeyPlayerName, "two"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := repo.Get(KeyPlayerName)
		if err != nil || got != "two" {
			t.Errorf("Get = %q, %v; want two", got, err)
		}
	})

	t.Run("bool defaults", func(t *testing.T) {
		if !repo.Bool(KeySoundEnabled, true) {
			t.Error("missing key should return default true")
		}
		if err := repo.SetBool(KeySoundEnabled, false); err != nil {
			t.Fatalf("SetBool: %v", err)
		}
		if repo.Bool(KeySoundEnabled, true) {
			t.Error("stored false should win over default")
		}
		if err := repo.Set(KeyVoiceEnabled, "maybe"); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if !repo.Bool(KeyVoiceEnabled, true) {
			t.Error("unparseable value should fall back to default")
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := repo.Delete(KeyPlayerName); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.Get(KeyPlayerName); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(KeyPlayerName); err != nil {
			t.Errorf("deleting a missing key should not fail: %v", err)
		}
	})
}

func TestRoundRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Rounds()

	if _, err := repo.Best("Asha"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Best with no rounds: expected ErrNotFound, got %v", err)
	}

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, score := range []int{40, 120, 75} {
		rd := &Round{Player: "Asha", Mode: "face", Score: score, WordsCaught: i, PlayedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Record(rd); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if rd.ID == 0 {
			t.Error("Record should set ID")
		}
	}

	best, err := repo.Best("Asha")
	if err != nil || best != 120 {
		t.Errorf("Best = %d, %v; want 120", best, err)
	}

	recent, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Score != 75 || recent[1].Score != 120 {
		t.Errorf("Recent(2) = %+v, want scores [75 120]", recent)
	}
}
