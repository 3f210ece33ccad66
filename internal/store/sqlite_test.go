package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pairpad/pairpad/internal/room"
)

func setupSQLite(t *testing.T) (*SQLite, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "pairpad-store-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	s, err := NewSQLite(filepath.Join(tmpDir, "rooms.db"))
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to open store: %v", err)
	}

	cleanup := func() {
		s.Close()
		os.RemoveAll(tmpDir)
	}
	return s, cleanup
}

func TestSQLiteCreateDefaults(t *testing.T) {
	s, cleanup := setupSQLite(t)
	defer cleanup()

	r, err := s.Create("r1", nil, nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.Code != room.DefaultCode || r.Language != room.DefaultLanguage {
		t.Errorf("Defaults not applied: %q/%q", r.Code, r.Language)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	s, cleanup := setupSQLite(t)
	defer cleanup()

	if _, err := s.Create("r1", strPtr("int main() {}"), strPtr("cpp")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	r, err := s.Get("r1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if r.Code != "int main() {}" || r.Language != "cpp" {
		t.Errorf("Round trip mismatch: %q/%q", r.Code, r.Language)
	}
}

func TestSQLiteCreateIdempotent(t *testing.T) {
	s, cleanup := setupSQLite(t)
	defer cleanup()

	s.Create("r1", strPtr("original"), nil)
	r, err := s.Create("r1", strPtr("clobber"), nil)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if r.Code != "original" {
		t.Errorf("Second create must keep the existing row, got %q", r.Code)
	}
}

func TestSQLiteUpsertKeepsAbsentFields(t *testing.T) {
	s, cleanup := setupSQLite(t)
	defer cleanup()

	s.Create("r1", strPtr("A"), strPtr("js"))

	r, err := s.Upsert("r1", strPtr("B"), nil)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if r.Code != "B" || r.Language != "js" {
		t.Errorf("Expected B/js, got %q/%q", r.Code, r.Language)
	}
}

func TestSQLiteUpsertNotFound(t *testing.T) {
	s, cleanup := setupSQLite(t)
	defer cleanup()

	if _, err := s.Upsert("nope", strPtr("B"), nil); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteGetNotFound(t *testing.T) {
	s, cleanup := setupSQLite(t)
	defer cleanup()

	if _, err := s.Get("nope"); !errors.Is(err, room.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteLen(t *testing.T) {
	s, cleanup := setupSQLite(t)
	defer cleanup()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Create(id, nil, nil); err != nil {
			t.Fatalf("Create %s failed: %v", id, err)
		}
	}
	if s.Len() != 3 {
		t.Errorf("Expected 3 rooms, got %d", s.Len())
	}
}
