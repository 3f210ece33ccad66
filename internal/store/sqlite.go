package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/pairpad/pairpad/internal/room"
)

// SQLite is a durable room.Store, substitutable for Memory via the
// --store-path flag. SQLite serializes writers, so per-room update
// atomicity holds without extra locking.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		language TEXT NOT NULL,
		last_updated INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	zap.L().Info("sqlite store initialized", zap.String("path", path))
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Create(id string, code, language *string) (room.Room, error) {
	c, l := room.DefaultCode, room.DefaultLanguage
	if code != nil {
		c = *code
	}
	if language != nil {
		l = *language
	}

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO rooms (id, code, language, last_updated) VALUES (?, ?, ?, ?)",
		id, c, l, room.Now(),
	)
	if err != nil {
		return room.Room{}, err
	}

	return s.Get(id)
}

func (s *SQLite) Get(id string) (room.Room, error) {
	row := s.db.QueryRow(
		"SELECT id, code, language, last_updated FROM rooms WHERE id = ?",
		id,
	)

	var r room.Room
	err := row.Scan(&r.ID, &r.Code, &r.Language, &r.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return room.Room{}, room.ErrNotFound
	}
	if err != nil {
		return room.Room{}, err
	}
	return r, nil
}

func (s *SQLite) Upsert(id string, code, language *string) (room.Room, error) {
	// COALESCE keeps the stored value when a candidate is absent and
	// MAX keeps last_updated monotonic.
	res, err := s.db.Exec(`
		UPDATE rooms SET
			code = COALESCE(?, code),
			language = COALESCE(?, language),
			last_updated = MAX(last_updated, ?)
		WHERE id = ?
	`, code, language, room.Now(), id)
	if err != nil {
		return room.Room{}, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return room.Room{}, err
	}
	if affected == 0 {
		return room.Room{}, room.ErrNotFound
	}

	return s.Get(id)
}

// Len reports how many rooms exist. Used by stats.
func (s *SQLite) Len() int {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&count); err != nil {
		return 0
	}
	return count
}
