package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/XavierBriggs/Iris/pkg/contracts"
)

// SQLiteStore keeps values in a local SQLite database file
type SQLiteStore struct {
	sqlStore
}

var _ contracts.KVStore = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database file in WAL mode
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{sqlStore{
		db:         db,
		selectStmt: `SELECT value FROM kv WHERE key = ?`,
		upsertStmt: `
			INSERT INTO kv (key, value, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE
			SET value = excluded.value, updated_at = excluded.updated_at`,
	}}

	if err := s.migrate(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
