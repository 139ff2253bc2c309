package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/XavierBriggs/Iris/pkg/contracts"
)

const defaultPostgresTable = "iris_kv"

// PostgresStore keeps values in a single key/value table
type PostgresStore struct {
	sqlStore
}

var _ contracts.KVStore = (*PostgresStore)(nil)

// OpenPostgres connects, pings and creates the table if missing
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s, err := newPostgresStore(ctx, db, defaultPostgresTable)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(ctx context.Context, db *sql.DB, table string) (*PostgresStore, error) {
	ident := pq.QuoteIdentifier(table)
	s := &PostgresStore{sqlStore{
		db:         db,
		selectStmt: fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, ident),
		upsertStmt: fmt.Sprintf(`
			INSERT INTO %s (key, value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, ident),
	}}

	if err := s.migrate(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, ident)); err != nil {
		return nil, err
	}
	return s, nil
}
