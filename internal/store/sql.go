package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/XavierBriggs/Iris/pkg/contracts"
)

// sqlStore is the shared KVStore over database/sql; dialects supply the statements
type sqlStore struct {
	db         *sql.DB
	selectStmt string
	upsertStmt string
}

func (s *sqlStore) migrate(ctx context.Context, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *sqlStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.selectStmt, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (s *sqlStore) Save(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.upsertStmt, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
