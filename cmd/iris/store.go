package main

import (
	"context"
	"fmt"

	"github.com/XavierBriggs/Iris/internal/config"
	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/internal/store"
	"github.com/XavierBriggs/Iris/pkg/contracts"
)

// openStore builds the backend selected by cfg.Backend
func openStore(ctx context.Context, cfg config.StoreConfig) (contracts.KVStore, error) {
	log := logger.Component("store").WithFields(logger.Fields{"backend": cfg.Backend})

	var (
		s   contracts.KVStore
		err error
	)
	switch cfg.Backend {
	case config.StoreMemory:
		s = store.NewMemoryStore()
	case config.StoreFile:
		s, err = store.NewFileStore(cfg.DataDir)
	case config.StoreRedis:
		s, err = store.DialRedis(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	case config.StorePostgres:
		s, err = store.OpenPostgres(ctx, cfg.PostgresDSN)
	case config.StoreSQLite:
		s, err = store.OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("store opened")
	return s, nil
}
