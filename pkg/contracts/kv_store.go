package contracts

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KVStore.Load when a key has never been saved
var ErrNotFound = errors.New("key not found")

// KVStore is the durable, process-local key-value store holding the credential,
// the quota state and the response cache. Values are JSON documents.
type KVStore interface {
	// Load returns the stored value or ErrNotFound
	Load(ctx context.Context, key string) ([]byte, error)

	// Save overwrites the value stored under key
	Save(ctx context.Context, key string, value []byte) error

	// Close releases the backend's resources
	Close() error
}
