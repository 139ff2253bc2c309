// Package credential holds the Sportmonks API token and persists it to the KV store.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/pkg/contracts"
)

// StoreKey is where the token is persisted, as plain text
const StoreKey = "sportmonks_api_key"

// ErrEmpty is returned when an empty token is set
var ErrEmpty = errors.New("credential is empty")

// Holder owns the current token. An empty token means "not set".
type Holder struct {
	store contracts.KVStore
	log   *logger.Entry

	mu    sync.RWMutex
	token string
}

// Load creates a holder from the persisted token, if any
func Load(ctx context.Context, store contracts.KVStore) *Holder {
	h := &Holder{
		store: store,
		log:   logger.Component("credential"),
	}

	raw, err := store.Load(ctx, StoreKey)
	switch {
	case errors.Is(err, contracts.ErrNotFound):
	case err != nil:
		h.log.WithError(err).Warn("failed to load credential")
	default:
		h.token = strings.TrimSpace(string(raw))
	}
	return h
}

// Get returns the token, or "" when none is set
func (h *Holder) Get() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.token
}

// IsSet reports whether a non-empty token is held
func (h *Holder) IsSet() bool {
	return h.Get() != ""
}

// Set replaces the token and persists it. Empty tokens are rejected and leave the
// current one in place.
func (h *Holder) Set(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmpty
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Save(ctx, StoreKey, []byte(token)); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	h.token = token
	return nil
}

// Use sets the token for this process only. The store is not touched.
func (h *Holder) Use(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmpty
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.token = token
	return nil
}

// Clear removes the token
func (h *Holder) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.store.Save(ctx, StoreKey, []byte{}); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	h.token = ""
	return nil
}

// Masked renders the token for display, keeping only the last four characters
func (h *Holder) Masked() string {
	token := h.Get()
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", len(token)-4) + token[len(token)-4:]
}
