package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/pkg/models"
)

const (
	// StoreKey is where the whole cache mapping is persisted
	StoreKey = "sportmonks_cache"

	DefaultTTL = 5 * time.Minute
)

// Cache maps request signatures to their most recent response.
// Expired entries stay stored and read as misses until overwritten.
type Cache struct {
	store contracts.KVStore
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Entry

	mu      sync.RWMutex
	entries map[string]models.CacheEntry
}

// New creates a cache and loads persisted entries.
// A malformed persisted mapping starts empty.
func New(ctx context.Context, store contracts.KVStore, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}

	c := &Cache{
		store:   store,
		ttl:     ttl,
		now:     now,
		log:     logger.Component("cache"),
		entries: make(map[string]models.CacheEntry),
	}
	c.load(ctx)
	return c
}

func (c *Cache) load(ctx context.Context) {
	raw, err := c.store.Load(ctx, StoreKey)
	if errors.Is(err, contracts.ErrNotFound) {
		return
	}
	if err != nil {
		c.log.WithError(err).Warn("failed to load cache, starting empty")
		return
	}

	var entries map[string]models.CacheEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.log.WithError(err).Warn("malformed cache, starting empty")
		return
	}
	for sig, entry := range entries {
		c.entries[sig] = entry
	}
}

// Get returns the payload for sig if it was fetched less than TTL ago
func (c *Cache) Get(sig string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[sig]
	if !ok || c.now().Sub(entry.FetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.Payload, true
}

// Put stores payload under sig with the current time, overwriting any prior entry,
// and persists the whole mapping.
func (c *Cache) Put(ctx context.Context, sig string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[sig] = models.CacheEntry{
		Payload:   append(json.RawMessage(nil), payload...),
		FetchedAt: c.now(),
	}

	data, err := json.Marshal(c.entries)
	if err != nil {
		c.log.WithError(err).Error("marshal cache")
		return
	}
	if err := c.store.Save(ctx, StoreKey, data); err != nil {
		c.log.WithError(err).Warn("failed to persist cache")
	}
}

// Len returns the number of stored entries, fresh or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Fresh returns the number of entries still inside the TTL
func (c *Cache) Fresh() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	n := 0
	for _, entry := range c.entries {
		if now.Sub(entry.FetchedAt) < c.ttl {
			n++
		}
	}
	return n
}
