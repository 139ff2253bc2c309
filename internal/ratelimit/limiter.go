// Package ratelimit tracks the client-side hourly request budget.
//
// The budget is a fixed window: Count requests are allowed until ResetTime, after
// which the window rolls over lazily on the next check (or on the scheduler's
// periodic Rollover call). State is persisted after every mutation.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/pkg/models"
)

const (
	// StoreKey is where the quota state is persisted
	StoreKey = "sportmonks_request_count"

	DefaultLimit  = 180
	DefaultWindow = time.Hour
)

// Options configures a Limiter
type Options struct {
	Limit  int
	Window time.Duration
	Now    func() time.Time
}

// Limiter decides admission against the quota window
type Limiter struct {
	store  contracts.KVStore
	limit  int
	window time.Duration
	now    func() time.Time
	log    *logger.Entry

	mu    sync.Mutex
	state models.QuotaState
}

// New creates a limiter and loads persisted state.
// Missing or malformed state starts a fresh window.
func New(ctx context.Context, store contracts.KVStore, opts Options) *Limiter {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Limiter{
		store:  store,
		limit:  opts.Limit,
		window: opts.Window,
		now:    opts.Now,
		log:    logger.Component("ratelimit"),
	}
	l.state = l.load(ctx)
	return l
}

func (l *Limiter) load(ctx context.Context) models.QuotaState {
	fresh := models.QuotaState{Count: 0, ResetTime: l.now().Add(l.window)}

	raw, err := l.store.Load(ctx, StoreKey)
	if errors.Is(err, contracts.ErrNotFound) {
		return fresh
	}
	if err != nil {
		l.log.WithError(err).Warn("failed to load quota state, starting fresh window")
		return fresh
	}

	var state models.QuotaState
	if err := json.Unmarshal(raw, &state); err != nil || state.Count < 0 {
		l.log.WithError(err).Warn("malformed quota state, starting fresh window")
		return fresh
	}
	return state
}

// persist must be called with mu held
func (l *Limiter) persist(ctx context.Context) {
	data, err := json.Marshal(l.state)
	if err != nil {
		l.log.WithError(err).Error("marshal quota state")
		return
	}
	if err := l.store.Save(ctx, StoreKey, data); err != nil {
		l.log.WithError(err).Warn("failed to persist quota state")
	}
}

// rollover must be called with mu held
func (l *Limiter) rollover(ctx context.Context, now time.Time) bool {
	if now.Before(l.state.ResetTime) {
		return false
	}
	l.state = models.QuotaState{Count: 0, ResetTime: now.Add(l.window)}
	l.persist(ctx)
	l.log.WithFields(logger.Fields{"reset_time": l.state.ResetTime}).Debug("quota window rolled over")
	return true
}

// Admit reports whether a new outbound call may proceed now.
// If the window has elapsed it is reset first, and the call is admitted.
// Admit never consumes quota; see RecordHit.
func (l *Limiter) Admit(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rollover(ctx, l.now()) {
		return true
	}
	return l.state.Count < l.limit
}

// RecordHit consumes one unit of quota. Called only after a real network dispatch.
func (l *Limiter) RecordHit(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Count++
	l.persist(ctx)
}

// Rollover resets an elapsed window without evaluating admission.
// Returns true when a reset happened.
func (l *Limiter) Rollover(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rollover(ctx, l.now())
}

// Remaining returns max(0, limit - count)
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.remaining()
}

func (l *Limiter) remaining() int {
	if r := l.limit - l.state.Count; r > 0 {
		return r
	}
	return 0
}

// MinutesUntilReset returns max(0, ceil((resetTime - now) / 1m))
func (l *Limiter) MinutesUntilReset() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.minutesUntilReset(l.now())
}

func (l *Limiter) minutesUntilReset(now time.Time) int {
	left := l.state.ResetTime.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Minutes()))
}

// Limit returns the configured requests per window
func (l *Limiter) Limit() int {
	return l.limit
}

// State returns a copy of the current quota state
func (l *Limiter) State() models.QuotaState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state
}

// Snapshot returns the quota figures shown to the presentation layer
func (l *Limiter) Snapshot() models.RateLimits {
	l.mu.Lock()
	defer l.mu.Unlock()

	return models.RateLimits{
		Limit:             l.limit,
		RequestsUsed:      l.state.Count,
		RequestsRemaining: l.remaining(),
		MinutesUntilReset: l.minutesUntilReset(l.now()),
		ResetTime:         l.state.ResetTime,
	}
}
