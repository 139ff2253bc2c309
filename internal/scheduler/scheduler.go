package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/Iris/internal/logger"
)

const (
	DefaultRolloverInterval = 60 * time.Second
	DefaultRefreshInterval  = 5 * time.Minute
)

// QuotaWindow resets an elapsed quota window
type QuotaWindow interface {
	Rollover(ctx context.Context) bool
}

// Refresher reloads data on a timer
type Refresher interface {
	AutoRefresh(ctx context.Context) error
}

// Options configures the two tick intervals; zero values use the defaults
type Options struct {
	RolloverInterval time.Duration
	RefreshInterval  time.Duration
}

// Scheduler owns the background timers: the quota rollover check and the
// fixtures auto-refresh. Both stop on Stop or when the Start context ends.
type Scheduler struct {
	quota     QuotaWindow
	refresher Refresher
	opts      Options
	log       *logger.Entry

	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewScheduler creates a scheduler; refresher may be nil to run the rollover check only
func NewScheduler(quota QuotaWindow, refresher Refresher, opts Options) *Scheduler {
	if opts.RolloverInterval <= 0 {
		opts.RolloverInterval = DefaultRolloverInterval
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	return &Scheduler{
		quota:     quota,
		refresher: refresher,
		opts:      opts,
		log:       logger.Component("scheduler"),
		stopChan:  make(chan struct{}),
	}
}

// Start launches the timers. It returns an error if called twice.
func (s *Scheduler) Start(ctx context.Context) error {
	started := false
	s.startOnce.Do(func() { started = true })
	if !started {
		return fmt.Errorf("scheduler already started")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx, "rollover", s.opts.RolloverInterval, func() {
			if s.quota.Rollover(ctx) {
				s.log.Info("quota window reset")
			}
		})
	}()

	if s.refresher != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, "refresh", s.opts.RefreshInterval, func() {
				if err := s.refresher.AutoRefresh(ctx); err != nil {
					s.log.WithError(err).Warn("auto-refresh failed")
				}
			})
		}()
	}

	s.log.WithFields(logger.Fields{
		"rollover_interval": s.opts.RolloverInterval.String(),
		"refresh_interval":  s.opts.RefreshInterval.String(),
	}).Info("scheduler started")
	return nil
}

// Stop halts both timers and waits for an in-progress tick to finish.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, tick func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tick()
		case <-s.stopChan:
			s.log.WithFields(logger.Fields{"job": name}).Debug("stopped")
			return
		case <-ctx.Done():
			return
		}
	}
}
