package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	rollovers atomic.Int32
	refreshes atomic.Int32
	failing   bool
}

func (c *counter) Rollover(ctx context.Context) bool {
	c.rollovers.Add(1)
	return true
}

func (c *counter) AutoRefresh(ctx context.Context) error {
	c.refreshes.Add(1)
	if c.failing {
		return errors.New("upstream down")
	}
	return nil
}

func TestScheduler_TicksBothJobs(t *testing.T) {
	c := &counter{}
	s := NewScheduler(c, c, Options{RolloverInterval: 5 * time.Millisecond, RefreshInterval: 10 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return c.rollovers.Load() >= 2 && c.refreshes.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopHaltsTicks(t *testing.T) {
	c := &counter{failing: true}
	s := NewScheduler(c, c, Options{RolloverInterval: 5 * time.Millisecond, RefreshInterval: 5 * time.Millisecond})
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return c.refreshes.Load() >= 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	after := c.rollovers.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, c.rollovers.Load())
}

func TestScheduler_ContextCancelStops(t *testing.T) {
	c := &counter{}
	s := NewScheduler(c, nil, Options{RolloverInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	cancel()
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(0), c.refreshes.Load())
}

func TestScheduler_StartTwice(t *testing.T) {
	c := &counter{}
	s := NewScheduler(c, c, Options{})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Error(t, s.Start(context.Background()))
	assert.Equal(t, DefaultRolloverInterval, s.opts.RolloverInterval)
	assert.Equal(t, DefaultRefreshInterval, s.opts.RefreshInterval)
}
