package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Iris/adapters/sportmonks"
	"github.com/XavierBriggs/Iris/internal/cache"
	"github.com/XavierBriggs/Iris/internal/credential"
	"github.com/XavierBriggs/Iris/internal/ratelimit"
	"github.com/XavierBriggs/Iris/internal/store"
	"github.com/XavierBriggs/Iris/pkg/models"
	"github.com/XavierBriggs/Iris/pkg/testutil"
)

var epoch = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

var fixturesParams = map[string]string{"filter[date]": "2026-10-19", "include": "participants"}

// countingStore records every access after construction
type countingStore struct {
	*store.MemoryStore
	loads, saves atomic.Int32
}

func (s *countingStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.loads.Add(1)
	return s.MemoryStore.Load(ctx, key)
}

func (s *countingStore) Save(ctx context.Context, key string, value []byte) error {
	s.saves.Add(1)
	return s.MemoryStore.Save(ctx, key, value)
}

type harness struct {
	gw      *Gateway
	adapter *testutil.FakeAdapter
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	clock   *testutil.Clock
	notices *testutil.Notices
	store   *countingStore
}

func newHarness(t *testing.T, token string, used int) *harness {
	t.Helper()
	ctx := context.Background()
	clock := testutil.NewClock(epoch)
	s := &countingStore{MemoryStore: store.NewMemoryStore()}

	if used > 0 {
		data, err := json.Marshal(models.QuotaState{Count: used, ResetTime: epoch.Add(30 * time.Minute)})
		require.NoError(t, err)
		require.NoError(t, s.MemoryStore.Save(ctx, ratelimit.StoreKey, data))
	}

	creds := credential.Load(ctx, s)
	if token != "" {
		require.NoError(t, creds.Set(ctx, token))
	}

	h := &harness{
		adapter: testutil.NewFakeAdapter(),
		limiter: ratelimit.New(ctx, s, ratelimit.Options{Limit: 180, Window: time.Hour, Now: clock.Now}),
		cache:   cache.New(ctx, s, cache.DefaultTTL, clock.Now),
		clock:   clock,
		notices: testutil.NewNotices(),
		store:   s,
	}
	h.gw = New(h.adapter, h.limiter, h.cache, creds, h.notices)
	return h
}

func TestRequest_MissingCredential(t *testing.T) {
	h := newHarness(t, "", 0)
	loads, saves := h.store.loads.Load(), h.store.saves.Load()

	_, err := h.gw.Request(context.Background(), "fixtures", fixturesParams)

	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Equal(t, 0, h.adapter.CallCount(""))
	assert.Equal(t, 0, h.limiter.State().Count)
	assert.Equal(t, 0, h.cache.Len())
	assert.Equal(t, loads, h.store.loads.Load())
	assert.Equal(t, saves, h.store.saves.Load())
	assert.Equal(t, []string{"API key missing"}, h.notices.Titles())
}

func TestRequest_SecondIdenticalRequestServedFromCache(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Respond("fixtures", []byte(`{"data":[]}`))
	ctx := context.Background()

	first, err := h.gw.Request(ctx, "fixtures", fixturesParams)
	require.NoError(t, err)

	reordered := map[string]string{"include": "participants", "filter[date]": "2026-10-19"}
	second, err := h.gw.Request(ctx, "fixtures", reordered)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, 1, h.adapter.CallCount("fixtures"))
	assert.Equal(t, 1, h.limiter.State().Count)
	assert.Equal(t, 179, h.gw.RemainingQuota())
	assert.Empty(t, h.notices.All())
}

func TestRequest_InjectsCredential(t *testing.T) {
	h := newHarness(t, "secret", 0)
	h.adapter.Respond("leagues", []byte(`{"data":[]}`))

	_, err := h.gw.Request(context.Background(), "leagues", map[string]string{"include": "country"})
	require.NoError(t, err)

	calls := h.adapter.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "secret", calls[0].Token)
	assert.Equal(t, "country", calls[0].Params["include"])
}

func TestRequest_LastUnitThenDenied(t *testing.T) {
	h := newHarness(t, "tok", 179)
	h.adapter.Respond("fixtures", []byte(`{"data":[]}`))
	h.adapter.Respond("leagues", []byte(`{"data":[]}`))
	ctx := context.Background()

	_, err := h.gw.Request(ctx, "fixtures", fixturesParams)
	require.NoError(t, err)
	assert.Equal(t, 180, h.limiter.State().Count)

	_, err = h.gw.Request(ctx, "leagues", nil)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.Equal(t, 0, h.adapter.CallCount("leagues"))
	assert.Equal(t, []string{"Rate limit reached"}, h.notices.Titles())

	// cached responses are still served with the quota spent
	_, err = h.gw.Request(ctx, "fixtures", fixturesParams)
	require.NoError(t, err)
	assert.Equal(t, 1, h.adapter.CallCount("fixtures"))
	assert.Equal(t, 180, h.limiter.State().Count)
}

func TestRequest_WindowElapsedAdmitsAgain(t *testing.T) {
	h := newHarness(t, "tok", 180)
	h.adapter.Respond("fixtures", []byte(`{"data":[]}`))

	h.clock.Advance(31 * time.Minute)
	_, err := h.gw.Request(context.Background(), "fixtures", fixturesParams)
	require.NoError(t, err)

	assert.Equal(t, 1, h.limiter.State().Count)
	assert.Equal(t, 60, h.gw.MinutesUntilReset())
}

func TestRequest_UpstreamErrorConsumesNothing(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Fail("fixtures", &sportmonks.HTTPError{StatusCode: 500, Message: "boom"})
	ctx := context.Background()

	_, err := h.gw.Request(ctx, "fixtures", fixturesParams)
	require.Error(t, err)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 500, upstream.StatusCode)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Equal(t, "API error: 500", err.Error())

	assert.Equal(t, 1, h.adapter.CallCount("fixtures"), "no retry")
	assert.Equal(t, 0, h.limiter.State().Count)
	assert.Equal(t, 0, h.cache.Len())
	assert.Equal(t, []string{"API error"}, h.notices.Titles())

	// failures are not cached, the next request dispatches again
	_, err = h.gw.Request(ctx, "fixtures", fixturesParams)
	require.Error(t, err)
	assert.Equal(t, 2, h.adapter.CallCount("fixtures"))
}

func TestRequest_TransportErrorHasNoStatus(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Fail("fixtures", errors.New("dial tcp: connection refused"))

	_, err := h.gw.Request(context.Background(), "fixtures", fixturesParams)

	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 0, upstream.StatusCode)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRequest_InvalidJSONIsUpstreamError(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Respond("fixtures", []byte(`<html>maintenance</html>`))

	_, err := h.gw.Request(context.Background(), "fixtures", fixturesParams)

	assert.True(t, errors.Is(err, ErrUpstream))
	assert.Equal(t, 0, h.limiter.State().Count)
	assert.Equal(t, 0, h.cache.Len())
}

func TestRequest_StaleCacheRefetches(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Respond("fixtures", []byte(`{"data":[]}`))
	ctx := context.Background()

	_, err := h.gw.Request(ctx, "fixtures", fixturesParams)
	require.NoError(t, err)

	h.clock.Advance(cache.DefaultTTL)
	_, err = h.gw.Request(ctx, "fixtures", fixturesParams)
	require.NoError(t, err)

	assert.Equal(t, 2, h.adapter.CallCount("fixtures"))
	assert.Equal(t, 2, h.limiter.State().Count)
}

func TestRequest_ConcurrentIdenticalRequestsDispatchOnce(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Respond("fixtures", []byte(`{"data":[]}`))
	h.adapter.Block = make(chan struct{})

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.gw.Request(context.Background(), "fixtures", fixturesParams)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return h.adapter.CallCount("fixtures") == 1 },
		time.Second, 5*time.Millisecond)
	close(h.adapter.Block)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, h.adapter.CallCount("fixtures"))
	assert.Equal(t, 1, h.limiter.State().Count)
}

func TestRequest_CancelledCallerDoesNotFailJoinedCallers(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Respond("fixtures", []byte(`{"data":[]}`))
	h.adapter.Block = make(chan struct{})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := h.gw.Request(first, "fixtures", fixturesParams)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return h.adapter.CallCount("fixtures") == 1 },
		time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	secondErr := make(chan error, 1)
	go func() {
		_, err := h.gw.Request(context.Background(), "fixtures", fixturesParams)
		secondErr <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(h.adapter.Block)

	assert.NoError(t, <-secondErr)
	assert.Equal(t, 1, h.adapter.CallCount("fixtures"))
	assert.Equal(t, 1, h.limiter.State().Count)
	assert.Empty(t, h.notices.All())
}

func TestRequest_UnsupportedEndpoint(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Reject("odds")
	loads, saves := h.store.loads.Load(), h.store.saves.Load()

	_, err := h.gw.Request(context.Background(), "odds", nil)

	assert.ErrorIs(t, err, ErrUnsupportedEndpoint)
	assert.Equal(t, 0, h.adapter.CallCount(""))
	assert.Equal(t, 0, h.limiter.State().Count)
	assert.Equal(t, loads, h.store.loads.Load())
	assert.Equal(t, saves, h.store.saves.Load())
}

func TestFixtures_Decodes(t *testing.T) {
	h := newHarness(t, "tok", 0)
	kickoff := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	h.adapter.Respond("fixtures", testutil.FixturesPayload(
		testutil.NewTestFixture(1, "Alpha", "Beta", 8, "NS", kickoff),
		testutil.NewTestFixture(2, "Gamma", "Delta", 9, "NS", kickoff),
	))

	fixtures, err := h.gw.Fixtures(context.Background(), "fixtures", fixturesParams)
	require.NoError(t, err)
	require.Len(t, fixtures, 2)
	assert.Equal(t, "Gamma", fixtures[1].HomeName())
}

func TestFixtures_NoDataIsMalformed(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Respond("fixtures", []byte(`{"message":"ok"}`))

	_, err := h.gw.Fixtures(context.Background(), "fixtures", fixturesParams)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.Equal(t, 1, h.limiter.State().Count, "the dispatch itself succeeded")
}

func TestSetCredential_IgnoresEmpty(t *testing.T) {
	h := newHarness(t, "tok", 0)
	ctx := context.Background()

	require.NoError(t, h.gw.SetCredential(ctx, ""))
	assert.Equal(t, "tok", h.gw.Credential())

	require.NoError(t, h.gw.SetCredential(ctx, "new"))
	assert.Equal(t, "new", h.gw.Credential())

	require.NoError(t, h.gw.ClearCredential(ctx))
	assert.False(t, h.gw.HasCredential())
}

func TestAdmitCheck(t *testing.T) {
	h := newHarness(t, "tok", 180)
	assert.False(t, h.gw.AdmitCheck(context.Background()))
	assert.Equal(t, 0, h.gw.RemainingQuota())

	h.clock.Advance(30 * time.Minute)
	assert.True(t, h.gw.AdmitCheck(context.Background()))
	assert.Equal(t, 180, h.gw.RemainingQuota())
}
