package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Iris/internal/cache"
	"github.com/XavierBriggs/Iris/internal/credential"
	"github.com/XavierBriggs/Iris/internal/filter"
	"github.com/XavierBriggs/Iris/internal/gateway"
	"github.com/XavierBriggs/Iris/internal/ratelimit"
	"github.com/XavierBriggs/Iris/internal/store"
	"github.com/XavierBriggs/Iris/pkg/models"
	"github.com/XavierBriggs/Iris/pkg/testutil"
	"github.com/XavierBriggs/Iris/sports/football"
)

var epoch = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type harness struct {
	dash    *Dashboard
	adapter *testutil.FakeAdapter
	limiter *ratelimit.Limiter
	clock   *testutil.Clock
	notices *testutil.Notices
}

func newHarness(t *testing.T, token string, used int) *harness {
	t.Helper()
	ctx := context.Background()
	clock := testutil.NewClock(epoch)
	s := store.NewMemoryStore()

	if used > 0 {
		data, err := json.Marshal(models.QuotaState{Count: used, ResetTime: epoch.Add(45 * time.Minute)})
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, ratelimit.StoreKey, data))
	}

	creds := credential.Load(ctx, s)
	if token != "" {
		require.NoError(t, creds.Set(ctx, token))
	}

	h := &harness{
		adapter: testutil.NewFakeAdapter(),
		limiter: ratelimit.New(ctx, s, ratelimit.Options{Limit: 180, Window: time.Hour, Now: clock.Now}),
		clock:   clock,
		notices: testutil.NewNotices(),
	}
	gw := gateway.New(h.adapter, h.limiter, cache.New(ctx, s, cache.DefaultTTL, clock.Now), creds, h.notices)
	h.dash = New(gw, football.NewModule(), h.notices, clock.Now)
	return h
}

func leaguesPayload(n int) []byte {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":%d,"name":"League %d","country":{"name":"Country %d"}}`, i+1, i+1, i+1)
	}
	return []byte(`{"data":[` + strings.Join(items, ",") + `]}`)
}

func (h *harness) scriptDefaults() {
	h.adapter.Respond("fixtures", testutil.FixturesPayload(
		testutil.NewTestFixture(1, "Alpha", "Beta", 1, "live", epoch.Add(2*time.Hour)),
		testutil.NewTestFixture(2, "Gamma", "Delta", 2, "NS", epoch.Add(26*time.Hour)),
	))
	h.adapter.Respond("leagues", leaguesPayload(60))
}

func TestLoadInitial_LoadsBothCollections(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.scriptDefaults()

	require.NoError(t, h.dash.LoadInitial(context.Background()))

	assert.Len(t, h.dash.Fixtures(), 2)
	assert.Len(t, h.dash.Leagues(), 50, "league list is capped")
	assert.Equal(t, "1", h.dash.Leagues()[0].Key())
	assert.Equal(t, 2, h.limiter.State().Count)
	assert.Contains(t, h.notices.Titles(), "Data refreshed")

	calls := h.adapter.Calls()
	require.Len(t, calls, 2)
	for _, c := range calls {
		switch c.Endpoint {
		case "fixtures":
			assert.Equal(t, "2026-10-19", c.Params["filter[date]"])
			assert.Equal(t, "participants,league,venue,scores,state", c.Params["include"])
		case "leagues":
			assert.Equal(t, "country", c.Params["include"])
		default:
			t.Fatalf("unexpected endpoint %s", c.Endpoint)
		}
	}
}

func TestLoadInitial_SkippedWithoutCredential(t *testing.T) {
	h := newHarness(t, "", 0)
	h.scriptDefaults()

	require.NoError(t, h.dash.LoadInitial(context.Background()))
	assert.Equal(t, 0, h.adapter.CallCount(""))
	assert.Empty(t, h.notices.All())
}

func TestLoadInitial_SkippedWhenQuotaSpent(t *testing.T) {
	h := newHarness(t, "tok", 180)
	h.scriptDefaults()

	require.NoError(t, h.dash.LoadInitial(context.Background()))
	assert.Equal(t, 0, h.adapter.CallCount(""))
}

func TestLoadFixtures_NotifiesCount(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.scriptDefaults()

	require.NoError(t, h.dash.LoadFixtures(context.Background()))

	notices := h.notices.All()
	require.Len(t, notices, 1)
	assert.Equal(t, models.NoticeInfo, notices[0].Level)
	assert.Equal(t, "2 matches loaded", notices[0].Message)
	assert.Equal(t, epoch, h.dash.Stats().LastRefresh)
}

func TestLoadFixtures_EmptyEnvelopeKeepsCollection(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.scriptDefaults()
	ctx := context.Background()
	require.NoError(t, h.dash.LoadFixtures(ctx))

	h.adapter.Respond("fixtures", []byte(`{"message":"no data"}`))
	h.clock.Advance(cache.DefaultTTL)
	require.NoError(t, h.dash.LoadFixtures(ctx))

	assert.Len(t, h.dash.Fixtures(), 2)
}

func TestLoadFixtures_UpstreamErrorKeepsCollection(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.scriptDefaults()
	ctx := context.Background()
	require.NoError(t, h.dash.LoadFixtures(ctx))

	h.adapter.Fail("fixtures", errors.New("connection reset"))
	h.clock.Advance(cache.DefaultTTL)
	err := h.dash.LoadFixtures(ctx)

	assert.True(t, errors.Is(err, gateway.ErrUpstream))
	assert.Len(t, h.dash.Fixtures(), 2)
}

func TestRefresh_DeniedEmitsNoticeWithoutDispatch(t *testing.T) {
	h := newHarness(t, "tok", 180)
	h.scriptDefaults()

	err := h.dash.Refresh(context.Background())

	assert.True(t, errors.Is(err, gateway.ErrQuotaExceeded))
	assert.Equal(t, 0, h.adapter.CallCount(""))
	assert.Equal(t, []string{"Rate limit reached"}, h.notices.Titles())
}

func TestRefresh_WithinTTLServedFromCache(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.scriptDefaults()
	ctx := context.Background()

	require.NoError(t, h.dash.Refresh(ctx))
	require.NoError(t, h.dash.Refresh(ctx))

	assert.Equal(t, 1, h.adapter.CallCount("fixtures"))
	assert.Equal(t, 1, h.limiter.State().Count)
}

func TestAutoRefresh(t *testing.T) {
	h := newHarness(t, "", 0)
	h.scriptDefaults()
	ctx := context.Background()

	require.NoError(t, h.dash.AutoRefresh(ctx))
	assert.Equal(t, 0, h.adapter.CallCount(""))

	require.NoError(t, h.dash.SetCredential(ctx, "tok"))
	assert.Equal(t, 1, h.adapter.CallCount("fixtures"), "setting a credential triggers the initial load")

	h.clock.Advance(5 * time.Minute)
	require.NoError(t, h.dash.AutoRefresh(ctx))
	assert.Equal(t, 2, h.adapter.CallCount("fixtures"))
}

func TestFilterAndVisible(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.scriptDefaults()
	require.NoError(t, h.dash.LoadFixtures(context.Background()))

	assert.Equal(t, filter.DefaultConfig(), h.dash.Filter())
	require.Len(t, h.dash.Visible(), 1, "only Alpha vs Beta is today")

	require.NoError(t, h.dash.UpdateFilter(func(c *filter.Config) { c.Period = filter.PeriodAll }))
	assert.Len(t, h.dash.Visible(), 2)

	require.NoError(t, h.dash.UpdateFilter(func(c *filter.Config) { c.Status = "NS" }))
	visible := h.dash.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Gamma", visible[0].HomeName())

	assert.Error(t, h.dash.SetFilter(filter.Config{Period: "month"}))

	h.dash.ResetFilter()
	assert.Equal(t, filter.DefaultConfig(), h.dash.Filter())
}

func TestStats(t *testing.T) {
	h := newHarness(t, "tok", 10)
	h.scriptDefaults()
	require.NoError(t, h.dash.LoadInitial(context.Background()))

	stats := h.dash.Stats()
	assert.Equal(t, "Football", stats.Sport)
	assert.Equal(t, 168, stats.RequestsRemaining)
	assert.Equal(t, 180, stats.RequestLimit)
	assert.Equal(t, 45, stats.MinutesUntilReset)
	assert.Equal(t, 2, stats.TotalFixtures)
	assert.Equal(t, 1, stats.VisibleFixtures)
	assert.Equal(t, 50, stats.TotalLeagues)
	assert.True(t, stats.CredentialSet)
}

func TestRollover_PublishesUpdate(t *testing.T) {
	h := newHarness(t, "tok", 180)
	ctx := context.Background()

	assert.False(t, h.dash.Rollover(ctx))

	h.clock.Advance(45 * time.Minute)
	assert.True(t, h.dash.Rollover(ctx))
	assert.Equal(t, 180, h.dash.Stats().RequestsRemaining)

	select {
	case <-h.dash.Updates():
	default:
		t.Fatal("expected an update signal")
	}
}

func TestRollover_SignalsWithoutRollover(t *testing.T) {
	h := newHarness(t, "tok", 180)
	ctx := context.Background()
	assert.Equal(t, 45, h.dash.Stats().MinutesUntilReset)

	h.clock.Advance(20 * time.Minute)
	assert.False(t, h.dash.Rollover(ctx))

	select {
	case <-h.dash.Updates():
	default:
		t.Fatal("expected an update signal while the window is still open")
	}
	assert.Equal(t, 25, h.dash.Stats().MinutesUntilReset)
	assert.Equal(t, 0, h.dash.Stats().RequestsRemaining)
}

func TestLeagueOptions(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.adapter.Respond("leagues", leaguesPayload(2))
	require.NoError(t, h.dash.LoadLeagues(context.Background()))

	options := h.dash.LeagueOptions()
	require.Len(t, options, 3)
	assert.Equal(t, "League 1 (Country 1)", options[1].Label)
}

func TestLoadFixtures_TracksChanges(t *testing.T) {
	h := newHarness(t, "tok", 0)
	h.scriptDefaults()
	ctx := context.Background()

	require.NoError(t, h.dash.LoadFixtures(ctx))
	assert.Empty(t, h.dash.Changes(), "first load has no baseline")

	h.adapter.Respond("fixtures", testutil.FixturesPayload(
		testutil.NewTestFixture(1, "Alpha", "Beta", 1, "finished", epoch.Add(2*time.Hour)),
		testutil.NewTestFixture(2, "Gamma", "Delta", 2, "NS", epoch.Add(26*time.Hour)),
	))
	h.clock.Advance(cache.DefaultTTL)
	require.NoError(t, h.dash.LoadFixtures(ctx))

	changes := h.dash.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, int64(1), changes[0].Fixture.ID)
	assert.Equal(t, "live", changes[0].OldState)
	assert.Equal(t, 1, h.dash.Stats().ChangedFixtures)
}
