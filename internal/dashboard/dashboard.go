// Package dashboard holds the presentation-facing state: the fixture and league
// collections, the active filter and the load/refresh operations that fill them.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/XavierBriggs/Iris/internal/delta"
	"github.com/XavierBriggs/Iris/internal/filter"
	"github.com/XavierBriggs/Iris/internal/gateway"
	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/pkg/models"
)

// Stats is the status panel: quota and collection sizes
type Stats struct {
	Sport             string
	RequestsRemaining int
	RequestLimit      int
	MinutesUntilReset int
	TotalFixtures     int
	VisibleFixtures   int
	TotalLeagues      int
	ChangedFixtures   int
	LastRefresh       time.Time
	CredentialSet     bool
}

// Dashboard owns the in-memory collections shown to the user
type Dashboard struct {
	gateway  *gateway.Gateway
	sport    contracts.SportModule
	notifier contracts.Notifier
	changes  *delta.Engine
	now      func() time.Time
	log      *logger.Entry

	mu          sync.RWMutex
	fixtures    []models.Fixture
	lastChanges []delta.Delta
	leagues     []models.League
	filter      filter.Config
	lastRefresh time.Time

	updates chan struct{}
}

// New creates a dashboard with the default filter and empty collections
func New(gw *gateway.Gateway, sport contracts.SportModule, notifier contracts.Notifier, now func() time.Time) *Dashboard {
	if notifier == nil {
		notifier = contracts.NotifierFunc(func(models.Notice) {})
	}
	if now == nil {
		now = time.Now
	}
	return &Dashboard{
		gateway:  gw,
		sport:    sport,
		notifier: notifier,
		changes:  delta.NewEngine(),
		now:      now,
		log:      logger.Component("dashboard").WithFields(logger.Fields{"sport": sport.GetSportKey()}),
		filter:   filter.DefaultConfig(),
		updates:  make(chan struct{}, 1),
	}
}

// Ready reports whether loads may run now: a credential is set and the quota admits
func (d *Dashboard) Ready(ctx context.Context) bool {
	return d.gateway.HasCredential() && d.gateway.AdmitCheck(ctx)
}

// LoadInitial loads fixtures and leagues concurrently. It does nothing when the
// dashboard is not Ready. Both loads run to completion; the first error is returned.
func (d *Dashboard) LoadInitial(ctx context.Context) error {
	if !d.Ready(ctx) {
		d.log.Debug("initial load skipped: no credential or quota")
		return nil
	}

	var g errgroup.Group
	g.Go(func() error { return d.LoadFixtures(ctx) })
	g.Go(func() error { return d.LoadLeagues(ctx) })
	return g.Wait()
}

// LoadFixtures fetches today's fixtures and replaces the collection.
// A payload without records leaves the collection unchanged.
func (d *Dashboard) LoadFixtures(ctx context.Context) error {
	day := d.now()
	fixtures, err := d.gateway.Fixtures(ctx, d.sport.GetFixturesEndpoint(), d.sport.GetFixtureParams(day))
	if errors.Is(err, gateway.ErrMalformedResponse) {
		d.log.WithError(err).Debug("fixtures payload had no records")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	invalid := 0
	for _, f := range fixtures {
		if err := d.sport.ValidateFixture(f); err != nil {
			invalid++
			d.log.WithError(err).Debug("fixture failed validation")
		}
	}
	if invalid > 0 {
		d.log.WithFields(logger.Fields{"invalid": invalid, "total": len(fixtures)}).
			Warn("fixtures with missing fields kept with defaults")
	}

	// the first load has nothing to compare against
	var changes []delta.Delta
	if d.changes.Primed() {
		changes = d.changes.DetectChanges(fixtures)
	}
	d.changes.Update(fixtures)

	d.mu.Lock()
	d.fixtures = fixtures
	d.lastChanges = changes
	d.lastRefresh = d.now()
	d.mu.Unlock()

	d.notifier.Notify(models.Notice{
		Level:   models.NoticeInfo,
		Title:   "Data refreshed",
		Message: fmt.Sprintf("%d matches loaded", len(fixtures)),
	})
	d.publish()
	return nil
}

// Changes returns the fixtures whose score or state changed in the last load
func (d *Dashboard) Changes() []delta.Delta {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]delta.Delta(nil), d.lastChanges...)
}

// LoadLeagues fetches the league list and keeps the first GetLeagueLimit entries
func (d *Dashboard) LoadLeagues(ctx context.Context) error {
	leagues, err := d.gateway.Leagues(ctx, d.sport.GetLeaguesEndpoint(), d.sport.GetLeagueParams())
	if errors.Is(err, gateway.ErrMalformedResponse) {
		d.log.WithError(err).Debug("leagues payload had no records")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load leagues: %w", err)
	}

	if limit := d.sport.GetLeagueLimit(); limit > 0 && len(leagues) > limit {
		leagues = leagues[:limit]
	}

	d.mu.Lock()
	d.leagues = leagues
	d.mu.Unlock()

	d.publish()
	return nil
}

// Refresh is the user-triggered reload. When the quota does not admit, it emits
// a notice and dispatches nothing.
func (d *Dashboard) Refresh(ctx context.Context) error {
	if !d.gateway.AdmitCheck(ctx) {
		d.notifier.Notify(models.Notice{
			Level:   models.NoticeDestructive,
			Title:   "Rate limit reached",
			Message: "Please wait for the next refresh.",
		})
		return gateway.ErrQuotaExceeded
	}
	return d.LoadFixtures(ctx)
}

// AutoRefresh reloads fixtures when Ready and is silent otherwise
func (d *Dashboard) AutoRefresh(ctx context.Context) error {
	if !d.Ready(ctx) {
		d.log.Debug("auto-refresh skipped")
		return nil
	}
	return d.LoadFixtures(ctx)
}

// Rollover resets an elapsed quota window and reports whether it did. Updates is
// signalled either way so idle views redraw the reset countdown.
func (d *Dashboard) Rollover(ctx context.Context) bool {
	rolled := d.gateway.RolloverQuota(ctx)
	d.publish()
	return rolled
}

// SetCredential stores a new token and runs the initial load with it.
// An empty token is ignored.
func (d *Dashboard) SetCredential(ctx context.Context, token string) error {
	if err := d.gateway.SetCredential(ctx, token); err != nil {
		return err
	}
	d.publish()
	return d.LoadInitial(ctx)
}

// SetFilter replaces the filter configuration
func (d *Dashboard) SetFilter(cfg filter.Config) error {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	d.filter = cfg
	d.mu.Unlock()

	d.publish()
	return nil
}

// UpdateFilter applies fn to a copy of the current filter and stores the result
func (d *Dashboard) UpdateFilter(fn func(*filter.Config)) error {
	cfg := d.Filter()
	fn(&cfg)
	return d.SetFilter(cfg)
}

// ResetFilter restores the default filter
func (d *Dashboard) ResetFilter() {
	d.mu.Lock()
	d.filter = filter.DefaultConfig()
	d.mu.Unlock()

	d.publish()
}

// Filter returns the active filter
func (d *Dashboard) Filter() filter.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.filter
}

// Fixtures returns a copy of the full fixture collection
func (d *Dashboard) Fixtures() []models.Fixture {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]models.Fixture(nil), d.fixtures...)
}

// Leagues returns a copy of the league collection
func (d *Dashboard) Leagues() []models.League {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]models.League(nil), d.leagues...)
}

// LeagueOptions returns the league selector entries for the loaded leagues
func (d *Dashboard) LeagueOptions() []filter.LeagueOption {
	return filter.LeagueOptions(d.Leagues())
}

// Visible returns the fixtures passing the active filter
func (d *Dashboard) Visible() []models.Fixture {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return filter.Apply(d.fixtures, d.filter, d.now())
}

// Stats returns the figures for the status panel
func (d *Dashboard) Stats() Stats {
	quota := d.gateway.Quota()

	d.mu.RLock()
	defer d.mu.RUnlock()

	return Stats{
		Sport:             d.sport.GetDisplayName(),
		RequestsRemaining: quota.RequestsRemaining,
		RequestLimit:      quota.Limit,
		MinutesUntilReset: quota.MinutesUntilReset,
		TotalFixtures:     len(d.fixtures),
		VisibleFixtures:   len(filter.Apply(d.fixtures, d.filter, d.now())),
		TotalLeagues:      len(d.leagues),
		ChangedFixtures:   len(d.lastChanges),
		LastRefresh:       d.lastRefresh,
		CredentialSet:     d.gateway.HasCredential(),
	}
}

// Sport returns the sport module driving this dashboard
func (d *Dashboard) Sport() contracts.SportModule {
	return d.sport
}

// Updates signals after any state change. Signals coalesce; receivers re-read state.
func (d *Dashboard) Updates() <-chan struct{} {
	return d.updates
}

func (d *Dashboard) publish() {
	select {
	case d.updates <- struct{}{}:
	default:
	}
}
