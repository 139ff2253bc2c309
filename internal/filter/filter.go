// Package filter selects the visible subset of a fixture collection.
//
// Apply is pure: it never touches the network or storage, preserves input order
// and returns a new slice.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/Iris/pkg/models"
)

// All disables the league, status and period predicates
const All = "all"

// Period values
const (
	PeriodToday    = "today"
	PeriodTomorrow = "tomorrow"
	PeriodWeek     = "week"
	PeriodAll      = All
)

// Status values offered to the user. Any lower-cased state code is accepted.
const (
	StatusScheduled = "scheduled"
	StatusLive      = "live"
	StatusFinished  = "finished"
	StatusAll       = All
)

// Config is the user's filter selection. It lives in memory only.
type Config struct {
	HomeTeamSearch string `yaml:"home_team_search"`
	AwayTeamSearch string `yaml:"away_team_search"`
	League         string `yaml:"league"`
	Status         string `yaml:"status"`
	Period         string `yaml:"period"`
}

// DefaultConfig returns the reset state: no searches, all leagues and statuses, today
func DefaultConfig() Config {
	return Config{
		League: All,
		Status: All,
		Period: PeriodToday,
	}
}

// Periods returns the period choices in display order
func Periods() []string {
	return []string{PeriodToday, PeriodTomorrow, PeriodWeek, PeriodAll}
}

// Statuses returns the status choices in display order
func Statuses() []string {
	return []string{StatusAll, StatusScheduled, StatusLive, StatusFinished}
}

// Validate rejects periods outside the known set
func (c Config) Validate() error {
	for _, p := range Periods() {
		if c.Period == p {
			return nil
		}
	}
	return fmt.Errorf("invalid period %q (want one of %s)", c.Period, strings.Join(Periods(), ", "))
}

// Normalized trims searches and lower-cases the enum fields; empty enums become "all"
func (c Config) Normalized() Config {
	c.HomeTeamSearch = strings.TrimSpace(c.HomeTeamSearch)
	c.AwayTeamSearch = strings.TrimSpace(c.AwayTeamSearch)
	c.League = orAll(strings.TrimSpace(c.League))
	c.Status = orAll(strings.ToLower(strings.TrimSpace(c.Status)))
	c.Period = orAll(strings.ToLower(strings.TrimSpace(c.Period)))
	return c
}

func orAll(v string) string {
	if v == "" {
		return All
	}
	return v
}

// Apply returns the fixtures matching every active predicate, in input order.
// Calendar days are taken in now's location.
func Apply(fixtures []models.Fixture, cfg Config, now time.Time) []models.Fixture {
	cfg = cfg.Normalized()
	today := startOfDay(now)

	out := make([]models.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if matches(f, cfg, today) {
			out = append(out, f)
		}
	}
	return out
}

// Match reports whether a single fixture passes cfg
func Match(f models.Fixture, cfg Config, now time.Time) bool {
	return matches(f, cfg.Normalized(), startOfDay(now))
}

func matches(f models.Fixture, cfg Config, today time.Time) bool {
	if cfg.HomeTeamSearch != "" && !containsFold(f.HomeName(), cfg.HomeTeamSearch) {
		return false
	}
	if cfg.AwayTeamSearch != "" && !containsFold(f.AwayName(), cfg.AwayTeamSearch) {
		return false
	}
	if cfg.League != All && f.LeagueKey() != cfg.League {
		return false
	}
	if cfg.Status != All && f.NormalizedState() != cfg.Status {
		return false
	}
	return inPeriod(f.StartingAt, cfg.Period, today)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// inPeriod compares calendar days. A fixture without a kickoff only passes "all";
// an unrecognised period applies no constraint.
func inPeriod(kickoff time.Time, period string, today time.Time) bool {
	switch period {
	case PeriodToday, PeriodTomorrow, PeriodWeek:
	default:
		return true
	}
	if kickoff.IsZero() {
		return false
	}

	day := startOfDay(kickoff.In(today.Location()))
	switch period {
	case PeriodToday:
		return day.Equal(today)
	case PeriodTomorrow:
		return day.Equal(today.AddDate(0, 0, 1))
	default:
		return !day.Before(today) && day.Before(today.AddDate(0, 0, 7))
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// LeagueOption is one entry of the league selector
type LeagueOption struct {
	Value string
	Label string
}

// LeagueOptions builds the league selector from a league collection, "all" first
func LeagueOptions(leagues []models.League) []LeagueOption {
	options := make([]LeagueOption, 0, len(leagues)+1)
	options = append(options, LeagueOption{Value: All, Label: "All leagues"})
	for _, l := range leagues {
		label := l.Name
		if l.CountryName != "" {
			label = fmt.Sprintf("%s (%s)", l.Name, l.CountryName)
		}
		options = append(options, LeagueOption{Value: l.Key(), Label: label})
	}
	return options
}
