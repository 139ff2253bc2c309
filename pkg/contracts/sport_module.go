package contracts

import (
	"time"

	"github.com/XavierBriggs/Iris/pkg/models"
)

// SportModule defines the interface for sport-specific loading logic
// It tells the dashboard which endpoints to hit and with which parameters
type SportModule interface {
	// GetSportKey returns the unique identifier for this sport (e.g., "football")
	GetSportKey() string

	// GetDisplayName returns the human-readable name (e.g., "Football")
	GetDisplayName() string

	// GetFixturesEndpoint returns the logical endpoint for fixture loads
	GetFixturesEndpoint() string

	// GetFixtureParams returns the query parameters for loading fixtures on a given day
	GetFixtureParams(day time.Time) map[string]string

	// GetLeaguesEndpoint returns the logical endpoint for league loads
	GetLeaguesEndpoint() string

	// GetLeagueParams returns the query parameters for loading leagues
	GetLeagueParams() map[string]string

	// GetLeagueLimit returns how many leagues to keep from a load
	GetLeagueLimit() int

	// GetRefreshInterval returns how often fixtures are auto-refreshed
	GetRefreshInterval() time.Duration

	// ValidateFixture performs sport-specific checks on a decoded fixture
	// Failures are reported, never fatal: fixtures are kept with defaults
	ValidateFixture(fixture models.Fixture) error
}
