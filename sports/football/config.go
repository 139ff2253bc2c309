package football

import (
	"time"
)

// Config contains football-specific loading configuration
type Config struct {
	// Sport identification
	SportKey    string
	DisplayName string

	// Fixtures load configuration
	Fixtures FixturesConfig

	// Leagues load configuration
	Leagues LeaguesConfig
}

// FixturesConfig defines how the day's fixtures are requested
type FixturesConfig struct {
	Endpoint string

	// Relations requested alongside each fixture
	Includes []string

	// Date filter format; the day is always rendered in UTC
	DateLayout string

	// How often the fixture list is reloaded while the dashboard is open
	RefreshInterval time.Duration
}

// LeaguesConfig defines how the league list is requested
type LeaguesConfig struct {
	Endpoint string
	Includes []string

	// Only the first Limit leagues from a load are kept
	Limit int
}

// DefaultConfig returns the configuration used against the Sportmonks v3 football API
func DefaultConfig() *Config {
	return &Config{
		SportKey:    "football",
		DisplayName: "Football",

		Fixtures: FixturesConfig{
			Endpoint:        "fixtures",
			Includes:        FixtureIncludes(),
			DateLayout:      "2006-01-02",
			RefreshInterval: 5 * time.Minute,
		},

		Leagues: LeaguesConfig{
			Endpoint: "leagues",
			Includes: LeagueIncludes(),
			Limit:    50,
		},
	}
}
