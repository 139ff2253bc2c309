package football

import (
	"fmt"
	"time"

	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/pkg/models"
)

// Module implements the SportModule interface for football
type Module struct {
	config *Config
}

var _ contracts.SportModule = (*Module)(nil)

// NewModule creates a new football sport module
func NewModule() *Module {
	return &Module{
		config: DefaultConfig(),
	}
}

// NewModuleWithConfig creates a module around a custom configuration
func NewModuleWithConfig(config *Config) *Module {
	return &Module{config: config}
}

// GetSportKey returns the sport identifier
func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// GetFixturesEndpoint returns the endpoint for fixture loads
func (m *Module) GetFixturesEndpoint() string {
	return m.config.Fixtures.Endpoint
}

// GetFixtureParams returns the fixture query for the UTC calendar day containing day
func (m *Module) GetFixtureParams(day time.Time) map[string]string {
	return map[string]string{
		"filter[date]": day.UTC().Format(m.config.Fixtures.DateLayout),
		"include":      JoinIncludes(m.config.Fixtures.Includes),
	}
}

// GetLeaguesEndpoint returns the endpoint for league loads
func (m *Module) GetLeaguesEndpoint() string {
	return m.config.Leagues.Endpoint
}

// GetLeagueParams returns the league query
func (m *Module) GetLeagueParams() map[string]string {
	return map[string]string{
		"include": JoinIncludes(m.config.Leagues.Includes),
	}
}

// GetLeagueLimit returns how many leagues a load keeps
func (m *Module) GetLeagueLimit() int {
	return m.config.Leagues.Limit
}

// GetRefreshInterval returns the fixtures auto-refresh interval
func (m *Module) GetRefreshInterval() time.Duration {
	return m.config.Fixtures.RefreshInterval
}

// ValidateFixture performs football-specific validation
func (m *Module) ValidateFixture(fixture models.Fixture) error {
	if fixture.ID == 0 {
		return fmt.Errorf("fixture id missing")
	}
	return ValidateParticipants(fixture)
}
