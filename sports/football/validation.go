package football

import (
	"fmt"
	"strings"

	"github.com/XavierBriggs/Iris/pkg/models"
)

// ValidateParticipants checks that a fixture names two distinct sides
func ValidateParticipants(fixture models.Fixture) error {
	home := NormalizeTeamName(fixture.HomeName())
	away := NormalizeTeamName(fixture.AwayName())

	if home == "" {
		return fmt.Errorf("fixture %d: home team missing", fixture.ID)
	}

	if away == "" {
		return fmt.Errorf("fixture %d: away team missing", fixture.ID)
	}

	if strings.EqualFold(home, away) {
		return fmt.Errorf("fixture %d: home and away teams cannot be the same", fixture.ID)
	}

	return nil
}

// NormalizeTeamName trims and collapses internal whitespace
func NormalizeTeamName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
