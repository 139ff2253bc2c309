package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fixture is a single scheduled or completed football match as decoded from the
// upstream payload. Optional relations are nil when the upstream omitted them.
type Fixture struct {
	ID           int64
	Name         string
	StartingAt   time.Time // zero when absent or unparseable
	State        string    // upstream state code, e.g. "live", "finished", "NS"
	League       *League
	Venue        *Venue
	Participants []Participant // order as delivered: [0] home, [1] away
	Scores       []Score
	Predictions  *Prediction
}

// Participant is one side of a fixture
type Participant struct {
	ID       int64
	Name     string
	Location string // "home" or "away" when provided
}

// Score is a single score line entry
type Score struct {
	ParticipantID int64
	Description   string
	Goals         *int
}

// Venue is where the fixture is played
type Venue struct {
	ID   int64
	Name string
}

// Prediction holds optional outcome percentages
type Prediction struct {
	HomeWin *float64
	Draw    *float64
	AwayWin *float64
}

// League describes a competition
type League struct {
	ID          int64
	Name        string
	CountryName string
}

// Key returns the league identifier as compared by filters
func (l League) Key() string {
	return strconv.FormatInt(l.ID, 10)
}

// HomeName returns the first participant's name, or "" when absent
func (f Fixture) HomeName() string {
	return f.participantName(0)
}

// AwayName returns the second participant's name, or "" when absent
func (f Fixture) AwayName() string {
	return f.participantName(1)
}

func (f Fixture) participantName(i int) string {
	if i >= len(f.Participants) {
		return ""
	}
	return f.Participants[i].Name
}

// LeagueKey returns the league id as a string, or "" when the league is absent
func (f Fixture) LeagueKey() string {
	if f.League == nil {
		return ""
	}
	return f.League.Key()
}

// NormalizedState returns the lower-cased state code
func (f Fixture) NormalizedState() string {
	return strings.ToLower(f.State)
}

// HomeGoals returns goals from the first score entry (0 when absent)
func (f Fixture) HomeGoals() int {
	return f.goalsAt(0)
}

// AwayGoals returns goals from the second score entry (0 when absent)
func (f Fixture) AwayGoals() int {
	return f.goalsAt(1)
}

func (f Fixture) goalsAt(i int) int {
	if i >= len(f.Scores) || f.Scores[i].Goals == nil {
		return 0
	}
	return *f.Scores[i].Goals
}

// ScoreLine renders "home - away"
func (f Fixture) ScoreLine() string {
	return fmt.Sprintf("%d - %d", f.HomeGoals(), f.AwayGoals())
}

// StatusLabel maps the state code to a display label
func (f Fixture) StatusLabel() string {
	switch f.NormalizedState() {
	case "finished":
		return "Finished"
	case "live":
		return "Live"
	case "scheduled":
		return "Scheduled"
	case "":
		return "Unknown"
	default:
		return f.State
	}
}

// VenueName returns the venue name, or "" when absent
func (f Fixture) VenueName() string {
	if f.Venue == nil {
		return ""
	}
	return f.Venue.Name
}

// LeagueName returns the league name, or "" when absent
func (f Fixture) LeagueName() string {
	if f.League == nil {
		return ""
	}
	return f.League.Name
}

// FormatPercent renders an optional prediction value ("N/A" when absent)
func FormatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "%"
}
