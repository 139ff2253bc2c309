package sportmonks

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/pkg/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoData is returned when a payload has no top-level "data" records
var ErrNoData = errors.New("payload has no data records")

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// DecodeFixtures extracts fixtures from {"data":[...]} (or {"data":{...}} for single
// fixture endpoints). Records that are not objects are skipped; absent fields
// decode to zero values and absent relations to nil.
func DecodeFixtures(payload []byte) ([]models.Fixture, error) {
	items, err := splitData(payload)
	if err != nil {
		return nil, err
	}

	fixtures := make([]models.Fixture, 0, len(items))
	skipped := 0
	for _, raw := range items {
		var item fixtureItem
		if err := json.Unmarshal(raw, &item); err != nil {
			skipped++
			continue
		}
		fixtures = append(fixtures, item.toModel())
	}

	if skipped > 0 {
		logger.Component("sportmonks").WithFields(logger.Fields{"skipped": skipped}).
			Warn("skipped undecodable fixture records")
	}
	return fixtures, nil
}

// DecodeLeagues extracts leagues from {"data":[...]}
func DecodeLeagues(payload []byte) ([]models.League, error) {
	items, err := splitData(payload)
	if err != nil {
		return nil, err
	}

	leagues := make([]models.League, 0, len(items))
	for _, raw := range items {
		var item leagueRef
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		leagues = append(leagues, item.toModel())
	}
	return leagues, nil
}

func splitData(payload []byte) ([]jsoniter.RawMessage, error) {
	var env struct {
		Data jsoniter.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	data := bytes.TrimSpace(env.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil, ErrNoData
	case data[0] == '{':
		return []jsoniter.RawMessage{data}, nil
	case data[0] == '[':
		var items []jsoniter.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
		return items, nil
	default:
		return nil, ErrNoData
	}
}

// parseProviderDateTime parses Sportmonks timestamps, which are UTC
func parseProviderDateTime(raw string, unix *int64) time.Time {
	value := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if value == "" {
			break
		}
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC()
		}
	}
	if unix != nil && *unix > 0 {
		return time.Unix(*unix, 0).UTC()
	}
	return time.Time{}
}

// API response structures matching the Sportmonks v3 JSON format

type fixtureItem struct {
	ID                  int64                      `json:"id"`
	Name                string                     `json:"name"`
	StartingAt          string                     `json:"starting_at"`
	StartingAtTimestamp *int64                     `json:"starting_at_timestamp"`
	State               relation[stateRef]         `json:"state"`
	League              relation[leagueRef]        `json:"league"`
	Venue               relation[venueRef]         `json:"venue"`
	Participants        relation[[]participantRef] `json:"participants"`
	Scores              relation[[]scoreItem]      `json:"scores"`
	Predictions         relation[predictionRef]    `json:"predictions"`
}

func (f fixtureItem) toModel() models.Fixture {
	fixture := models.Fixture{
		ID:         f.ID,
		Name:       f.Name,
		StartingAt: parseProviderDateTime(f.StartingAt, f.StartingAtTimestamp),
	}

	if f.State.Set {
		fixture.State = strings.TrimSpace(f.State.Data.State)
	}
	if f.League.Set {
		league := f.League.Data.toModel()
		fixture.League = &league
	}
	if f.Venue.Set {
		fixture.Venue = &models.Venue{ID: f.Venue.Data.ID, Name: strings.TrimSpace(f.Venue.Data.Name)}
	}
	if f.Participants.Set {
		for _, p := range f.Participants.Data {
			fixture.Participants = append(fixture.Participants, models.Participant{
				ID:       p.ID,
				Name:     strings.TrimSpace(p.Name),
				Location: strings.ToLower(strings.TrimSpace(p.Meta.Location)),
			})
		}
	}
	if f.Scores.Set {
		for _, s := range f.Scores.Data {
			fixture.Scores = append(fixture.Scores, s.toModel())
		}
	}
	if f.Predictions.Set {
		p := f.Predictions.Data
		if p.HomeWin != nil || p.Draw != nil || p.AwayWin != nil {
			fixture.Predictions = &models.Prediction{HomeWin: p.HomeWin, Draw: p.Draw, AwayWin: p.AwayWin}
		}
	}

	return fixture
}

type stateRef struct {
	ID    int64  `json:"id"`
	State string `json:"state"`
	Name  string `json:"name"`
}

type leagueRef struct {
	ID      int64               `json:"id"`
	Name    string              `json:"name"`
	Country relation[countryRef] `json:"country"`
}

func (l leagueRef) toModel() models.League {
	league := models.League{ID: l.ID, Name: strings.TrimSpace(l.Name)}
	if l.Country.Set {
		league.CountryName = strings.TrimSpace(l.Country.Data.Name)
	}
	return league
}

type countryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type venueRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type participantRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Meta struct {
		Location string `json:"location"`
	} `json:"meta"`
}

type scoreItem struct {
	ParticipantID int64  `json:"participant_id"`
	Description   string `json:"description"`
	Score         struct {
		Goals *float64 `json:"goals"`
	} `json:"score"`
}

func (s scoreItem) toModel() models.Score {
	score := models.Score{ParticipantID: s.ParticipantID, Description: s.Description}
	if s.Score.Goals != nil {
		goals := int(*s.Score.Goals)
		score.Goals = &goals
	}
	return score
}

type predictionRef struct {
	HomeWin *float64 `json:"home_win"`
	Draw    *float64 `json:"draw"`
	AwayWin *float64 `json:"away_win"`
}

// relation decodes an included relation that may arrive bare or wrapped in
// {"data": ...}. Anything that does not fit T leaves the relation unset.
type relation[T any] struct {
	Data T
	Set  bool
}

func (r *relation[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		r.Set = false
		return nil
	}

	if trimmed[0] == '{' {
		var wrapped struct {
			Data *T `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Data != nil {
			r.Data = *wrapped.Data
			r.Set = true
			return nil
		}
	}

	var direct T
	if err := json.Unmarshal(trimmed, &direct); err != nil {
		r.Set = false
		return nil
	}
	r.Data = direct
	r.Set = true
	return nil
}
