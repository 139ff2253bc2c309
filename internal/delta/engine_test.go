package delta_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Iris/internal/delta"
	"github.com/XavierBriggs/Iris/pkg/models"
	"github.com/XavierBriggs/Iris/pkg/testutil"
)

var kickoff = time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

func withScore(f models.Fixture, home, away int) models.Fixture {
	f.Scores = []models.Score{
		{ParticipantID: f.Participants[0].ID, Description: "CURRENT", Goals: &home},
		{ParticipantID: f.Participants[1].ID, Description: "CURRENT", Goals: &away},
	}
	return f
}

func TestDetectChanges_NewFixture(t *testing.T) {
	engine := delta.NewEngine()
	assert.False(t, engine.Primed())

	deltas := engine.DetectChanges([]models.Fixture{testutil.NewTestFixture(1, "Alpha", "Beta", 8, "NS", kickoff)})

	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypeNew, deltas[0].ChangeType)
}

func TestDetectChanges_ScoreAndState(t *testing.T) {
	engine := delta.NewEngine()
	base := testutil.NewTestFixture(1, "Alpha", "Beta", 8, "live", kickoff)
	other := testutil.NewTestFixture(2, "Gamma", "Delta", 8, "NS", kickoff)
	engine.Update([]models.Fixture{base, other})
	assert.True(t, engine.Primed())

	assert.Empty(t, engine.DetectChanges([]models.Fixture{base, other}))

	scored := withScore(base, 1, 0)
	deltas := engine.DetectChanges([]models.Fixture{scored, other})
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypeScoreOnly, deltas[0].ChangeType)
	assert.Equal(t, "0 - 0", deltas[0].OldScore)
	assert.Equal(t, "1 - 0", deltas[0].Fixture.ScoreLine())

	kicked := other
	kicked.State = "LIVE"
	deltas = engine.DetectChanges([]models.Fixture{base, kicked})
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypeStateOnly, deltas[0].ChangeType)
	assert.Equal(t, "ns", deltas[0].OldState)

	finished := withScore(base, 2, 2)
	finished.State = "finished"
	deltas = engine.DetectChanges([]models.Fixture{finished})
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypeBoth, deltas[0].ChangeType)
}

func TestUpdate_DropsMissingFixtures(t *testing.T) {
	engine := delta.NewEngine()
	f := testutil.NewTestFixture(1, "Alpha", "Beta", 8, "NS", kickoff)
	engine.Update([]models.Fixture{f})
	engine.Update(nil)

	deltas := engine.DetectChanges([]models.Fixture{f})
	require.Len(t, deltas, 1)
	assert.Equal(t, delta.ChangeTypeNew, deltas[0].ChangeType)
}
