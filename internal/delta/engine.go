package delta

import (
	"sync"

	"github.com/XavierBriggs/Iris/pkg/models"
)

// Engine detects score and state changes between successive fixture loads
// by comparing against the last snapshot it was given
type Engine struct {
	mu       sync.Mutex
	snapshot map[int64]snapshotFixture
	primed   bool
}

// snapshotFixture is the minimal data kept for comparison
type snapshotFixture struct {
	Score string
	State string
}

// ChangeType indicates the type of change detected
type ChangeType string

const (
	ChangeTypeNew       ChangeType = "new"
	ChangeTypeScoreOnly ChangeType = "score"
	ChangeTypeStateOnly ChangeType = "state"
	ChangeTypeBoth      ChangeType = "score_and_state"
	ChangeTypeNone      ChangeType = "none"
)

// Delta represents a detected change
type Delta struct {
	Fixture    models.Fixture
	ChangeType ChangeType
	OldScore   string
	OldState   string
}

// NewEngine creates a new delta detection engine
func NewEngine() *Engine {
	return &Engine{snapshot: make(map[int64]snapshotFixture)}
}

// DetectChanges compares fixtures against the snapshot and returns only deltas,
// in input order. Before the first Update every fixture is new.
func (e *Engine) DetectChanges(fixtures []models.Fixture) []Delta {
	e.mu.Lock()
	defer e.mu.Unlock()

	deltas := make([]Delta, 0)
	for _, f := range fixtures {
		previous, ok := e.snapshot[f.ID]
		if !ok {
			deltas = append(deltas, Delta{Fixture: f, ChangeType: ChangeTypeNew})
			continue
		}

		changeType := compare(f, previous)
		if changeType == ChangeTypeNone {
			continue
		}
		deltas = append(deltas, Delta{
			Fixture:    f,
			ChangeType: changeType,
			OldScore:   previous.Score,
			OldState:   previous.State,
		})
	}
	return deltas
}

// Update replaces the snapshot with fixtures.
// Fixtures missing from the new load are dropped.
func (e *Engine) Update(fixtures []models.Fixture) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.snapshot = make(map[int64]snapshotFixture, len(fixtures))
	for _, f := range fixtures {
		e.snapshot[f.ID] = snapshotFixture{Score: f.ScoreLine(), State: f.NormalizedState()}
	}
	e.primed = true
}

// Primed reports whether a snapshot has been taken
func (e *Engine) Primed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.primed
}

func compare(f models.Fixture, previous snapshotFixture) ChangeType {
	scoreChanged := f.ScoreLine() != previous.Score
	stateChanged := f.NormalizedState() != previous.State

	switch {
	case scoreChanged && stateChanged:
		return ChangeTypeBoth
	case scoreChanged:
		return ChangeTypeScoreOnly
	case stateChanged:
		return ChangeTypeStateOnly
	default:
		return ChangeTypeNone
	}
}
