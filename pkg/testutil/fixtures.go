package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/XavierBriggs/Iris/adapters/sportmonks"
	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/pkg/models"
)

// NewTestFixture creates a test fixture with two participants
func NewTestFixture(id int64, homeTeam, awayTeam string, leagueID int64, state string, kickoff time.Time) models.Fixture {
	return models.Fixture{
		ID:         id,
		Name:       fmt.Sprintf("%s vs %s", homeTeam, awayTeam),
		StartingAt: kickoff,
		State:      state,
		League:     &models.League{ID: leagueID, Name: fmt.Sprintf("League %d", leagueID)},
		Participants: []models.Participant{
			{ID: id*10 + 1, Name: homeTeam, Location: "home"},
			{ID: id*10 + 2, Name: awayTeam, Location: "away"},
		},
	}
}

// FixturesPayload renders fixtures as a Sportmonks-style envelope
func FixturesPayload(fixtures ...models.Fixture) []byte {
	items := ""
	for i, f := range fixtures {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(
			`{"id":%d,"name":%q,"starting_at":%q,"state":{"state":%q},"league":{"id":%d,"name":%q},`+
				`"participants":[{"id":%d,"name":%q,"meta":{"location":"home"}},{"id":%d,"name":%q,"meta":{"location":"away"}}]}`,
			f.ID, f.Name, f.StartingAt.UTC().Format("2006-01-02 15:04:05"), f.State,
			f.League.ID, f.League.Name,
			f.Participants[0].ID, f.Participants[0].Name,
			f.Participants[1].ID, f.Participants[1].Name,
		)
	}
	return []byte(`{"data":[` + items + `]}`)
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Notices records every notice it receives
type Notices struct {
	mu   sync.Mutex
	list []models.Notice
}

var _ contracts.Notifier = (*Notices)(nil)

// NewNotices creates an empty recorder
func NewNotices() *Notices {
	return &Notices{}
}

func (n *Notices) Notify(notice models.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, notice)
}

// All returns a copy of the recorded notices
func (n *Notices) All() []models.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notice(nil), n.list...)
}

// Titles returns the recorded notice titles in order
func (n *Notices) Titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	titles := make([]string, len(n.list))
	for i, notice := range n.list {
		titles[i] = notice.Title
	}
	return titles
}

// Call is one recorded adapter request
type Call struct {
	Endpoint string
	Params   map[string]string
	Token    string
}

// FakeAdapter is a scripted VendorAdapter; decoding uses the real Sportmonks decoder
type FakeAdapter struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string][]byte
	errs      map[string]error
	rejected  map[string]bool

	// Block, when set, is waited on before each Get returns
	Block chan struct{}
}

var _ contracts.VendorAdapter = (*FakeAdapter)(nil)

// NewFakeAdapter creates an adapter with no scripted responses
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
		rejected:  make(map[string]bool),
	}
}

// Respond scripts the body returned for an endpoint
func (a *FakeAdapter) Respond(endpoint string, body []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses[endpoint] = body
	delete(a.errs, endpoint)
}

// Fail scripts the error returned for an endpoint
func (a *FakeAdapter) Fail(endpoint string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs[endpoint] = err
}

func (a *FakeAdapter) Get(ctx context.Context, endpoint string, params map[string]string, token string) ([]byte, error) {
	a.mu.Lock()
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	a.calls = append(a.calls, Call{Endpoint: endpoint, Params: copied, Token: token})
	body, err := a.responses[endpoint], a.errs[endpoint]
	block := a.Block
	a.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, &sportmonks.HTTPError{StatusCode: 404, Message: "no scripted response for " + endpoint}
	}
	return body, nil
}

func (a *FakeAdapter) DecodeFixtures(payload []byte) ([]models.Fixture, error) {
	return sportmonks.DecodeFixtures(payload)
}

func (a *FakeAdapter) DecodeLeagues(payload []byte) ([]models.League, error) {
	return sportmonks.DecodeLeagues(payload)
}

// Reject makes SupportsEndpoint report false for an endpoint
func (a *FakeAdapter) Reject(endpoint string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejected[endpoint] = true
}

func (a *FakeAdapter) SupportsEndpoint(endpoint string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.rejected[endpoint]
}

// Calls returns the recorded requests
func (a *FakeAdapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// CallCount returns how many requests were made to an endpoint ("" counts all)
func (a *FakeAdapter) CallCount(endpoint string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if endpoint == "" {
		return len(a.calls)
	}
	n := 0
	for _, c := range a.calls {
		if c.Endpoint == endpoint {
			n++
		}
	}
	return n
}
