package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/term"

	"github.com/XavierBriggs/Iris/internal/dashboard"
	"github.com/XavierBriggs/Iris/internal/delta"
	"github.com/XavierBriggs/Iris/internal/filter"
	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/pkg/models"
)

const (
	barWidth    = 20
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
	clearScreen = "\033[H\033[2J"
)

func isTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// renderer writes dashboard output to out and notices to errOut
type renderer struct {
	out    io.Writer
	errOut io.Writer
	color  bool
	mu     sync.Mutex
}

var _ contracts.Notifier = (*renderer)(nil)

func newRenderer(out, errOut io.Writer, color bool) *renderer {
	return &renderer{out: out, errOut: errOut, color: color}
}

func (r *renderer) paint(code, text string) string {
	if !r.color {
		return text
	}
	return code + text + colorReset
}

// Notify prints a notice as one line on errOut
func (r *renderer) Notify(notice models.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := colorGreen
	if notice.Level == models.NoticeDestructive {
		code = colorRed
	}
	fmt.Fprintf(r.errOut, "%s %s\n", r.paint(code, notice.Title+":"), notice.Message)
}

func (r *renderer) Fixtures(fixtures []models.Fixture) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(fixtures) == 0 {
		fmt.Fprintln(r.out, "No matches found for the current filters.")
		return
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KICKOFF\tSTATUS\tHOME\tSCORE\tAWAY\tLEAGUE\tVENUE")
	for _, f := range fixtures {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			kickoffLabel(f.StartingAt),
			r.status(f),
			orDash(f.HomeName()),
			f.ScoreLine(),
			orDash(f.AwayName()),
			orDash(f.LeagueName()),
			orDash(f.VenueName()),
		)
	}
	tw.Flush()
}

func (r *renderer) status(f models.Fixture) string {
	label := f.StatusLabel()
	switch f.NormalizedState() {
	case filter.StatusLive:
		return r.paint(colorGreen, label)
	case filter.StatusFinished:
		return r.paint(colorDim, label)
	}
	return label
}

// Predictions prints the optional win percentages of each fixture that has them
func (r *renderer) Predictions(fixtures []models.Fixture) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range fixtures {
		if f.Predictions == nil {
			continue
		}
		fmt.Fprintf(r.out, "%s vs %s  home %s  draw %s  away %s\n",
			orDash(f.HomeName()), orDash(f.AwayName()),
			models.FormatPercent(f.Predictions.HomeWin),
			models.FormatPercent(f.Predictions.Draw),
			models.FormatPercent(f.Predictions.AwayWin),
		)
	}
}

// Changes lists fixtures whose score or state moved since the previous load
func (r *renderer) Changes(changes []delta.Delta) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range changes {
		f := c.Fixture
		line := fmt.Sprintf("%s %s %s", orDash(f.HomeName()), f.ScoreLine(), orDash(f.AwayName()))
		switch c.ChangeType {
		case delta.ChangeTypeNew:
			line += " (new)"
		case delta.ChangeTypeScoreOnly:
			line += fmt.Sprintf(" (was %s)", c.OldScore)
		default:
			line += fmt.Sprintf(" (was %s, %s)", c.OldScore, orDash(c.OldState))
		}
		fmt.Fprintln(r.out, r.paint(colorYellow, "* ")+line)
	}
}

func (r *renderer) Leagues(options []filter.LeagueOption) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLEAGUE")
	for _, o := range options {
		fmt.Fprintf(tw, "%s\t%s\n", o.Value, o.Label)
	}
	tw.Flush()
}

func (r *renderer) Stats(stats dashboard.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	usedPct := 0.0
	if stats.RequestLimit > 0 {
		usedPct = float64(stats.RequestLimit-stats.RequestsRemaining) / float64(stats.RequestLimit) * 100
	}

	quota := fmt.Sprintf("%d/%d", stats.RequestsRemaining, stats.RequestLimit)
	if r.color {
		quota = fmt.Sprintf("%s%s%s %s", quotaColor(usedPct), bar(usedPct), colorReset, quota)
	}
	if stats.Sport != "" {
		fmt.Fprintf(r.out, "sport     %s\n", stats.Sport)
	}
	fmt.Fprintf(r.out, "requests  %s  resets in %dm\n", quota, stats.MinutesUntilReset)
	fmt.Fprintf(r.out, "matches   %d total, %d shown\n", stats.TotalFixtures, stats.VisibleFixtures)

	if !stats.LastRefresh.IsZero() {
		fmt.Fprintf(r.out, "updated   %s\n", stats.LastRefresh.Local().Format("15:04:05"))
	}
}

func (r *renderer) Clear() {
	if r.color {
		fmt.Fprint(r.out, clearScreen)
	}
}

func (r *renderer) Line(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, format+"\n", args...)
}

// fixtureJSON is the --json shape of a fixture
type fixtureJSON struct {
	ID       int64     `json:"id"`
	Kickoff  time.Time `json:"kickoff,omitempty"`
	Status   string    `json:"status"`
	Home     string    `json:"home"`
	Away     string    `json:"away"`
	Score    string    `json:"score"`
	LeagueID string    `json:"league_id,omitempty"`
	League   string    `json:"league,omitempty"`
	Venue    string    `json:"venue,omitempty"`
}

func (r *renderer) FixturesJSON(fixtures []models.Fixture) error {
	out := make([]fixtureJSON, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, fixtureJSON{
			ID:       f.ID,
			Kickoff:  f.StartingAt,
			Status:   f.StatusLabel(),
			Home:     f.HomeName(),
			Away:     f.AwayName(),
			Score:    f.ScoreLine(),
			LeagueID: f.LeagueKey(),
			League:   f.LeagueName(),
			Venue:    f.VenueName(),
		})
	}

	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixtures: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err = fmt.Fprintln(r.out, string(data))
	return err
}

func kickoffLabel(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Mon 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func quotaColor(usedPct float64) string {
	switch {
	case usedPct >= 80:
		return colorRed
	case usedPct >= 60:
		return colorYellow
	default:
		return colorGreen
	}
}

func bar(pct float64) string {
	filled := int(math.Round(pct / 100 * barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
