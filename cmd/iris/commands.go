package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/XavierBriggs/Iris/internal/filter"
)

// FilterFlags are the filter selections shared by fixtures and watch
type FilterFlags struct {
	Home   string `help:"Case-insensitive substring of the home team name."`
	Away   string `help:"Case-insensitive substring of the away team name."`
	League string `help:"League ID, or 'all'." default:"all"`
	Status string `help:"Fixture state (${statuses}) or a raw state code." default:"${all}"`
	Period string `help:"One of ${periods}." default:"${default_period}" enum:"${periods}"`
}

// filterVars fills the choices in FilterFlags tags
func filterVars() kong.Vars {
	return kong.Vars{
		"all":            filter.All,
		"statuses":       strings.Join(filter.Statuses(), ", "),
		"periods":        strings.Join(filter.Periods(), ","),
		"default_period": filter.DefaultConfig().Period,
	}
}

func (f FilterFlags) config() filter.Config {
	return filter.Config{
		HomeTeamSearch: f.Home,
		AwayTeamSearch: f.Away,
		League:         f.League,
		Status:         f.Status,
		Period:         f.Period,
	}
}

// FixturesCmd lists fixtures.
type FixturesCmd struct {
	FilterFlags `embed:""`

	Refresh     bool `help:"Reload from the API (still served from cache when fresh)."`
	Predictions bool `help:"Also print prediction percentages."`
	JSON        bool `name:"json" help:"Print fixtures as JSON."`
}

func (c *FixturesCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.dash.SetFilter(c.config()); err != nil {
		return err
	}

	load := a.dash.LoadFixtures
	if c.Refresh {
		load = a.dash.Refresh
	}
	if err := load(ctx); err != nil {
		return err
	}

	visible := a.dash.Visible()
	if c.JSON {
		return a.renderer.FixturesJSON(visible)
	}
	a.renderer.Fixtures(visible)
	if c.Predictions {
		a.renderer.Predictions(visible)
	}
	return nil
}

// LeaguesCmd lists leagues.
type LeaguesCmd struct{}

func (c *LeaguesCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.dash.LoadLeagues(ctx); err != nil {
		return err
	}
	a.renderer.Leagues(a.dash.LeagueOptions())
	return nil
}

// StatusCmd shows quota and credential state without calling the API.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	a.dash.Rollover(ctx)
	a.renderer.Stats(a.dash.Stats())
	a.renderer.Line("cache     %d entries, %d fresh", a.cache.Len(), a.cache.Fresh())
	a.renderer.Line("api key   %s", a.gateway.MaskedCredential())
	a.renderer.Line("store     %s", a.cfg.Store.Backend)
	return nil
}

// SetKeyCmd stores the API key.
type SetKeyCmd struct {
	Token  string `arg:"" optional:"" help:"API key; read from the terminal when omitted."`
	NoLoad bool   `name:"no-load" help:"Do not load fixtures after storing the key."`
}

func (c *SetKeyCmd) Run(ctx context.Context, cli *CLI) error {
	token := c.Token
	if token == "" {
		var err error
		if token, err = readToken(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(token) == "" {
		fmt.Fprintln(os.Stderr, "empty key ignored")
		return nil
	}

	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if c.NoLoad {
		if err := a.gateway.SetCredential(ctx, token); err != nil {
			return err
		}
	} else if err := a.dash.SetCredential(ctx, token); err != nil {
		return err
	}

	a.renderer.Line("api key stored (%s)", a.gateway.MaskedCredential())
	return nil
}

func readToken() (string, error) {
	if isTTY(os.Stdin) {
		fmt.Fprint(os.Stderr, "Sportmonks API key: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read key: %w", err)
	}
	return line, nil
}

// ClearKeyCmd removes the stored API key. SPORTMONKS_API_TOKEN, when set, still
// supplies a key for each run without being stored.
type ClearKeyCmd struct{}

func (c *ClearKeyCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.gateway.ClearCredential(ctx); err != nil {
		return err
	}
	a.renderer.Line("api key removed")
	return nil
}

// WatchCmd keeps the dashboard on screen until interrupted.
type WatchCmd struct {
	FilterFlags `embed:""`
}

func (c *WatchCmd) Run(ctx context.Context, cli *CLI) error {
	a, err := newApp(ctx, cli)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.dash.SetFilter(c.config()); err != nil {
		return err
	}

	sched := a.scheduler()
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if err := a.dash.LoadInitial(ctx); err != nil {
		a.renderer.Line("initial load failed: %v", err)
	}
	c.draw(a)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.dash.Updates():
			c.draw(a)
		}
	}
}

func (c *WatchCmd) draw(a *app) {
	a.renderer.Clear()
	a.renderer.Stats(a.dash.Stats())
	a.renderer.Line("")
	a.renderer.Fixtures(a.dash.Visible())
	if changes := a.dash.Changes(); len(changes) > 0 {
		a.renderer.Line("")
		a.renderer.Changes(changes)
	}
	a.renderer.Line("")
	a.renderer.Line("refreshing every %s, ctrl-c to quit", a.refreshInterval())
}
