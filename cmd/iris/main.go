// Command iris is a terminal dashboard for today's football fixtures from the
// Sportmonks API, with a persistent response cache and an hourly request budget.
//
// Usage:
//
//	iris set-key
//	iris fixtures --home arsenal --period week
//	iris status
//	iris watch
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

// CLI defines the command-line interface.
type CLI struct {
	Fixtures FixturesCmd `cmd:"" default:"withargs" help:"List fixtures for today, filtered."`
	Leagues  LeaguesCmd  `cmd:"" help:"List available leagues."`
	Status   StatusCmd   `cmd:"" help:"Show request quota, cache and credential status."`
	SetKey   SetKeyCmd   `cmd:"" name:"set-key" help:"Store the Sportmonks API key."`
	ClearKey ClearKeyCmd `cmd:"" name:"clear-key" help:"Remove the stored API key (SPORTMONKS_API_TOKEN still applies while set)."`
	Watch    WatchCmd    `cmd:"" help:"Keep the fixture list on screen, refreshing every few minutes."`

	Config   string `short:"c" help:"Path to config file." type:"path" env:"IRIS_CONFIG"`
	LogLevel string `help:"Log level (debug, info, warn, error)." placeholder:"LEVEL"`
	Store    string `help:"Store backend override (memory, file, redis, postgres, sqlite)." placeholder:"BACKEND"`
	Plain    bool   `help:"Disable colored output."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("iris"),
		kong.Description("Football fixtures from Sportmonks, cached and rate limited."),
		kong.UsageOnError(),
		filterVars(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run(&cli)
	stop()
	kctx.FatalIfErrorf(err)
}
