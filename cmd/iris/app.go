package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/XavierBriggs/Iris/adapters/sportmonks"
	"github.com/XavierBriggs/Iris/internal/cache"
	"github.com/XavierBriggs/Iris/internal/config"
	"github.com/XavierBriggs/Iris/internal/credential"
	"github.com/XavierBriggs/Iris/internal/dashboard"
	"github.com/XavierBriggs/Iris/internal/gateway"
	"github.com/XavierBriggs/Iris/internal/logger"
	"github.com/XavierBriggs/Iris/internal/ratelimit"
	"github.com/XavierBriggs/Iris/internal/registry"
	"github.com/XavierBriggs/Iris/internal/scheduler"
	"github.com/XavierBriggs/Iris/pkg/contracts"
	"github.com/XavierBriggs/Iris/sports/football"
)

// app is the wired core shared by every command
type app struct {
	cfg      config.Config
	store    contracts.KVStore
	sports   *registry.SportRegistry
	cache    *cache.Cache
	gateway  *gateway.Gateway
	dash     *dashboard.Dashboard
	renderer *renderer
}

func newApp(ctx context.Context, cli *CLI) (*app, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.Store != "" {
		cfg.Store.Backend = cli.Store
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logger.SetLogger(logger.New(os.Stderr, cfg.LogLevel))

	kv, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	sports := registry.NewSportRegistry()
	if err := sports.Register(football.NewModuleWithConfig(footballConfig(cfg))); err != nil {
		kv.Close()
		return nil, fmt.Errorf("register football: %w", err)
	}
	sport, err := sports.Resolve("")
	if err != nil {
		kv.Close()
		return nil, err
	}

	// a configured token is used in memory only, so clear-key leaves the store empty
	creds := credential.Load(ctx, kv)
	if !creds.IsSet() && creds.Use(cfg.API.Token) == nil {
		logger.Component("cli").Debug("using configured api token")
	}

	r := newRenderer(os.Stdout, os.Stderr, !cli.Plain && isTTY(os.Stdout))
	limiter := ratelimit.New(ctx, kv, ratelimit.Options{Limit: cfg.Quota.Limit, Window: cfg.Quota.Window})
	responses := cache.New(ctx, kv, cfg.Cache.TTL, nil)
	adapter := sportmonks.NewClient(sportmonks.Options{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
	gw := gateway.New(adapter, limiter, responses, creds, r)

	return &app{
		cfg:      cfg,
		store:    kv,
		sports:   sports,
		cache:    responses,
		gateway:  gw,
		dash:     dashboard.New(gw, sport, r, nil),
		renderer: r,
	}, nil
}

func (a *app) scheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(a.dash, a.dash, scheduler.Options{
		RolloverInterval: a.cfg.Scheduler.RolloverInterval,
		RefreshInterval:  a.refreshInterval(),
	})
}

func (a *app) refreshInterval() time.Duration {
	return a.dash.Sport().GetRefreshInterval()
}

// footballConfig applies the configured refresh interval; 0 keeps the module default
func footballConfig(cfg config.Config) *football.Config {
	fc := football.DefaultConfig()
	if cfg.Scheduler.RefreshInterval > 0 {
		fc.Fixtures.RefreshInterval = cfg.Scheduler.RefreshInterval
	}
	return fc
}

func (a *app) Close() error {
	return a.store.Close()
}
