package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/coder/quartz"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/schocken/internal/broadcast"
	"github.com/lox/schocken/internal/game"
	"github.com/lox/schocken/internal/randutil"
	"github.com/lox/schocken/internal/room"
	"github.com/lox/schocken/internal/server"
	"github.com/lox/schocken/internal/store"
)

type ServeCmd struct {
	Config   string `short:"c" default:"schocken.hcl" help:"Path to HCL configuration file"`
	EnvFile  string `default:".env" help:"Environment file with secrets (optional)"`
	Address  string `short:"a" help:"Address to bind to (overrides config)"`
	Port     int    `short:"p" help:"Port to listen on (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Store    string `help:"Store driver: memory, file, redis or sqlite (overrides config)"`
	Seed     int64  `help:"RNG seed for reproducible dice (overrides config)"`
}

func (c *ServeCmd) Run() error {
	if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", c.EnvFile, err)
	}

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.Store != "" {
		cfg.Store.Driver = c.Store
	}
	if c.Seed != 0 {
		cfg.Game.Seed = c.Seed
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)
	ctx, cancel := signalContext(logger)
	defer cancel()

	repo, err := openRules(logger, cfg.Game.RulesetsFile)
	if err != nil {
		return err
	}

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	clock := quartz.NewReal()
	engine := game.NewEngine(repo, randutil.NewLocked(randutil.New(seed)), clock, logger, cfg.EngineConfig())

	backend, err := store.Open(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	hub := broadcast.NewHub(logger)
	eg, ctx := errgroup.WithContext(ctx)

	var publisher room.Publisher = hub
	if opts, ok := cfg.NATSOptions(); ok {
		n, err := broadcast.ConnectNATS(opts, logger)
		if err != nil {
			return err
		}
		defer func() { _ = n.Close() }()
		publisher = broadcast.Multi{hub, n}
		eg.Go(func() error { return n.Relay(ctx, hub) })
	}

	rooms := room.NewManager(engine, backend, publisher, clock, logger, room.WithConfig(cfg.RoomConfig()))
	srv := server.New(rooms, repo, hub, logger, server.WithRateLimit(cfg.Server.RateLimit))

	logger.Info("Starting Schocken server",
		"addr", cfg.Address(),
		"store", cfg.Store.Driver,
		"ruleset", cfg.Game.DefaultRuleset,
		"rulesets", len(repo.List()))

	eg.Go(func() error { return rooms.Run(ctx) })
	eg.Go(func() error { return reloadOnHangup(ctx, repo, logger) })
	eg.Go(func() error { return srv.ListenAndServe(ctx, cfg.Address()) })
	return eg.Wait()
}
