package main

import (
	"fmt"
	"time"

	"github.com/lox/schocken/internal/game"
	"github.com/lox/schocken/internal/simulator"
	"github.com/lox/schocken/internal/statistics"
)

type SimulateCmd struct {
	Games       int    `default:"1000" help:"Number of games to play"`
	Players     int    `default:"4" help:"Players per game"`
	Strategy    string `default:"greedy" enum:"greedy,random" help:"Bot strategy: greedy, random"`
	Ruleset     string `default:"classic_13" help:"Ruleset to play"`
	File        string `short:"f" help:"Rulesets JSON document (defaults to the built-in one)"`
	FallingDice bool   `help:"Enable falling dice"`
	Seed        int64  `default:"0" help:"RNG seed (0 for random)"`
	Workers     int    `default:"4" help:"Games played in parallel"`
	Verbose     bool   `help:"Verbose logging"`
	NoColor     bool   `help:"Disable colored output"`
}

func (c *SimulateCmd) Run() error {
	setColor(c.NoColor)
	level := "warn"
	if c.Verbose {
		level = "debug"
	}
	logger := newLogger(level)
	ctx, cancel := signalContext(logger)
	defer cancel()

	repo, err := openRules(logger, c.File)
	if err != nil {
		return err
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	engine := game.DefaultConfig()
	engine.DefaultRuleset = c.Ruleset
	sim := simulator.New(simulator.Config{
		Games:       c.Games,
		Players:     c.Players,
		Strategy:    c.Strategy,
		RulesetID:   c.Ruleset,
		FallingDice: c.FallingDice,
		Seed:        seed,
		Workers:     c.Workers,
		Logger:      logger,
	}, repo, engine)

	start := time.Now()
	stats, err := sim.Run(ctx)
	if err != nil {
		return err
	}
	printStatistics(stats, c, seed, time.Since(start))
	return nil
}

func printStatistics(stats *statistics.Statistics, c *SimulateCmd, seed int64, elapsed time.Duration) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("%d games, %d players, %s bots", stats.Games, c.Players, c.Strategy)))
	fmt.Printf("Ruleset: %s  Seed: %d  Time: %s\n", c.Ruleset, seed, elapsed.Round(time.Millisecond))

	fmt.Println(headerStyle.Render("\nRounds per game"))
	low, high := stats.ConfidenceInterval95()
	fmt.Printf("Mean: %.2f  Median: %.1f  Std Dev: %.2f\n", stats.Mean(), stats.Median(), stats.StdDev())
	fmt.Printf("95%% CI: [%.2f, %.2f]\n", low, high)
	fmt.Printf("Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))

	fmt.Println(headerStyle.Render("\nEvents"))
	fmt.Printf("Finales: %d (%.1f%%)\n", stats.Finales, 100*float64(stats.Finales)/float64(stats.Games))
	fmt.Printf("Throws: %d  Schock aus: %d  Fallen dice: %d\n", stats.Throws, stats.Schockouts, stats.FallenDice)

	fmt.Println(headerStyle.Render("\nLosses by seat"))
	for seat := range stats.SeatLosses {
		fmt.Printf("Seat %d: %d (%.1f%%)\n", seat+1, stats.SeatLosses[seat], 100*stats.LossRate(seat))
	}
}
