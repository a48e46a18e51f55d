package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/schocken/internal/game"
	"github.com/lox/schocken/internal/randutil"
	"github.com/lox/schocken/internal/statistics"
)

// Strategies a simulated player can follow.
const (
	StrategyGreedy = "greedy" // keep ones, reroll the rest
	StrategyRandom = "random"
)

// Config holds configuration for running simulations
type Config struct {
	Games       int
	Players     int
	Strategy    string
	RulesetID   string
	FallingDice bool
	Seed        int64
	Workers     int
	MaxRounds   int // abort a game that has not ended after this many rounds
	Logger      *log.Logger
}

// Simulator plays complete games between bots
type Simulator struct {
	config Config
	rules  game.RuleSource
	engine game.Config
}

// New creates a new simulator
func New(config Config, rules game.RuleSource, engine game.Config) *Simulator {
	if config.Players < 2 {
		config.Players = 2
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.MaxRounds < 1 {
		config.MaxRounds = 10000
	}
	if config.Strategy == "" {
		config.Strategy = StrategyGreedy
	}
	return &Simulator{config: config, rules: rules, engine: engine}
}

// Run plays every game and returns the aggregate
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	if s.config.Strategy != StrategyGreedy && s.config.Strategy != StrategyRandom {
		return nil, fmt.Errorf("unknown strategy %q", s.config.Strategy)
	}

	stats := &statistics.Statistics{}
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.config.Workers)
	for i := 0; i < s.config.Games; i++ {
		seed := s.config.Seed + int64(i)
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := s.playGame(seed)
			if err != nil {
				return fmt.Errorf("game with seed %d: %w", seed, err)
			}
			mu.Lock()
			stats.Add(result)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}
	return stats, nil
}

// playGame seats the bots and plays rounds until one of them loses a game.
func (s *Simulator) playGame(seed int64) (statistics.GameResult, error) {
	rng := randutil.New(seed)
	e := game.NewEngine(s.rules, rng, quartz.NewReal(), s.config.Logger, s.engine)

	g, err := e.NewGame(fmt.Sprintf("sim-%d", seed), "Spieler 1")
	if err != nil {
		return statistics.GameResult{}, err
	}
	for i := 2; i <= s.config.Players; i++ {
		if _, err := e.Join(g, game.JoinRequest{Name: fmt.Sprintf("Spieler %d", i)}); err != nil {
			return statistics.GameResult{}, err
		}
	}
	admin := g.Users[0].ID
	req := game.StartRequest{RulesetID: s.config.RulesetID, FallingDice: s.config.FallingDice}
	if req.RulesetID == "" {
		req.RulesetID = s.engine.DefaultRuleset
	}
	if _, err := e.Start(g, admin, req); err != nil {
		return statistics.GameResult{}, err
	}

	result := statistics.GameResult{Seed: seed}
	for round := 1; round <= s.config.MaxRounds; round++ {
		if err := s.playRound(e, g, rng); err != nil {
			return result, fmt.Errorf("round %d: %w", round, err)
		}
		if g.Status == game.StatusPlayFinal {
			result.Finale = true
		}

		games := g.FinalCount
		if _, err := e.Distribute(g, admin); err != nil {
			return result, fmt.Errorf("round %d: %w", round, err)
		}
		if chipsInPlay(g) != g.StackMax {
			result.Violations++
		}
		if g.FinalCount > games {
			// the loser starts the next game
			result.Rounds = round
			result.LoserSeat = g.Seat(g.FirstUserID)
			result.Schockouts = g.SchockoutCount
			result.Throws = g.ThrowDiceCount
			result.FallenDice = g.FallingDiceCount
			return result, nil
		}
	}
	return result, fmt.Errorf("no loser after %d rounds", s.config.MaxRounds)
}

func (s *Simulator) playRound(e *game.Engine, g *game.Game, rng randutil.Source) error {
	for g.MoveUserID != game.NoUser {
		id := g.MoveUserID
		u := g.User(id)

		dice, done := s.choose(u, rng)
		if done {
			if _, err := e.Finish(g, id); err != nil {
				return err
			}
			continue
		}
		if _, err := e.Roll(g, id, game.RollRequest{Dice: dice}); err != nil {
			return err
		}
	}

	for _, u := range g.PlayingUsers() {
		if _, err := e.Reveal(g, u.ID, game.RevealRequest{Visible: true}); err != nil {
			return err
		}
	}
	return nil
}

// choose picks the dice to reroll, or reports that the player stands.
func (s *Simulator) choose(u *game.User, rng randutil.Source) ([3]bool, bool) {
	all := [3]bool{true, true, true}
	if u.NumberDice == 0 {
		return all, false
	}

	faces := u.Faces()
	switch s.config.Strategy {
	case StrategyRandom:
		if randutil.Decision(rng, 0.3) {
			return [3]bool{}, true
		}
		var dice [3]bool
		for i := range dice {
			dice[i] = randutil.Decision(rng, 0.5)
		}
		if dice == [3]bool{} {
			dice[rng.IntN(3)] = true
		}
		return dice, false

	default:
		if faces[0] == faces[1] && faces[1] == faces[2] {
			return [3]bool{}, true
		}
		var dice [3]bool
		for i, f := range faces {
			dice[i] = f != 1
		}
		return dice, false
	}
}

func chipsInPlay(g *game.Game) int {
	total := g.Stack
	for _, u := range g.ActiveUsers() {
		total += u.Chips
	}
	return total
}
