package game

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/schocken/internal/randutil"
	"github.com/lox/schocken/internal/rules"
)

// RuleSource resolves rulesets. *rules.Repository implements it.
type RuleSource interface {
	Resolve(id string) (*rules.Ruleset, error)
	Expand(id string) ([]rules.Rule, error)
}

// ReplacementPolicy decides who starts the next game when the loser leaves.
type ReplacementPolicy int

const (
	// ReplaceNextInSeat picks the next staying member after the loser's seat.
	ReplaceNextInSeat ReplacementPolicy = iota
	// ReplaceRandom picks uniformly among staying members.
	ReplaceRandom
)

// String returns the config name of the policy
func (p ReplacementPolicy) String() string {
	switch p {
	case ReplaceNextInSeat:
		return "next"
	case ReplaceRandom:
		return "random"
	default:
		return "unknown"
	}
}

// Config holds the tunables of the engine.
type Config struct {
	DefaultRuleset    string
	FallingDiceChance float64 // chance per roll when the option is enabled
	FallingDiceStep   float64 // added on every lost half or game
	Replacement       ReplacementPolicy
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		DefaultRuleset:    "classic_13",
		FallingDiceChance: 0.003,
		FallingDiceStep:   0.0002,
		Replacement:       ReplaceNextInSeat,
	}
}

// Engine applies game actions. It holds no per-game state.
type Engine struct {
	rules  RuleSource
	rng    randutil.Source
	clock  quartz.Clock
	config Config
	logger *log.Logger
}

// NewEngine creates an engine.
func NewEngine(ruleSource RuleSource, rng randutil.Source, clock quartz.Clock, logger *log.Logger, config Config) *Engine {
	return &Engine{
		rules:  ruleSource,
		rng:    rng,
		clock:  clock,
		config: config,
		logger: logger.WithPrefix("engine"),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Result is the outcome of a successful action.
type Result struct {
	Message string `json:"message"`

	// Fallen is set when a roll was voided by a die falling off the table.
	Fallen bool `json:"fallen,omitempty"`

	// UserID is the id of a newly joined member.
	UserID int `json:"user_id,omitempty"`

	Dice    *[3]Die  `json:"dice,omitempty"`
	Scoring *Scoring `json:"scoring,omitempty"`
}

func success(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}
