package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/schocken/internal/broadcast"
	"github.com/lox/schocken/internal/game"
	"github.com/lox/schocken/internal/room"
	"github.com/lox/schocken/internal/store"
)

// Environment variables holding secrets that never live in the HCL file.
const (
	EnvRedisPassword = "SCHOCKEN_REDIS_PASSWORD"
	EnvNATSToken     = "SCHOCKEN_NATS_TOKEN"
)

// Config is the complete server configuration
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Game   *GameSettings   `hcl:"game,block"`
	Store  *StoreSettings  `hcl:"store,block"`
	Rooms  *RoomSettings   `hcl:"rooms,block"`
	NATS   *NATSSettings   `hcl:"nats,block"`
}

// ServerSettings contains listener configuration
type ServerSettings struct {
	Address   string `hcl:"address,optional"`
	Port      int    `hcl:"port,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	RateLimit int    `hcl:"rate_limit,optional"` // requests per minute and client IP
}

// GameSettings tunes the engine
type GameSettings struct {
	DefaultRuleset    string  `hcl:"default_ruleset,optional"`
	RulesetsFile      string  `hcl:"rulesets_file,optional"`
	FallingDiceChance float64 `hcl:"falling_dice_chance,optional"`
	FallingDiceStep   float64 `hcl:"falling_dice_step,optional"`
	Replacement       string  `hcl:"replacement,optional"`
	Seed              int64   `hcl:"seed,optional"`
}

// StoreSettings selects the persistence backend
type StoreSettings struct {
	Driver    string `hcl:"driver,optional"`
	Path      string `hcl:"path,optional"`
	RedisAddr string `hcl:"redis_addr,optional"`
	RedisDB   int    `hcl:"redis_db,optional"`
	RedisTTL  string `hcl:"redis_ttl,optional"`
}

// RoomSettings controls idle room expiry
type RoomSettings struct {
	IdleTimeout     string `hcl:"idle_timeout,optional"`
	CleanupInterval string `hcl:"cleanup_interval,optional"`
}

// NATSSettings enables cross-process broadcasts when URL is set
type NATSSettings struct {
	URL    string `hcl:"url,optional"`
	Prefix string `hcl:"prefix,optional"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	engine := game.DefaultConfig()
	rooms := room.DefaultConfig()

	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 120
	}

	if c.Game == nil {
		c.Game = &GameSettings{}
	}
	if c.Game.DefaultRuleset == "" {
		c.Game.DefaultRuleset = engine.DefaultRuleset
	}
	if c.Game.FallingDiceChance == 0 {
		c.Game.FallingDiceChance = engine.FallingDiceChance
	}
	if c.Game.FallingDiceStep == 0 {
		c.Game.FallingDiceStep = engine.FallingDiceStep
	}
	if c.Game.Replacement == "" {
		c.Game.Replacement = engine.Replacement.String()
	}

	if c.Store == nil {
		c.Store = &StoreSettings{}
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = "localhost:6379"
	}

	if c.Rooms == nil {
		c.Rooms = &RoomSettings{}
	}
	if c.Rooms.IdleTimeout == "" {
		c.Rooms.IdleTimeout = rooms.IdleTimeout.String()
	}
	if c.Rooms.CleanupInterval == "" {
		c.Rooms.CleanupInterval = rooms.CleanupInterval.String()
	}

	if c.NATS == nil {
		c.NATS = &NATSSettings{}
	}
	if c.NATS.Prefix == "" {
		c.NATS.Prefix = broadcast.DefaultSubjectPrefix
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.Game.FallingDiceChance < 0 || c.Game.FallingDiceChance > 1 {
		return fmt.Errorf("falling_dice_chance must be between 0 and 1")
	}
	if c.Game.FallingDiceStep < 0 {
		return fmt.Errorf("falling_dice_step must not be negative")
	}
	if _, err := parseReplacement(c.Game.Replacement); err != nil {
		return err
	}

	switch c.Store.Driver {
	case "memory":
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store %s requires a path", c.Store.Driver)
		}
	case "redis":
	default:
		return fmt.Errorf("unknown store driver: %s", c.Store.Driver)
	}

	durations := map[string]string{
		"store.redis_ttl":        c.Store.RedisTTL,
		"rooms.idle_timeout":     c.Rooms.IdleTimeout,
		"rooms.cleanup_interval": c.Rooms.CleanupInterval,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			return fmt.Errorf("invalid duration for %s: %q", name, value)
		}
	}
	if d, _ := time.ParseDuration(c.Rooms.CleanupInterval); d == 0 {
		return fmt.Errorf("rooms.cleanup_interval must be positive")
	}

	return nil
}

// Address returns the listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// EngineConfig converts the game block. Call Validate first.
func (c *Config) EngineConfig() game.Config {
	replacement, _ := parseReplacement(c.Game.Replacement)
	return game.Config{
		DefaultRuleset:    c.Game.DefaultRuleset,
		FallingDiceChance: c.Game.FallingDiceChance,
		FallingDiceStep:   c.Game.FallingDiceStep,
		Replacement:       replacement,
	}
}

// RoomConfig converts the rooms block. Call Validate first.
func (c *Config) RoomConfig() room.Config {
	idle, _ := time.ParseDuration(c.Rooms.IdleTimeout)
	interval, _ := time.ParseDuration(c.Rooms.CleanupInterval)
	return room.Config{IdleTimeout: idle, CleanupInterval: interval}
}

// StoreConfig converts the store block, taking the Redis password from the
// environment.
func (c *Config) StoreConfig() store.Config {
	ttl, _ := time.ParseDuration(c.Store.RedisTTL)
	return store.Config{
		Driver:        c.Store.Driver,
		Path:          c.Store.Path,
		RedisAddr:     c.Store.RedisAddr,
		RedisPassword: os.Getenv(EnvRedisPassword),
		RedisDB:       c.Store.RedisDB,
		RedisTTL:      ttl,
	}
}

// NATSOptions converts the nats block. ok is false when NATS is disabled.
func (c *Config) NATSOptions() (opts broadcast.NATSOptions, ok bool) {
	if c.NATS.URL == "" {
		return broadcast.NATSOptions{}, false
	}
	return broadcast.NATSOptions{
		URL:    c.NATS.URL,
		Token:  os.Getenv(EnvNATSToken),
		Prefix: c.NATS.Prefix,
	}, true
}

func parseReplacement(s string) (game.ReplacementPolicy, error) {
	switch s {
	case game.ReplaceNextInSeat.String():
		return game.ReplaceNextInSeat, nil
	case game.ReplaceRandom.String():
		return game.ReplaceRandom, nil
	default:
		return 0, fmt.Errorf("invalid replacement policy: %s", s)
	}
}
