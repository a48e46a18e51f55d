// Package store implements room persistence backends. Every backend stores
// a game as one JSON document under its room key.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/schocken/internal/game"
)

// Backend is a room store that holds external resources.
type Backend interface {
	Load(ctx context.Context, key string) (*game.Game, error)
	Save(ctx context.Context, g *game.Game) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	io.Closer
}

// Config selects and configures a backend.
type Config struct {
	Driver string // memory, file, redis or sqlite
	Path   string // directory for file, database path for sqlite

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

// Open creates the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (Backend, error) {
	logger = logger.WithPrefix("store")
	logger.Info("Opening room store", "driver", cfg.Driver, "path", cfg.Path)

	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Path)
	case "redis":
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
	case "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func notFound(key string) error {
	return &game.Error{Kind: game.ErrNotFound, Message: fmt.Sprintf("Spiel %s nicht gefunden", key)}
}

func encode(g *game.Game) ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to encode room %s: %w", g.Key, err)
	}
	return data, nil
}

func decode(key string, data []byte) (*game.Game, error) {
	var g game.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode room %s: %w", key, err)
	}
	return &g, nil
}
