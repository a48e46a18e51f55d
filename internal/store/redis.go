package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lox/schocken/internal/game"
)

const redisPrefix = "schocken:room:"

// RedisOptions configures the Redis backend. A zero TTL keeps rooms forever.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis stores rooms as JSON strings.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisFromClient(client, opts.TTL), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Load(ctx context.Context, key string) (*game.Game, error) {
	data, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", key, err)
	}
	return decode(key, data)
}

func (r *Redis) Save(ctx context.Context, g *game.Game) error {
	data, err := encode(g)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisPrefix+g.Key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save room %s: %w", g.Key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), redisPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan rooms: %w", err)
	}
	slices.Sort(keys)
	return keys, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
