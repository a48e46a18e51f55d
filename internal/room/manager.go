// Package room owns the lifecycle of game rooms: creation, serialized
// mutation, persistence and fan-out of snapshots after every change.
package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/schocken/internal/game"
	"github.com/lox/schocken/internal/roomkey"
)

// Store persists games by room key. Load returns an error wrapping
// game.ErrNotFound for unknown keys.
type Store interface {
	Load(ctx context.Context, key string) (*game.Game, error)
	Save(ctx context.Context, g *game.Game) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Publisher delivers snapshots to whoever watches a room.
type Publisher interface {
	Publish(ctx context.Context, key string, snap *game.Snapshot) error
}

// Op is a single engine action applied to a private copy of a game.
type Op func(g *game.Game) (game.Result, error)

// Config controls room expiry.
type Config struct {
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns the room defaults.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// Manager serializes actions per room. Different rooms proceed in parallel.
type Manager struct {
	engine    *game.Engine
	store     Store
	publisher Publisher
	keys      *roomkey.Generator
	clock     quartz.Clock
	config    Config
	logger    *log.Logger

	mu    sync.Mutex
	locks map[string]*roomLock
}

// roomLock is dropped from the map once nobody holds or waits for it.
type roomLock struct {
	sync.Mutex
	refs int
}

// Option configures a Manager.
type Option func(*Manager)

// WithKeyGenerator overrides the room key source.
func WithKeyGenerator(keys *roomkey.Generator) Option {
	return func(m *Manager) { m.keys = keys }
}

// WithConfig overrides the expiry settings.
func WithConfig(config Config) Option {
	return func(m *Manager) { m.config = config }
}

// NewManager creates a room manager. publisher may be nil.
func NewManager(engine *game.Engine, store Store, publisher Publisher, clock quartz.Clock, logger *log.Logger, opts ...Option) *Manager {
	m := &Manager{
		engine:    engine,
		store:     store,
		publisher: publisher,
		keys:      roomkey.NewGenerator(nil),
		clock:     clock,
		config:    DefaultConfig(),
		logger:    logger.WithPrefix("room"),
		locks:     make(map[string]*roomLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Engine returns the engine actions run against.
func (m *Manager) Engine() *game.Engine {
	return m.engine
}

func (m *Manager) lock(key string) func() {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &roomLock{}
		m.locks[key] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, key)
		}
		m.mu.Unlock()
	}
}

// lockCount reports how many room locks are live.
func (m *Manager) lockCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// Create opens a new room with adminName as its first member.
func (m *Manager) Create(ctx context.Context, adminName string) (*game.Game, error) {
	key, err := m.keys.New()
	if err != nil {
		return nil, err
	}
	g, err := m.engine.NewGame(key, adminName)
	if err != nil {
		return nil, err
	}

	unlock := m.lock(key)
	defer unlock()

	g.Refreshed = m.clock.Now()
	if err := m.store.Save(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to save room %s: %w", key, err)
	}
	m.logger.Info("Room created", "room", key, "admin", g.Users[0].Name)
	m.publish(ctx, g)
	return g, nil
}

// Get loads the current state of a room.
func (m *Manager) Get(ctx context.Context, key string) (*game.Game, error) {
	return m.store.Load(ctx, key)
}

// Snapshot returns the room as seen by viewer.
func (m *Manager) Snapshot(ctx context.Context, key string, viewer int) (*game.Snapshot, error) {
	g, err := m.store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return m.engine.Snapshot(g, viewer), nil
}

// Do runs op against a copy of the room. The copy replaces the stored game
// when op succeeds, or when it fails with a rejection that still recorded
// state. Nothing is written otherwise.
func (m *Manager) Do(ctx context.Context, key string, op Op) (game.Result, error) {
	res, _, err := m.apply(ctx, key, op, nil)
	return res, err
}

// DoView is Do that also returns the committed room as seen by
// viewer(result). The snapshot is taken before the room is unlocked, so it
// reflects exactly this action. It is nil when nothing was committed.
func (m *Manager) DoView(ctx context.Context, key string, op Op, viewer func(game.Result) int) (game.Result, *game.Snapshot, error) {
	return m.apply(ctx, key, op, viewer)
}

func (m *Manager) apply(ctx context.Context, key string, op Op, viewer func(game.Result) int) (game.Result, *game.Snapshot, error) {
	unlock := m.lock(key)
	defer unlock()

	current, err := m.store.Load(ctx, key)
	if err != nil {
		return game.Result{}, nil, err
	}

	next := current.Clone()
	res, opErr := op(next)
	if opErr != nil && !game.Persistent(opErr) {
		m.logger.Debug("Action rejected", "room", key, "error", opErr)
		return res, nil, opErr
	}

	next.Refreshed = m.clock.Now()
	if err := m.store.Save(ctx, next); err != nil {
		return game.Result{}, nil, fmt.Errorf("failed to save room %s: %w", key, err)
	}
	m.publish(ctx, next)

	var snap *game.Snapshot
	if viewer != nil {
		snap = m.engine.Snapshot(next, viewer(res))
	}
	return res, snap, opErr
}

// Delete removes a room.
func (m *Manager) Delete(ctx context.Context, key string) error {
	unlock := m.lock(key)
	defer unlock()

	return m.store.Delete(ctx, key)
}

func (m *Manager) publish(ctx context.Context, g *game.Game) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, g.Key, m.engine.Snapshot(g, game.NoUser)); err != nil {
		m.logger.Warn("Failed to publish snapshot", "room", g.Key, "error", err)
	}
}

// Cleanup deletes rooms idle for longer than the configured timeout and
// returns how many were removed.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	keys, err := m.store.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list rooms: %w", err)
	}

	cutoff := m.clock.Now().Add(-m.config.IdleTimeout)
	removed := 0
	for _, key := range keys {
		expired, err := m.expired(ctx, key, cutoff)
		if err != nil {
			m.logger.Warn("Skipping room during cleanup", "room", key, "error", err)
			continue
		}
		if expired {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("Removed idle rooms", "count", removed)
	}
	return removed, nil
}

func (m *Manager) expired(ctx context.Context, key string, cutoff time.Time) (bool, error) {
	unlock := m.lock(key)
	defer unlock()

	g, err := m.store.Load(ctx, key)
	if errors.Is(err, game.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !g.Refreshed.Before(cutoff) {
		return false, nil
	}
	if err := m.store.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

// Run removes idle rooms on every cleanup interval until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	w := m.clock.TickerFunc(ctx, m.config.CleanupInterval, func() error {
		if _, err := m.Cleanup(ctx); err != nil {
			m.logger.Error("Room cleanup failed", "error", err)
		}
		return nil
	}, "room", "cleanup")

	err := w.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
