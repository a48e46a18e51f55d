package store

import (
	"context"
	"slices"
	"sync"

	"github.com/lox/schocken/internal/game"
)

// Memory keeps encoded rooms in process memory.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rooms: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, key string) (*game.Game, error) {
	m.mu.RLock()
	data, ok := m.rooms[key]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(key)
	}
	return decode(key, data)
}

func (m *Memory) Save(_ context.Context, g *game.Game) error {
	data, err := encode(g)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.rooms[g.Key] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.rooms, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.rooms))
	for k := range m.rooms {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
