package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/schocken/internal/game"
	"github.com/lox/schocken/internal/roomkey"
)

func sampleGame(t *testing.T) *game.Game {
	t.Helper()
	key, err := roomkey.New()
	require.NoError(t, err)
	return &game.Game{
		Key:         key,
		Status:      game.StatusStarted,
		Stack:       9,
		StackMax:    13,
		PlayFinal:   true,
		FirstUserID: 1,
		MoveUserID:  2,
		RulesetID:   "classic_13",
		RevealVotes: []int{2},
		Users: []*game.User{
			{ID: 1, Name: "Anna", IsAdmin: true, Chips: 3, NumberDice: 2,
				Dice: [3]game.Die{{Face: 6, Visible: true}, {Face: 1}, {Face: 1}}},
			{ID: 2, Name: "Ben", Chips: 1},
		},
		NextUserID: 3,
		Refreshed:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// testBackend runs the behaviour every backend must share.
func testBackend(t *testing.T, s Backend) {
	ctx := context.Background()

	t.Run("missing room", func(t *testing.T) {
		_, err := s.Load(ctx, "01h455vb4pex5vsknk084sn02q")
		require.ErrorIs(t, err, game.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		g := sampleGame(t)
		require.NoError(t, s.Save(ctx, g))

		got, err := s.Load(ctx, g.Key)
		require.NoError(t, err)
		assert.Equal(t, g.Users, got.Users, "seat order and dice survive")
		assert.Equal(t, g.RevealVotes, got.RevealVotes)
		assert.True(t, g.Refreshed.Equal(got.Refreshed))
		assert.Equal(t, g.Stack, got.Stack)

		got.Users[0].Chips = 10
		again, err := s.Load(ctx, g.Key)
		require.NoError(t, err)
		assert.Equal(t, 3, again.Users[0].Chips, "loaded games are independent copies")
	})

	t.Run("overwrite keys delete", func(t *testing.T) {
		a, b := sampleGame(t), sampleGame(t)
		require.NoError(t, s.Save(ctx, a))
		require.NoError(t, s.Save(ctx, b))

		a.Stack = 0
		require.NoError(t, s.Save(ctx, a))
		got, err := s.Load(ctx, a.Key)
		require.NoError(t, err)
		assert.Zero(t, got.Stack)

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, a.Key)
		assert.Contains(t, keys, b.Key)

		require.NoError(t, s.Delete(ctx, a.Key))
		_, err = s.Load(ctx, a.Key)
		require.ErrorIs(t, err, game.ErrNotFound)
		require.NoError(t, s.Delete(ctx, a.Key), "deleting twice is fine")

		keys, err = s.Keys(ctx)
		require.NoError(t, err)
		assert.NotContains(t, keys, a.Key)
	})
}

func TestMemory(t *testing.T) {
	testBackend(t, NewMemory())
}

func TestFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rooms")
	s, err := NewFile(dir)
	require.NoError(t, err)
	testBackend(t, s)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	keys, err := s.Keys(context.Background())
	require.NoError(t, err)
	for _, k := range keys {
		assert.NoError(t, roomkey.Validate(k))
	}

	_, err = s.Load(context.Background(), "../etc/passwd")
	require.ErrorIs(t, err, game.ErrNotFound)
}

func TestWriteAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "room.json")
	require.NoError(t, writeAtomic(path, []byte("one"), 0o644))
	require.NoError(t, writeAtomic(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "rooms.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	testBackend(t, s)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("SCHOCKEN_TEST_REDIS")
	if addr == "" {
		t.Skip("SCHOCKEN_TEST_REDIS not set")
	}
	s, err := NewRedis(context.Background(), RedisOptions{Addr: addr, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	testBackend(t, s)
}

func TestOpen(t *testing.T) {
	logger := log.New(io.Discard)
	ctx := context.Background()

	s, err := Open(ctx, Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Config{Driver: "file", Path: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &File{}, s)

	_, err = Open(ctx, Config{Driver: "file"}, logger)
	require.Error(t, err)

	_, err = Open(ctx, Config{Driver: "postgres"}, logger)
	require.ErrorContains(t, err, "unknown store driver")
}
