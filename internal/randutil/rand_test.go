package randutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 20; i++ {
		require.Equal(t, a.IntN(1000), b.IntN(1000))
	}
}

func TestDieRange(t *testing.T) {
	src := New(7)
	seen := map[int]bool{}
	for i := 0; i < 600; i++ {
		face := Die(src)
		require.GreaterOrEqual(t, face, 1)
		require.LessOrEqual(t, face, 6)
		seen[face] = true
	}
	assert.Len(t, seen, 6)
}

func TestDecision(t *testing.T) {
	src := New(1)
	for i := 0; i < 100; i++ {
		assert.False(t, Decision(src, 0))
		assert.True(t, Decision(src, 1))
	}
}

func TestLockedConcurrentUse(t *testing.T) {
	l := NewLocked(New(3))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = Die(l)
				_ = l.Float64()
			}
		}()
	}
	wg.Wait()
}
