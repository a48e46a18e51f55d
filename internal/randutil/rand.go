// Package randutil centralises the random sources used for dice, falling
// dice decisions and random seat selection so every call site can be made
// deterministic in tests.
package randutil

import (
	rand "math/rand/v2"
	"sync"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// Source is the subset of *rand.Rand the engine draws from.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Both PCG seeds are derived from the one value so that all call sites get
// reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Die returns a face between 1 and 6.
func Die(src Source) int {
	return src.IntN(6) + 1
}

// Decision reports true with probability p.
func Decision(src Source, p float64) bool {
	if p <= 0 {
		return false
	}
	return src.Float64() < p
}

// Locked serialises access to a Source. *rand.Rand is not safe for
// concurrent use and one engine serves many rooms.
type Locked struct {
	mu  sync.Mutex
	src Source
}

// NewLocked wraps src.
func NewLocked(src Source) *Locked {
	return &Locked{src: src}
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}
