package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	var s Statistics
	assert.Zero(t, s.Mean())
	assert.Zero(t, s.Variance())
	assert.Zero(t, s.StdError())
	assert.Zero(t, s.Median())
	assert.Zero(t, s.LossRate(0))
	assert.Error(t, s.Validate())
}

func TestAdd(t *testing.T) {
	var s Statistics
	s.Add(GameResult{Rounds: 10, LoserSeat: 2, Schockouts: 1, Throws: 40})
	s.Add(GameResult{Rounds: 20, LoserSeat: 0, Finale: true, Throws: 70, FallenDice: 1})
	s.Add(GameResult{Rounds: 30, LoserSeat: 2, Throws: 90})

	require.NoError(t, s.Validate())
	assert.Equal(t, 3, s.Games)
	assert.Equal(t, []int{1, 0, 2}, s.SeatLosses)
	assert.Equal(t, 1, s.Finales)
	assert.Equal(t, 1, s.Schockouts)
	assert.Equal(t, 200, s.Throws)
	assert.Equal(t, 1, s.FallenDice)

	assert.InDelta(t, 20.0, s.Mean(), 1e-9)
	assert.InDelta(t, 100.0, s.Variance(), 1e-9)
	assert.InDelta(t, 10.0, s.StdDev(), 1e-9)
	assert.InDelta(t, 20.0, s.Median(), 1e-9)
	assert.InDelta(t, 15.0, s.Percentile(0.25), 1e-9)
	assert.InDelta(t, 30.0, s.Percentile(1), 1e-9)
	assert.InDelta(t, 2.0/3.0, s.LossRate(2), 1e-9)

	low, high := s.ConfidenceInterval95()
	assert.Less(t, low, s.Mean())
	assert.Greater(t, high, s.Mean())
}

func TestValidateCatchesViolations(t *testing.T) {
	var s Statistics
	s.Add(GameResult{Rounds: 3, Violations: 1})
	assert.ErrorContains(t, s.Validate(), "not conserved")
}
