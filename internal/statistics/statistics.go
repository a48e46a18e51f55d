package statistics

import (
	"fmt"
	"math"
	"sort"
)

// GameResult is the outcome of one simulated game
type GameResult struct {
	Seed       int64 // RNG seed for this game (for replay)
	Rounds     int   // rounds played until a player lost the game
	LoserSeat  int   // 0-based seat of the loser
	Finale     bool  // a finale decided the game
	Schockouts int
	Throws     int
	FallenDice int
	Violations int // rounds after which chips were not conserved
}

// Statistics aggregates simulated games. Rounds per game is the sampled
// value for mean, spread and percentiles.
type Statistics struct {
	Games      int
	SumRounds  float64
	SumRounds2 float64   // Sum of squares for variance calculation
	Values     []float64 // Store all values for median/percentile calculation

	SeatLosses []int // losses per seat
	Finales    int
	Schockouts int
	Throws     int
	FallenDice int
	Violations int
}

// Add incorporates a game result
func (s *Statistics) Add(result GameResult) {
	rounds := float64(result.Rounds)
	s.Games++
	s.SumRounds += rounds
	s.SumRounds2 += rounds * rounds
	s.Values = append(s.Values, rounds)

	for len(s.SeatLosses) <= result.LoserSeat {
		s.SeatLosses = append(s.SeatLosses, 0)
	}
	s.SeatLosses[result.LoserSeat]++

	if result.Finale {
		s.Finales++
	}
	s.Schockouts += result.Schockouts
	s.Throws += result.Throws
	s.FallenDice += result.FallenDice
	s.Violations += result.Violations
}

// Mean returns the mean number of rounds per game
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumRounds / float64(s.Games)
}

// Variance returns the sample variance of rounds per game
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumRounds2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median rounds per game
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// LossRate returns the share of games lost from the given seat
func (s *Statistics) LossRate(seat int) float64 {
	if s.Games == 0 || seat < 0 || seat >= len(s.SeatLosses) {
		return 0
	}
	return float64(s.SeatLosses[seat]) / float64(s.Games)
}

// Validate checks the aggregate for internal consistency
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if len(s.Values) != s.Games {
		return fmt.Errorf("values array length (%d) does not match games count (%d)",
			len(s.Values), s.Games)
	}

	losses := 0
	for _, n := range s.SeatLosses {
		losses += n
	}
	if losses != s.Games {
		return fmt.Errorf("seat losses total (%d) does not match games count (%d)", losses, s.Games)
	}

	if s.Violations > 0 {
		return fmt.Errorf("chips were not conserved after %d rounds", s.Violations)
	}
	return nil
}
