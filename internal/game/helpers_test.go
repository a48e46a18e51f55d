package game

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/schocken/internal/randutil"
	"github.com/lox/schocken/internal/rules"
)

// scripted replays queued values. IntN falls back to 0 and Float64 to a
// value that never triggers a falling die.
type scripted struct {
	ints   []int
	floats []float64
}

func (s *scripted) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scripted) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.999
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

// faces queues die faces for the next rolls.
func (s *scripted) faces(f ...int) {
	for _, face := range f {
		s.ints = append(s.ints, face-1)
	}
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// testRuleset ranks 221 above 543 and declares its schockaus rule last.
func testRuleset() rules.Ruleset {
	return rules.Ruleset{
		ID:        "test",
		Name:      "Test",
		StackMax:  13,
		PlayFinal: true,
		Rules: []rules.Rule{
			{Dice: 221, Name: "Zwei Zwei Eins", Chips: 3},
			{Dice: 543, Name: "Straße", Chips: 2},
			{Dice: 111, Name: "Schock aus", Chips: rules.Schockaus},
		},
	}
}

func newTestEngine(t *testing.T, rng randutil.Source, config Config, rulesets ...rules.Ruleset) *Engine {
	t.Helper()
	var opts []rules.Option
	if len(rulesets) > 0 {
		opts = append(opts, rules.WithRulesets(rulesets...))
		config.DefaultRuleset = rulesets[0].ID
	}
	repo, err := rules.NewRepository(testLogger(), opts...)
	require.NoError(t, err)
	return NewEngine(repo, rng, quartz.NewMock(t), testLogger(), config)
}

// newStartedGame seats names in order. The first is admin and starts.
func newStartedGame(t *testing.T, e *Engine, req StartRequest, names ...string) *Game {
	t.Helper()
	g, err := e.NewGame("room", names[0])
	require.NoError(t, err)
	for _, name := range names[1:] {
		_, err := e.Join(g, JoinRequest{Name: name})
		require.NoError(t, err)
	}
	g.FirstUserID = g.Users[0].ID
	_, err = e.Start(g, g.Users[0].ID, req)
	require.NoError(t, err)
	return g
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func rollAll(t *testing.T, e *Engine, rng *scripted, g *Game, id int, hand [3]int) Result {
	t.Helper()
	rng.faces(hand[:]...)
	res, err := e.Roll(g, id, RollRequest{Dice: [3]bool{true, true, true}})
	require.NoError(t, err)
	return res
}

// playRound lets every player roll their hand once, stop, and reveal.
func playRound(t *testing.T, e *Engine, rng *scripted, g *Game, hands map[int][3]int) {
	t.Helper()
	for g.MoveUserID != NoUser {
		id := g.MoveUserID
		hand, found := hands[id]
		require.True(t, found, "no hand for user %d", id)
		rollAll(t, e, rng, g, id, hand)
		if g.MoveUserID == id {
			_, err := e.Finish(g, id)
			require.NoError(t, err)
		}
	}
	for _, u := range g.PlayingUsers() {
		_, err := e.Reveal(g, u.ID, RevealRequest{Visible: true})
		require.NoError(t, err)
	}
}

func byName(t *testing.T, g *Game, name string) *User {
	t.Helper()
	for _, u := range g.Users {
		if u.Name == name {
			return u
		}
	}
	t.Fatalf("no user %q", name)
	return nil
}

func chipTotal(g *Game) int {
	total := g.Stack
	for _, u := range g.ActiveUsers() {
		total += u.Chips
	}
	return total
}
