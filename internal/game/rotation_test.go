package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rotationGame(n int) *Game {
	g := &Game{Status: StatusStarted}
	for i := 0; i < n; i++ {
		g.addUser(string(rune('A' + i)))
	}
	g.FirstUserID = g.Users[0].ID
	g.MoveUserID = g.FirstUserID
	return g
}

func TestNextActiveCompletesOnNthCall(t *testing.T) {
	for n := 2; n <= 6; n++ {
		g := rotationGame(n)
		seat := 0
		completions := 0
		for call := 1; call <= n; call++ {
			next, complete := NextActive(g, seat)
			if complete {
				completions++
				assert.Equal(t, n, call, "round with %d players completed early", n)
				assert.Equal(t, NoUser, next)
				break
			}
			seat = g.Seat(next)
			require.GreaterOrEqual(t, seat, 0)
		}
		assert.Equal(t, 1, completions, "players=%d", n)
	}
}

func TestNextActiveSkipsPassiveAndPending(t *testing.T) {
	g := rotationGame(5)
	g.Users[1].Passive = true
	g.Users[2].PendingJoin = true

	next, complete := NextActive(g, 0)
	assert.False(t, complete)
	assert.Equal(t, g.Users[3].ID, next)

	next, complete = NextActive(g, 3)
	assert.False(t, complete)
	assert.Equal(t, g.Users[4].ID, next)

	_, complete = NextActive(g, 4)
	assert.True(t, complete)
}

func TestNextActiveStarterMidTable(t *testing.T) {
	g := rotationGame(4)
	g.FirstUserID = g.Users[2].ID

	next, complete := NextActive(g, 3)
	assert.False(t, complete)
	assert.Equal(t, g.Users[0].ID, next)

	_, complete = NextActive(g, 1)
	assert.True(t, complete)
}

func TestNextActiveNeedsTwoPlayers(t *testing.T) {
	g := rotationGame(3)
	g.Users[1].PendingJoin = true
	g.Users[2].PendingJoin = true

	next, complete := NextActive(g, 0)
	assert.True(t, complete)
	assert.Equal(t, NoUser, next)
}

func TestRollCap(t *testing.T) {
	g := rotationGame(3)
	starter, other := g.Users[0], g.Users[1]

	assert.Equal(t, MaxRolls, RollCap(g, starter))
	assert.Equal(t, MaxRolls, RollCap(g, other), "starter has not rolled yet")

	starter.NumberDice = 2
	assert.Equal(t, MaxRolls, RollCap(g, starter))
	assert.Equal(t, 2, RollCap(g, other))

	starter.Passive = true
	assert.Equal(t, MaxRolls, RollCap(g, other))
}

func TestRollCapFollowsStarter(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig())
	g := newStartedGame(t, e, StartRequest{RulesetID: "classic_13"}, "Anna", "Ben")
	anna, ben := g.Users[0], g.Users[1]

	rollAll(t, e, rng, g, anna.ID, [3]int{6, 5, 2})
	rollAll(t, e, rng, g, anna.ID, [3]int{6, 5, 3})
	_, err := e.Finish(g, anna.ID)
	require.NoError(t, err)
	require.Equal(t, ben.ID, g.MoveUserID)

	rollAll(t, e, rng, g, ben.ID, [3]int{2, 3, 4})
	assert.Equal(t, ben.ID, g.MoveUserID)
	rollAll(t, e, rng, g, ben.ID, [3]int{2, 3, 5})

	assert.Equal(t, 2, ben.NumberDice)
	assert.Equal(t, NoUser, g.MoveUserID, "second roll ends the round")

	rng.faces(1, 1, 1)
	_, err = e.Roll(g, ben.ID, RollRequest{Dice: [3]bool{true, true, true}})
	require.ErrorIs(t, err, ErrNotYourTurn)
	assert.Equal(t, 2, ben.NumberDice)
}
