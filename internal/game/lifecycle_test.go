package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/schocken/internal/randutil"
)

func TestBasicRound(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{RulesetID: "test"}, "P1", "P2")
	p1, p2 := g.Users[0], g.Users[1]

	playRound(t, e, rng, g, map[int][3]int{
		p1.ID: {5, 4, 3},
		p2.ID: {2, 2, 1},
	})
	require.Equal(t, NoUser, g.MoveUserID)

	res, err := e.Distribute(g, p1.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Scoring)
	assert.Equal(t, p2.ID, res.Scoring.High.UserID)
	assert.Equal(t, p1.ID, res.Scoring.Low.UserID)
	assert.Equal(t, FromStack, res.Scoring.Source)

	assert.Equal(t, 3, p1.Chips)
	assert.Equal(t, 10, g.Stack)
	assert.Equal(t, p1.ID, g.FirstUserID)
	assert.Equal(t, p1.ID, g.MoveUserID)
	assert.Equal(t, StatusStarted, g.Status)
	assert.Equal(t, g.StackMax, chipTotal(g))
	assert.Equal(t, "3 Chip(s) von Stapel an P1", g.Message)
	assert.Equal(t, res.Scoring, g.LastScoring)
	for _, u := range g.Users {
		assert.Equal(t, 0, u.NumberDice)
		assert.Equal(t, [3]int{0, 0, 0}, u.Faces())
	}
}

func TestDistributeRequiresCompleteRound(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{RulesetID: "test"}, "P1", "P2")
	p1, p2 := g.Users[0], g.Users[1]

	_, err := e.Distribute(g, p1.ID)
	require.ErrorIs(t, err, ErrBusinessRule)

	rollAll(t, e, rng, g, p1.ID, [3]int{5, 4, 3})
	_, err = e.Finish(g, p1.ID)
	require.NoError(t, err)
	rollAll(t, e, rng, g, p2.ID, [3]int{2, 2, 1})

	_, err = e.Distribute(g, p1.ID)
	require.ErrorIs(t, err, ErrBusinessRule, "dice still hidden")
}

// loseHalf sets up loser one chip short of the stack maximum and plays a
// round in which winner is best and loser is last.
func loseHalf(t *testing.T, e *Engine, rng *scripted, g *Game, winner, loser *User) Result {
	t.Helper()
	for _, u := range g.ActiveUsers() {
		u.Chips = 0
	}
	loser.Chips = g.StackMax - 1
	g.Stack = 1

	hands := make(map[int][3]int)
	for _, u := range g.PlayingUsers() {
		hands[u.ID] = [3]int{5, 4, 3}
	}
	hands[winner.ID] = [3]int{2, 2, 1}
	hands[loser.ID] = [3]int{6, 4, 2}
	playRound(t, e, rng, g, hands)

	res, err := e.Distribute(g, winner.ID)
	require.NoError(t, err)
	require.Equal(t, loser.ID, res.Scoring.Low.UserID)
	return res
}

func TestHalfLossThenFinale(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{RulesetID: "test"}, "Anna", "Ben", "Cleo")
	anna, ben, cleo := g.Users[0], g.Users[1], g.Users[2]

	res := loseHalf(t, e, rng, g, anna, ben)
	assert.Equal(t, "Ben hat die Hälfte verloren", res.Message)
	assert.Equal(t, StatusStarted, g.Status)
	assert.Equal(t, 1, g.HalfCount)
	assert.Equal(t, 1, ben.HalfCount)
	assert.Equal(t, g.StackMax, g.Stack)
	assert.Equal(t, ben.ID, g.FirstUserID)
	for _, u := range g.Users {
		assert.Equal(t, 0, u.Chips)
		assert.False(t, u.Passive)
	}

	res = loseHalf(t, e, rng, g, ben, anna)
	assert.Equal(t, "Finale wird gespielt", res.Message)
	assert.Equal(t, StatusPlayFinal, g.Status)
	assert.Equal(t, 0, g.HalfCount)
	assert.False(t, anna.Passive)
	assert.False(t, ben.Passive)
	assert.True(t, cleo.Passive)
	assert.Equal(t, anna.ID, g.MoveUserID)

	res = loseHalf(t, e, rng, g, anna, ben)
	assert.Equal(t, "Ben hat das Finale verloren", res.Message)
	assert.Equal(t, StatusStarted, g.Status, "next game starts right away")
	assert.Equal(t, 1, ben.FinalCount)
	assert.Equal(t, 1, g.FinalCount)
	assert.Equal(t, ben.ID, g.FirstUserID)
	for _, u := range g.Users {
		assert.Equal(t, 0, u.HalfCount)
		assert.False(t, u.Passive)
		assert.Equal(t, 0, u.Chips)
	}
}

func TestSameHalfLoserLosesGame(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{RulesetID: "test"}, "Anna", "Ben", "Cleo")
	anna, ben := g.Users[0], g.Users[1]

	loseHalf(t, e, rng, g, anna, ben)
	res := loseHalf(t, e, rng, g, anna, ben)

	assert.Equal(t, "Ben hat beide Hälften und damit das Spiel verloren", res.Message)
	assert.Equal(t, StatusStarted, g.Status)
	assert.Equal(t, 0, g.HalfCount)
	assert.Equal(t, 1, ben.FinalCount)
	assert.Equal(t, 0, ben.HalfCount)
}

func TestGameWithoutFinale(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{StackMax: 7, PlayFinal: boolPtr(false)}, "Anna", "Ben")
	anna, ben := g.Users[0], g.Users[1]
	require.Equal(t, 7, g.StackMax)
	require.Equal(t, "test", g.RulesetID)

	res := loseHalf(t, e, rng, g, anna, ben)
	assert.Equal(t, "Ben hat das Spiel verloren", res.Message)
	assert.Equal(t, 1, ben.FinalCount)
	assert.Equal(t, 0, ben.HalfCount)
	assert.Equal(t, StatusStarted, g.Status)
	assert.Equal(t, 7, g.Stack)
}

func TestSchockaus(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{RulesetID: "test"}, "Anna", "Ben", "Cleo")
	anna, ben, cleo := g.Users[0], g.Users[1], g.Users[2]
	ben.Chips = 2
	g.Stack = 11

	playRound(t, e, rng, g, map[int][3]int{
		anna.ID: {1, 1, 1},
		ben.ID:  {5, 4, 3},
		cleo.ID: {6, 4, 2},
	})
	res, err := e.Distribute(g, anna.ID)
	require.NoError(t, err)

	assert.True(t, res.Scoring.Schockaus())
	assert.Equal(t, 13, res.Scoring.Chips)
	assert.Equal(t, cleo.ID, res.Scoring.ToID)
	assert.Equal(t, "Cleo hat die Hälfte verloren", res.Message)
	assert.Equal(t, 1, cleo.HalfCount)
	assert.Equal(t, 1, g.HalfCount)
	assert.Equal(t, 1, g.SchockoutCount)
	assert.Equal(t, cleo.ID, g.FirstUserID)
	assert.Equal(t, g.StackMax, chipTotal(g))
}

func TestApplyTransferSchockaus(t *testing.T) {
	g := rotationGame(3)
	g.StackMax = 13
	g.Stack = 4
	g.Users[0].Chips = 5
	g.Users[1].Chips = 4

	to, err := applyTransfer(g, &Scoring{Source: FromSchockaus, Chips: 13, FromName: "Schock aus", ToID: g.Users[2].ID, ToName: "C"})
	require.NoError(t, err)
	assert.Equal(t, g.Users[2], to)
	assert.Equal(t, 0, g.Stack)
	assert.Equal(t, 0, g.Users[0].Chips)
	assert.Equal(t, 0, g.Users[1].Chips)
	assert.Equal(t, 13, g.Users[2].Chips)
	assert.Equal(t, "Schock aus! Alle Chips an C", g.Message)
}

func TestFallingChanceGrowsOnLoss(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{RulesetID: "test", FallingDice: true}, "Anna", "Ben")

	loseHalf(t, e, rng, g, g.Users[0], g.Users[1])
	assert.InDelta(t, 0.0032, g.ChanceOfFallingDice, 1e-9)

	off := newStartedGame(t, e, StartRequest{RulesetID: "test"}, "Anna", "Ben")
	loseHalf(t, e, rng, off, off.Users[0], off.Users[1])
	assert.Zero(t, off.ChanceOfFallingDice)
}

func TestFinishRoundInvariantViolation(t *testing.T) {
	e := newTestEngine(t, &scripted{}, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{RulesetID: "test"}, "Anna", "Ben")
	loser := g.Users[1]
	loser.HalfCount = 2
	loser.Chips = g.StackMax

	_, err := e.finishRound(g, loser)
	require.ErrorIs(t, err, ErrInvariant)
}

func TestDeferredRoster(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{StackMax: 13, PlayFinal: boolPtr(false)}, "Anna", "Ben", "Cleo")
	anna, ben, cleo := g.Users[0], g.Users[1], g.Users[2]

	rollAll(t, e, rng, g, anna.ID, [3]int{6, 5, 1})
	require.False(t, g.PlayerChangesAllowed)

	res, err := e.MarkLeave(g, ben.ID, TargetRequest{UserID: ben.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ben wird nach dem Spiel entfernt", res.Message)
	require.NotNil(t, g.User(ben.ID))

	res, err = e.Join(g, JoinRequest{Name: "Dora"})
	require.NoError(t, err)
	dora := g.User(res.UserID)
	require.True(t, dora.PendingJoin)

	loseHalf(t, e, rng, g, anna, ben)

	assert.Nil(t, g.User(ben.ID))
	assert.Equal(t, cleo.ID, g.FirstUserID, "next seated member replaces the leaving loser")
	assert.Equal(t, cleo.ID, g.MoveUserID)
	assert.False(t, dora.PendingJoin)
	assert.Equal(t, StatusStarted, g.Status)
	assert.True(t, g.PlayerChangesAllowed)
	assert.Len(t, g.Users, 3)
}

func TestDeferredRandomReplacement(t *testing.T) {
	rng := &scripted{}
	config := DefaultConfig()
	config.Replacement = ReplaceRandom
	e := newTestEngine(t, rng, config, testRuleset())
	g := newStartedGame(t, e, StartRequest{StackMax: 13, PlayFinal: boolPtr(false)}, "Anna", "Ben", "Cleo")
	anna, ben := g.Users[0], g.Users[1]
	ben.LeaveAfterGame = true

	loseHalf(t, e, rng, g, anna, ben)
	assert.Equal(t, anna.ID, g.FirstUserID, "scripted pick of the first staying member")
}

func TestLobbyAfterGame(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{StackMax: 13, PlayFinal: boolPtr(false)}, "Anna", "Ben")
	anna, ben := g.Users[0], g.Users[1]

	_, err := e.ToggleLobby(g, anna.ID)
	require.NoError(t, err)
	require.True(t, g.LobbyAfterGame)

	loseHalf(t, e, rng, g, anna, ben)
	assert.Equal(t, StatusWaiting, g.Status)
	assert.False(t, g.LobbyAfterGame)
	assert.Equal(t, "Zurück in der Lobby", g.Message)
	assert.Equal(t, ben.ID, g.FirstUserID)
}

func TestCorrect(t *testing.T) {
	rng := &scripted{}
	e := newTestEngine(t, rng, DefaultConfig(), testRuleset())
	g := newStartedGame(t, e, StartRequest{RulesetID: "test"}, "Anna", "Ben")
	anna, ben := g.Users[0], g.Users[1]

	_, err := e.Correct(g, ben.ID, CorrectionRequest{Target: ben.ID, Count: 1, FromStack: true})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = e.Correct(g, anna.ID, CorrectionRequest{Target: ben.ID, Count: 14, FromStack: true})
	require.ErrorIs(t, err, ErrBusinessRule)

	_, err = e.Correct(g, anna.ID, CorrectionRequest{Target: ben.ID, Count: 1, FromStack: true, Schockaus: true})
	require.ErrorIs(t, err, ErrBusinessRule)

	_, err = e.Correct(g, anna.ID, CorrectionRequest{Target: ben.ID, Count: 4, FromStack: true})
	require.NoError(t, err)
	assert.Equal(t, 4, ben.Chips)
	assert.Equal(t, 9, g.Stack)
	assert.Equal(t, ben.ID, g.MoveUserID)

	_, err = e.Correct(g, anna.ID, CorrectionRequest{Target: anna.ID, Count: 5, SourceID: intPtr(ben.ID)})
	require.ErrorIs(t, err, ErrBusinessRule, "source lacks chips")

	_, err = e.Correct(g, anna.ID, CorrectionRequest{Target: anna.ID, Count: 2, SourceID: intPtr(ben.ID)})
	require.NoError(t, err)
	assert.Equal(t, 2, anna.Chips)
	assert.Equal(t, 2, ben.Chips)
	assert.Equal(t, g.StackMax, chipTotal(g))

	res, err := e.Correct(g, anna.ID, CorrectionRequest{Target: ben.ID, Schockaus: true})
	require.NoError(t, err)
	assert.Equal(t, "Ben hat die Hälfte verloren", res.Message)
	assert.Equal(t, 1, ben.HalfCount)
	assert.Equal(t, StatusStarted, g.Status)
	assert.Equal(t, g.StackMax, chipTotal(g))
}

func TestConservationOverRandomGames(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rng := randutil.New(seed)
		e := newTestEngine(t, rng, DefaultConfig())
		g, err := e.NewGame("sim", "Anna")
		require.NoError(t, err)
		for _, name := range []string{"Ben", "Cleo", "Dora"} {
			_, err := e.Join(g, JoinRequest{Name: name})
			require.NoError(t, err)
		}
		_, err = e.Start(g, g.Users[0].ID, StartRequest{RulesetID: "classic_13"})
		require.NoError(t, err)

		for round := 0; round < 150; round++ {
			for g.MoveUserID != NoUser {
				id := g.MoveUserID
				_, err := e.Roll(g, id, RollRequest{Dice: [3]bool{true, true, true}})
				require.NoError(t, err)
				if g.MoveUserID == id && rng.IntN(2) == 0 {
					_, err := e.Finish(g, id)
					require.NoError(t, err)
				}
			}
			for _, u := range g.PlayingUsers() {
				_, err := e.Reveal(g, u.ID, RevealRequest{Visible: true})
				require.NoError(t, err)
			}
			_, err := e.Distribute(g, g.Users[0].ID)
			require.NoError(t, err, "seed %d round %d", seed, round)

			require.Equal(t, g.StackMax, chipTotal(g), "seed %d round %d", seed, round)
			require.True(t, g.Status.Playable())
			mover := g.User(g.MoveUserID)
			require.NotNil(t, mover)
			require.False(t, mover.Passive)
			require.False(t, mover.PendingJoin)
		}
	}
}
