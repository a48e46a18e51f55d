package game

import "fmt"

// finishRound evaluates the loser of a transfer. When the loser's chips
// reach the stack maximum the half, finale or game ends. Every active
// player's dice are reset for the next round either way.
func (e *Engine) finishRound(g *Game, loser *User) (string, error) {
	message := g.Message

	if loser.Chips >= g.StackMax {
		if g.ChanceOfFallingDice > 0 {
			g.ChanceOfFallingDice += e.config.FallingDiceStep
		}

		switch {
		case !g.PlayFinal:
			loser.FinalCount++
			g.FinalCount++
			g.Status = StatusGameFinish
			g.Stack = g.StackMax
			message = fmt.Sprintf("%s hat das Spiel verloren", loser.Name)
			g.Message = message

		case g.Status == StatusPlayFinal:
			loser.FinalCount++
			g.FinalCount++
			g.Status = StatusGameFinish
			g.HalfCount = 0
			g.Stack = g.StackMax
			message = fmt.Sprintf("%s hat das Finale verloren", loser.Name)
			g.Message = message

		case loser.HalfCount == 1:
			loser.FinalCount++
			g.FinalCount++
			g.Status = StatusGameFinish
			g.HalfCount = 0
			g.Stack = g.StackMax
			message = fmt.Sprintf("%s hat beide Hälften und damit das Spiel verloren", loser.Name)
			g.Message = message

		case loser.HalfCount == 0:
			g.Stack = g.StackMax
			g.HalfCount++
			loser.HalfCount++
			if g.HalfCount == 2 {
				g.Status = StatusPlayFinal
				g.HalfCount = 0
				for _, u := range g.ActiveUsers() {
					u.Chips = 0
					u.Passive = u.HalfCount != 1
				}
				message = "Finale wird gespielt"
				g.Message = "Finale wird gespielt, grau hinterlegte Spieler müssen warten"
			} else {
				g.Status = StatusRoundFinish
				message = fmt.Sprintf("%s hat die Hälfte verloren", loser.Name)
				g.Message = message
			}

		default:
			e.logger.Error("Unexpected half count", "room", g.Key, "user", loser.ID, "halfcount", loser.HalfCount)
			return "", reject(ErrInvariant, "Fehler")
		}
		e.logger.Info("Loss", "room", g.Key, "user", loser.Name, "status", g.Status)
	}

	for _, u := range g.ActiveUsers() {
		switch g.Status {
		case StatusRoundFinish:
			u.Chips = 0
			u.Passive = false
		case StatusGameFinish:
			u.Chips = 0
			u.Passive = false
			u.HalfCount = 0
		case StatusPlayFinal:
			if u.HalfCount == 0 {
				u.Passive = true
			}
		}
		u.resetDice()
	}
	return message, nil
}

// continueGame moves past the transient end states: a finished round starts
// the next one and a finished game runs the deferred roster pass.
func (e *Engine) continueGame(g *Game) {
	switch g.Status {
	case StatusRoundFinish:
		g.Status = StatusStarted
	case StatusGameFinish:
		e.executeDeferred(g)
	}
}

// executeDeferred applies the roster changes queued during the game and
// starts the next game or returns to the lobby.
func (e *Engine) executeDeferred(g *Game) {
	loserID := g.FirstUserID

	for _, u := range g.Users {
		if u.PendingJoin {
			u.PendingJoin = false
			u.Chips = 0
			u.resetDice()
		}
	}

	if loser := g.User(loserID); loser != nil && loser.LeaveAfterGame {
		loserID = e.replacementFor(g, g.Seat(loserID))
		e.logger.Debug("Loser leaves, picked new starter", "room", g.Key, "starter", loserID, "policy", e.config.Replacement)
	}

	var leaving []int
	for _, u := range g.Users {
		if u.LeaveAfterGame {
			leaving = append(leaving, u.ID)
		}
	}
	for _, id := range leaving {
		g.removeUser(id)
	}

	g.FirstUserID = loserID
	g.MoveUserID = loserID
	g.RevealVotes = nil
	g.Stack = g.StackMax
	g.PlayerChangesAllowed = true

	if g.LobbyAfterGame {
		g.Status = StatusWaiting
		g.LobbyAfterGame = false
		g.Message = "Zurück in der Lobby"
	} else {
		g.Status = StatusStarted
	}
	for _, u := range g.Users {
		u.Chips = 0
		u.Passive = false
		u.LeaveAfterGame = false
		u.resetDice()
	}
}

// replacementFor picks the starter of the next game when the loser at seat
// leaves.
func (e *Engine) replacementFor(g *Game, seat int) int {
	if e.config.Replacement == ReplaceRandom {
		var staying []*User
		for _, u := range g.Users {
			if !u.LeaveAfterGame {
				staying = append(staying, u)
			}
		}
		if len(staying) == 0 {
			return NoUser
		}
		return staying[e.rng.IntN(len(staying))].ID
	}
	return nextEligible(g, seat, func(u *User) bool { return !u.LeaveAfterGame })
}
