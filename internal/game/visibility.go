package game

import (
	"fmt"
	"slices"
)

const awaitingDistribution = "Warten auf Vergabe der Chips!"

// Reveal lifts or lowers the actor's dice cup.
func (e *Engine) Reveal(g *Game, actor int, req RevealRequest) (Result, error) {
	if err := g.requirePlayable(); err != nil {
		return Result{}, err
	}
	u, _, err := g.member(actor)
	if err != nil {
		return Result{}, err
	}
	if u.NumberDice == 0 {
		return Result{}, reject(ErrBusinessRule, "Du musst zuerst würfeln!")
	}

	for i := range u.Dice {
		u.Dice[i].Visible = req.Visible
	}
	if g.MoveUserID == NoUser && g.allDiceVisible() {
		g.Message = awaitingDistribution
	}
	return success("Hat geklappt!"), nil
}

// RevealThreshold is the number of votes that force every cup up. Pending
// members count towards the total.
func RevealThreshold(g *Game) int {
	return (len(g.Users) + 1) / 2
}

// VoteReveal records a vote to reveal every playing member's dice. An admin
// vote reveals immediately.
func (e *Engine) VoteReveal(g *Game, actor int) (Result, error) {
	if err := g.requirePlayable(); err != nil {
		return Result{}, err
	}
	if g.MoveUserID != NoUser {
		return Result{}, reject(ErrBusinessRule, "Runde ist noch nicht beendet")
	}
	if g.allDiceVisible() {
		return Result{}, reject(ErrBusinessRule, "Alle Würfel sind bereits aufgedeckt")
	}
	u, _, err := g.member(actor)
	if err != nil {
		return Result{}, err
	}

	if !g.hasVote(u.ID) {
		g.RevealVotes = append(g.RevealVotes, u.ID)
	}
	votes, threshold := len(g.RevealVotes), RevealThreshold(g)

	if u.IsAdmin || votes >= threshold {
		for _, p := range g.PlayingUsers() {
			for i := range p.Dice {
				p.Dice[i].Visible = true
			}
		}
		g.RevealVotes = nil
		g.Message = awaitingDistribution
		return success("Alle Würfel aufgedeckt"), nil
	}

	g.Message = fmt.Sprintf("Aufdecken! (%d/%d Stimmen für Alles aufdecken)", votes, threshold)
	return success("Stimme gezählt"), nil
}

// SortDice orders every playing member's dice high to low for comparison.
func (e *Engine) SortDice(g *Game, actor int) (Result, error) {
	if _, err := g.admin(actor); err != nil {
		return Result{}, err
	}
	if err := g.requirePlayable(); err != nil {
		return Result{}, err
	}
	if g.MoveUserID != NoUser || !g.allDiceVisible() {
		return Result{}, reject(ErrBusinessRule, "Warten bis alle aufgedeckt haben!")
	}

	for _, u := range g.PlayingUsers() {
		slices.SortFunc(u.Dice[:], func(a, b Die) int { return b.Face - a.Face })
	}
	return success("Würfel sortiert"), nil
}
