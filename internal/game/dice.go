package game

import (
	"fmt"

	"github.com/lox/schocken/internal/randutil"
)

// turnHolder resolves the actor and checks that it is their move.
func (g *Game) turnHolder(actor int) (*User, int, error) {
	if err := g.requirePlayable(); err != nil {
		return nil, -1, err
	}
	u, seat, err := g.member(actor)
	if err != nil {
		return nil, -1, err
	}
	if u.ID != g.MoveUserID {
		return nil, -1, reject(ErrNotYourTurn, "Du bist nicht dran!")
	}
	return u, seat, nil
}

// Roll rerolls the flagged dice of the player whose turn it is. Dice that
// are not flagged stay as they are and are shown to the table.
func (e *Engine) Roll(g *Game, actor int, req RollRequest) (Result, error) {
	if err := g.requirePlayable(); err != nil {
		return Result{}, err
	}
	if len(g.ActiveUsers()) < 2 {
		return Result{}, reject(ErrBusinessRule, "Nicht genug Mitspieler")
	}
	u, seat, err := g.turnHolder(actor)
	if err != nil {
		return Result{}, err
	}

	limit := RollCap(g, u)
	if u.NumberDice >= MaxRolls {
		return Result{}, reject(ErrBusinessRule, "Du hast schon dreimal gewürfelt!")
	}
	if u.NumberDice >= limit {
		return Result{}, reject(ErrBusinessRule, "Du darfst nur %d mal würfeln", limit)
	}
	if !req.any() {
		return Result{}, reject(ErrBusinessRule, "Keine Würfel ausgewählt")
	}
	for i, d := range u.Dice {
		if !d.Set() && !req.Dice[i] {
			if u.NumberDice == 0 {
				return Result{}, reject(ErrBusinessRule, "Beim ersten Wurf müssen alle Würfel geworfen werden")
			}
			return Result{}, reject(ErrBusinessRule, "Nach dem Verwandeln von Sechsen in Einsen musst Du nochmal würfeln")
		}
	}

	if randutil.Decision(e.rng, g.ChanceOfFallingDice) {
		g.FallingDiceCount++
		g.Message = fmt.Sprintf("Hoppla, %s ist ein Würfel vom Tisch gefallen!", u.Name)
		dice := u.Dice
		e.logger.Debug("Falling dice", "room", g.Key, "user", u.Name, "chance", g.ChanceOfFallingDice)
		return Result{Message: g.Message, Fallen: true, Dice: &dice}, nil
	}

	g.PlayerChangesAllowed = false
	if u.NumberDice == 0 && u.PenaltyCount > 0 && g.Stack == 0 && u.Chips == 0 && g.Status != StatusPlayFinal {
		u.PenaltyCount--
	}

	u.NumberDice++
	for i := range u.Dice {
		if req.Dice[i] {
			u.Dice[i] = Die{Face: randutil.Die(e.rng)}
		} else {
			u.Dice[i].Visible = true
		}
	}

	if u.Hand() == 111 {
		g.SchockoutCount++
	}
	g.ThrowDiceCount++

	if u.NumberDice >= limit {
		advanceTurn(g, seat)
	}

	dice := u.Dice
	return Result{Message: fmt.Sprintf("%s hat zum %d. Mal gewürfelt", u.Name, u.NumberDice), Dice: &dice}, nil
}

// Finish ends the turn before the roll limit is reached.
func (e *Engine) Finish(g *Game, actor int) (Result, error) {
	u, seat, err := g.turnHolder(actor)
	if err != nil {
		return Result{}, err
	}
	if (g.Stack != 0 || u.Chips != 0) && u.NumberDice == 0 {
		return Result{}, reject(ErrBusinessRule, "Du musst mindestens einmal würfeln!")
	}
	if u.hasUnsetDie() {
		return Result{}, reject(ErrBusinessRule, "Nach dem Verwandeln von Sechsen in Einsen musst Du nochmal würfeln")
	}

	advanceTurn(g, seat)
	return success("%s hat nach %d Würfen aufgehört", u.Name, u.NumberDice), nil
}

// TurnSixes converts sixes into ones. The freed die must be rerolled.
func (e *Engine) TurnSixes(g *Game, actor int, req TurnRequest) (Result, error) {
	u, _, err := g.turnHolder(actor)
	if err != nil {
		return Result{}, err
	}
	if u.NumberDice >= RollCap(g, u) {
		return Result{}, reject(ErrBusinessRule, "Du musst nach dem Umdrehen noch würfeln können")
	}

	d := &u.Dice
	switch req.Count {
	case 1:
		pairs := [][2]int{{0, 1}, {1, 2}, {0, 2}}
		turned := false
		for _, p := range pairs {
			if d[p[0]].Face == 6 && d[p[1]].Face == 6 {
				d[p[0]].Face = 1
				d[p[1]].Face = 0
				turned = true
				break
			}
		}
		if !turned {
			return Result{}, reject(ErrBusinessRule, "Keine zwei Sechsen gefunden")
		}
	case 2:
		if d[0].Face != 6 || d[1].Face != 6 || d[2].Face != 6 {
			return Result{}, reject(ErrBusinessRule, "Keine drei Sechsen gefunden")
		}
		d[0].Face = 1
		d[1].Face = 1
		d[2].Face = 0
	default:
		return Result{}, reject(ErrBusinessRule, "Anzahl muss 1 oder 2 sein")
	}

	dice := u.Dice
	return Result{Message: fmt.Sprintf("%s hat Sechsen umgedreht", u.Name), Dice: &dice}, nil
}

// UndoTurn turns a converted one back into a six and optionally restores the
// freed die as a six.
func (e *Engine) UndoTurn(g *Game, actor int, req UndoTurnRequest) (Result, error) {
	u, _, err := g.turnHolder(actor)
	if err != nil {
		return Result{}, err
	}
	if req.Revert == nil && req.Restore == nil {
		return Result{}, reject(ErrBusinessRule, "Kein Würfel angegeben")
	}

	faces := u.Faces()
	if req.Revert != nil {
		i := *req.Revert - 1
		if i < 0 || i > 2 || faces[i] != 1 {
			return Result{}, reject(ErrBusinessRule, "Ungültiger Würfel zum Zurücksetzen")
		}
		faces[i] = 6
	}
	if req.Restore != nil {
		i := *req.Restore - 1
		if i < 0 || i > 2 || faces[i] != 0 {
			return Result{}, reject(ErrBusinessRule, "Ungültiger Würfel zum Wiederherstellen")
		}
		faces[i] = 6
	}

	for i := range u.Dice {
		u.Dice[i].Face = faces[i]
	}
	dice := u.Dice
	return Result{Message: "Umdrehen rückgängig gemacht", Dice: &dice}, nil
}

// SetPassive lets a player sit out or rejoin the current round. Pausing
// while chips are at stake is penalised with a forced roll.
func (e *Engine) SetPassive(g *Game, actor int, req PassiveRequest) (Result, error) {
	if err := g.requirePlayable(); err != nil {
		return Result{}, err
	}
	u, seat, err := g.member(actor)
	if err != nil {
		return Result{}, err
	}
	if u.PendingJoin {
		return Result{}, reject(ErrBusinessRule, "Du spielst erst ab dem nächsten Spiel mit")
	}

	if g.Status == StatusPlayFinal {
		return Result{}, reject(ErrBusinessRule, "Pause im Finale nicht erlaubt")
	}

	if req.Passive {
		if !u.Passive {
			if u.PenaltyCount > 0 {
				return Result{}, reject(ErrBusinessRule, "Du musst Dich %d mal Einwürfeln bevor Du pausieren darfst", u.PenaltyCount)
			}
			if err := penalise(g, u); err != nil {
				return Result{}, err
			}
		}
	}

	u.Passive = req.Passive
	if req.Passive && u.ID == g.MoveUserID {
		advanceTurn(g, seat)
	}
	if req.Passive {
		return success("%s pausiert", u.Name), nil
	}
	return success("%s spielt wieder mit", u.Name), nil
}

// penalise records an invalid pause attempt. The returned rejection is
// persistent so the increment is saved.
func penalise(g *Game, u *User) error {
	onStack := g.Stack > 0
	ownChips := u.Chips > 0
	if !onStack && !ownChips {
		return nil
	}

	u.PenaltyCount++
	var reason string
	switch {
	case onStack && ownChips:
		g.Message = fmt.Sprintf("%s: Pause trotz Chips auf Stapel und eigener Chips", u.Name)
		reason = "Chips auf dem Stapel und eigener Chips"
	case onStack:
		g.Message = fmt.Sprintf("%s: Pause trotz Chips auf Stapel", u.Name)
		reason = "Chips auf dem Stapel"
	default:
		g.Message = fmt.Sprintf("%s: Pause trotz Chips", u.Name)
		reason = "eigener Chips"
	}

	err := reject(ErrBusinessRule, "Pausierversuch trotz %s. Dafür musst Du Dich %d mal Einwürfeln", reason, u.PenaltyCount)
	err.Persist = true
	return err
}
