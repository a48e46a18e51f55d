package game

import "fmt"

// applyTransfer moves the chips decided by s. The loser starts the next
// round.
func applyTransfer(g *Game, s *Scoring) (*User, error) {
	to := g.User(s.ToID)
	if to == nil {
		return nil, reject(ErrUnresolvable, "Zielspieler nicht gefunden")
	}

	switch s.Source {
	case FromSchockaus:
		for _, u := range g.ActiveUsers() {
			u.Chips = 0
		}
		to.Chips = g.StackMax
		g.Stack = 0
		g.Message = fmt.Sprintf("%s! Alle Chips an %s", s.FromName, s.ToName)
	case FromStack:
		g.Stack -= s.Chips
		to.Chips += s.Chips
		g.Message = fmt.Sprintf("%d Chip(s) von %s an %s", s.Chips, s.FromName, s.ToName)
	case FromPlayer:
		from := g.User(s.FromID)
		if from == nil {
			return nil, reject(ErrUnresolvable, "Spieler %d nicht gefunden", s.FromID)
		}
		from.Chips -= s.Chips
		to.Chips += s.Chips
		g.Message = fmt.Sprintf("%d Chip(s) von %s an %s", s.Chips, s.FromName, s.ToName)
	}

	g.FirstUserID = to.ID
	g.MoveUserID = to.ID
	return to, nil
}

// Distribute scores the finished round and hands out the chips.
func (e *Engine) Distribute(g *Game, actor int) (Result, error) {
	if _, _, err := g.member(actor); err != nil {
		return Result{}, err
	}
	if err := g.requirePlayable(); err != nil {
		return Result{}, err
	}
	if g.MoveUserID != NoUser {
		return Result{}, reject(ErrBusinessRule, "Noch nicht alle Spieler sind fertig")
	}
	if !g.allDiceVisible() {
		return Result{}, reject(ErrBusinessRule, "Noch nicht alle Würfel aufgedeckt")
	}

	s, err := e.Score(g)
	if err != nil {
		return Result{}, err
	}
	g.LastScoring = s
	g.RevealVotes = nil

	loser, err := applyTransfer(g, s)
	if err != nil {
		return Result{}, err
	}
	message, err := e.finishRound(g, loser)
	if err != nil {
		return Result{}, err
	}
	e.continueGame(g)

	e.logger.Debug("Distributed", "room", g.Key, "chips", s.Chips, "source", s.Source, "to", s.ToName)
	return Result{Message: message, Scoring: s}, nil
}

// Correct is an admin's manual chip transfer. It runs the same loss
// evaluation as a distribution.
func (e *Engine) Correct(g *Game, actor int, req CorrectionRequest) (Result, error) {
	if _, err := g.admin(actor); err != nil {
		return Result{}, err
	}
	if err := g.requirePlayable(); err != nil {
		return Result{}, err
	}
	to, _, err := g.member(req.Target)
	if err != nil {
		return Result{}, err
	}
	if to.PendingJoin {
		return Result{}, reject(ErrBusinessRule, "%s spielt noch nicht mit", to.Name)
	}
	if req.modes() != 1 {
		return Result{}, reject(ErrBusinessRule, "Genau eine Quelle angeben: Spieler, Stapel oder Schock aus")
	}
	if !req.Schockaus && req.Count <= 0 {
		return Result{}, reject(ErrBusinessRule, "Anzahl der Chips fehlt")
	}
	finale := g.Status == StatusPlayFinal
	if finale && to.HalfCount == 0 {
		return Result{}, reject(ErrBusinessRule, "Benutzer nicht im Finale")
	}

	switch {
	case req.SourceID != nil:
		from, _, err := g.member(*req.SourceID)
		if err != nil {
			return Result{}, err
		}
		if from.Chips < req.Count {
			return Result{}, reject(ErrBusinessRule, "Nicht genügend Chips an der Quelle")
		}
		if finale && from.HalfCount == 0 {
			return Result{}, reject(ErrBusinessRule, "Benutzer nicht im Finale")
		}
		from.Chips -= req.Count
		to.Chips += req.Count
		g.Message = fmt.Sprintf("%d Chip(s) von: %s an: %s verteilt!", req.Count, from.Name, to.Name)

	case req.FromStack:
		if g.Stack < req.Count {
			return Result{}, reject(ErrBusinessRule, "Nicht genügend Chips auf dem Stapel")
		}
		g.Stack -= req.Count
		to.Chips += req.Count
		g.Message = fmt.Sprintf("%d Chip(s) vom Stapel an: %s verteilt!", req.Count, to.Name)

	default:
		for _, u := range g.ActiveUsers() {
			u.Chips = 0
		}
		to.Chips = g.StackMax
		g.Stack = 0
		g.Message = fmt.Sprintf("%s! Alle Chips an: %s verteilt!", e.schockausName(g), to.Name)
	}

	g.FirstUserID = to.ID
	g.MoveUserID = to.ID
	g.RevealVotes = nil

	message, err := e.finishRound(g, to)
	if err != nil {
		return Result{}, err
	}
	e.continueGame(g)

	e.logger.Info("Manual correction", "room", g.Key, "admin", actor, "target", to.Name)
	return Result{Message: message}, nil
}

func (e *Engine) schockausName(g *Game) string {
	rs, err := e.rules.Resolve(g.RulesetID)
	if err != nil {
		return "Schock aus"
	}
	for _, rule := range rs.Rules {
		if rule.IsSchockaus() {
			return rule.Name
		}
	}
	return "Schock aus"
}
