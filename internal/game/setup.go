package game

import "fmt"

// NewGame creates a room in the lobby with its creator as first admin.
func (e *Engine) NewGame(key, adminName string) (*Game, error) {
	name, err := validName(nil, adminName)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	g := &Game{
		Key:                  key,
		Status:               StatusWaiting,
		FirstUserID:          NoUser,
		MoveUserID:           NoUser,
		RulesetID:            e.config.DefaultRuleset,
		PlayerChangesAllowed: true,
		Started:              now,
		Refreshed:            now,
	}
	if rs, err := e.rules.Resolve(e.config.DefaultRuleset); err == nil {
		g.StackMax = rs.StackMax
		g.Stack = rs.StackMax
		g.PlayFinal = rs.PlayFinal
	}

	admin := g.addUser(name)
	admin.IsAdmin = true
	return g, nil
}

// Start leaves the lobby and begins the first round.
func (e *Engine) Start(g *Game, actor int, req StartRequest) (Result, error) {
	if _, err := g.admin(actor); err != nil {
		return Result{}, err
	}
	if g.Status != StatusWaiting {
		return Result{}, reject(ErrInvalidPhase, "Spiel läuft bereits")
	}
	active := g.ActiveUsers()
	if len(active) < 2 {
		return Result{}, reject(ErrBusinessRule, "Nicht genug Mitspieler")
	}

	switch {
	case req.RulesetID != "":
		rs, err := e.rules.Resolve(req.RulesetID)
		if err != nil {
			return Result{}, reject(ErrBusinessRule, "Unbekanntes Ruleset: %s", req.RulesetID)
		}
		g.RulesetID = rs.ID
		g.StackMax = rs.StackMax
		g.PlayFinal = rs.PlayFinal
	case req.StackMax > 0 && req.PlayFinal != nil:
		g.RulesetID = e.config.DefaultRuleset
		g.StackMax = req.StackMax
		g.PlayFinal = *req.PlayFinal
	default:
		return Result{}, reject(ErrBusinessRule, "Bitte ein Ruleset oder stack_max und play_final angeben")
	}

	if g.User(g.FirstUserID) == nil || g.User(g.FirstUserID).PendingJoin {
		g.FirstUserID = active[e.rng.IntN(len(active))].ID
	}
	g.MoveUserID = g.FirstUserID

	for _, u := range active {
		u.Chips = 0
		u.Passive = false
		u.resetDice()
	}

	g.Status = StatusStarted
	g.Stack = g.StackMax
	g.ChanceOfFallingDice = 0
	if req.FallingDice {
		g.ChanceOfFallingDice = e.config.FallingDiceChance
	}
	g.RevealVotes = nil
	g.LastScoring = nil
	g.PlayerChangesAllowed = true

	starter := g.User(g.FirstUserID)
	g.Message = fmt.Sprintf("%s beginnt", starter.Name)
	e.logger.Info("Game started", "room", g.Key, "ruleset", g.RulesetID, "stack_max", g.StackMax, "players", len(active))
	return success("Hat geklappt!"), nil
}
