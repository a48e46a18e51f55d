package game

// RollRequest flags the dice to reroll.
type RollRequest struct {
	Dice [3]bool `json:"dice"`
}

func (r RollRequest) any() bool {
	return r.Dice[0] || r.Dice[1] || r.Dice[2]
}

// TurnRequest converts sixes into ones. Count 1 turns a pair of sixes into
// a single one, Count 2 turns three sixes into two ones.
type TurnRequest struct {
	Count int `json:"count"`
}

// UndoTurnRequest reverts a six conversion. Indices are 1-based.
type UndoTurnRequest struct {
	Revert  *int `json:"revert_index,omitempty"`
	Restore *int `json:"restore_index,omitempty"`
}

type PassiveRequest struct {
	Passive bool `json:"passive"`
}

type RevealRequest struct {
	Visible bool `json:"visible"`
}

type JoinRequest struct {
	Name string `json:"name"`
}

// StartRequest selects either a stored ruleset or a custom stack size with
// the default rule table.
type StartRequest struct {
	RulesetID   string `json:"ruleset_id,omitempty"`
	StackMax    int    `json:"stack_max,omitempty"`
	PlayFinal   *bool  `json:"play_final,omitempty"`
	FallingDice bool   `json:"falling_dice"`
}

// TargetRequest names the member an admin or roster action applies to.
type TargetRequest struct {
	UserID int `json:"user_id"`
}

// CorrectionRequest is a manual chip transfer to Target. Exactly one of
// SourceID, FromStack or Schockaus selects where the chips come from.
type CorrectionRequest struct {
	Target    int  `json:"target"`
	Count     int  `json:"count,omitempty"`
	SourceID  *int `json:"source,omitempty"`
	FromStack bool `json:"stack,omitempty"`
	Schockaus bool `json:"schockaus,omitempty"`
}

func (r CorrectionRequest) modes() int {
	n := 0
	if r.SourceID != nil {
		n++
	}
	if r.FromStack {
		n++
	}
	if r.Schockaus {
		n++
	}
	return n
}
