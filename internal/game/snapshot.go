package game

import (
	"time"

	"github.com/lox/schocken/internal/rules"
)

// DieView is a die as shown to the table. Face is 0 while the die is unset
// or hidden from the viewer.
type DieView struct {
	Face    int  `json:"face"`
	Visible bool `json:"visible"`
	Rolled  bool `json:"rolled"`
}

type UserView struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Chips          int        `json:"chips"`
	Passive        bool       `json:"passive"`
	IsAdmin        bool       `json:"is_admin"`
	PendingJoin    bool       `json:"pending_join"`
	LeaveAfterGame bool       `json:"leave_after_game"`
	PenaltyCount   int        `json:"penalty_count"`
	Dice           [3]DieView `json:"dice"`
	NumberDice     int        `json:"number_dice"`
	HalfCount      int        `json:"halfcount"`
	FinalCount     int        `json:"finalcount"`
}

// Snapshot is the full room state handed to clients. Clients always
// replace their state with it.
type Snapshot struct {
	Key                  string         `json:"key"`
	Status               Status         `json:"status"`
	StatusText           string         `json:"status_text"`
	Stack                int            `json:"stack"`
	StackMax             int            `json:"stack_max"`
	PlayFinal            bool           `json:"play_final"`
	FirstUserID          int            `json:"first_user_id"`
	MoveUserID           int            `json:"move_user_id"`
	HalfCount            int            `json:"halfcount"`
	FinalCount           int            `json:"finalcount"`
	ChanceOfFallingDice  float64        `json:"chance_of_falling_dice"`
	PlayerChangesAllowed bool           `json:"player_changes_allowed"`
	LobbyAfterGame       bool           `json:"lobby_after_game"`
	Message              string         `json:"message"`
	Users                []UserView     `json:"users"`
	Admins               []int          `json:"admins"`
	RevealVotes          int            `json:"reveal_votes"`
	RevealThreshold      int            `json:"reveal_threshold"`
	Preview              *Scoring       `json:"preview,omitempty"`
	LastScoring          *Scoring       `json:"last_scoring,omitempty"`
	Ruleset              *rules.Ruleset `json:"ruleset,omitempty"`
	Refreshed            time.Time      `json:"refreshed"`
}

// Snapshot renders g for viewer. Hidden dice are masked unless they belong
// to viewer; pass NoUser for a broadcast.
func (e *Engine) Snapshot(g *Game, viewer int) *Snapshot {
	s := &Snapshot{
		Key:                  g.Key,
		Status:               g.Status,
		StatusText:           g.Status.String(),
		Stack:                g.Stack,
		StackMax:             g.StackMax,
		PlayFinal:            g.PlayFinal,
		FirstUserID:          g.FirstUserID,
		MoveUserID:           g.MoveUserID,
		HalfCount:            g.HalfCount,
		FinalCount:           g.FinalCount,
		ChanceOfFallingDice:  g.ChanceOfFallingDice,
		PlayerChangesAllowed: g.PlayerChangesAllowed,
		LobbyAfterGame:       g.LobbyAfterGame,
		Message:              g.Message,
		Users:                make([]UserView, 0, len(g.Users)),
		Admins:               g.Admins(),
		RevealVotes:          len(g.RevealVotes),
		RevealThreshold:      RevealThreshold(g),
		LastScoring:          g.LastScoring,
		Refreshed:            g.Refreshed,
	}

	for _, u := range g.Users {
		view := UserView{
			ID:             u.ID,
			Name:           u.Name,
			Chips:          u.Chips,
			Passive:        u.Passive,
			IsAdmin:        u.IsAdmin,
			PendingJoin:    u.PendingJoin,
			LeaveAfterGame: u.LeaveAfterGame,
			PenaltyCount:   u.PenaltyCount,
			NumberDice:     u.NumberDice,
			HalfCount:      u.HalfCount,
			FinalCount:     u.FinalCount,
		}
		for i, d := range u.Dice {
			view.Dice[i] = DieView{Visible: d.Visible, Rolled: d.Set()}
			if d.Visible || u.ID == viewer {
				view.Dice[i].Face = d.Face
			}
		}
		s.Users = append(s.Users, view)
	}

	if rs, err := e.rules.Resolve(g.RulesetID); err == nil {
		s.Ruleset = rs
	}
	if g.Status.Playable() && g.MoveUserID == NoUser && g.allDiceVisible() {
		if preview, err := e.Score(g); err == nil {
			s.Preview = preview
		}
	}
	return s
}
