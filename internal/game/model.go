package game

import (
	"slices"
	"time"

	"github.com/lox/schocken/internal/rules"
)

// MaxRolls is the most a player may roll in one round.
const MaxRolls = 3

// NoUser marks move_user_id once everybody has rolled.
const NoUser = -1

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaiting     Status = "waiting"
	StatusStarted     Status = "started"
	StatusRoundFinish Status = "roundfinish"
	StatusPlayFinal   Status = "playfinal"
	StatusGameFinish  Status = "gamefinish"
)

// String returns the display name of a status
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "Waiting"
	case StatusStarted:
		return "Started"
	case StatusRoundFinish:
		return "Round Finished"
	case StatusPlayFinal:
		return "Finale"
	case StatusGameFinish:
		return "Game Finished"
	default:
		return "Unknown"
	}
}

// Playable reports whether dice may be rolled in this state.
func (s Status) Playable() bool {
	return s == StatusStarted || s == StatusPlayFinal
}

// Die is one die of a player. Face 0 means the die is not set.
type Die struct {
	Face    int  `json:"face"`
	Visible bool `json:"visible"`
}

// Set reports whether the die holds a face.
func (d Die) Set() bool {
	return d.Face >= 1 && d.Face <= 6
}

// User is a member of a game room.
type User struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Chips          int    `json:"chips"`
	Passive        bool   `json:"passive"`
	IsAdmin        bool   `json:"is_admin"`
	PendingJoin    bool   `json:"pending_join"`
	LeaveAfterGame bool   `json:"leave_after_game"`
	PenaltyCount   int    `json:"penalty_count"`
	Dice           [3]Die `json:"dice"`
	NumberDice     int    `json:"number_dice"`
	HalfCount      int    `json:"halfcount"`
	FinalCount     int    `json:"finalcount"`
}

// Faces returns the raw faces of the user's dice.
func (u *User) Faces() [3]int {
	return [3]int{u.Dice[0].Face, u.Dice[1].Face, u.Dice[2].Face}
}

// Hand returns the descending dice encoding, 0 while incomplete.
func (u *User) Hand() int {
	return rules.Encode(u.Faces())
}

func (u *User) hasUnsetDie() bool {
	for _, d := range u.Dice {
		if !d.Set() {
			return true
		}
	}
	return false
}

func (u *User) allVisible() bool {
	for _, d := range u.Dice {
		if !d.Visible {
			return false
		}
	}
	return true
}

func (u *User) resetDice() {
	u.Dice = [3]Die{}
	u.NumberDice = 0
}

// Game is the shared state of one room.
type Game struct {
	Key                  string    `json:"key"`
	Status               Status    `json:"status"`
	Stack                int       `json:"stack"`
	StackMax             int       `json:"stack_max"`
	PlayFinal            bool      `json:"play_final"`
	FirstUserID          int       `json:"first_user_id"`
	MoveUserID           int       `json:"move_user_id"`
	HalfCount            int       `json:"halfcount"`
	FinalCount           int       `json:"finalcount"`
	ChanceOfFallingDice  float64   `json:"chance_of_falling_dice"`
	RulesetID            string    `json:"ruleset_id"`
	PlayerChangesAllowed bool      `json:"player_changes_allowed"`
	LobbyAfterGame       bool      `json:"lobby_after_game"`
	RevealVotes          []int     `json:"reveal_votes"`
	Message              string    `json:"message"`
	Users                []*User   `json:"users"`
	NextUserID           int       `json:"next_user_id"`
	SchockoutCount       int       `json:"schockout_count"`
	FallingDiceCount     int       `json:"falling_dice_count"`
	ThrowDiceCount       int       `json:"throw_dice_count"`
	LastScoring          *Scoring  `json:"last_scoring,omitempty"`
	Started              time.Time `json:"started"`
	Refreshed            time.Time `json:"refreshed"`
}

// Clone returns a deep copy that shares nothing with g.
func (g *Game) Clone() *Game {
	out := *g
	out.RevealVotes = slices.Clone(g.RevealVotes)
	out.Users = make([]*User, len(g.Users))
	for i, u := range g.Users {
		cp := *u
		out.Users[i] = &cp
	}
	if g.LastScoring != nil {
		s := *g.LastScoring
		s.Ranking = slices.Clone(g.LastScoring.Ranking)
		out.LastScoring = &s
	}
	return &out
}

// User returns the member with the given id, or nil.
func (g *Game) User(id int) *User {
	if seat := g.Seat(id); seat >= 0 {
		return g.Users[seat]
	}
	return nil
}

// Seat returns the seating index of the member with the given id, or -1.
func (g *Game) Seat(id int) int {
	for i, u := range g.Users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// ActiveUsers returns the members that are not waiting to join, in seating
// order. The slice is a fresh view; mutating it does not change g.Users.
func (g *Game) ActiveUsers() []*User {
	out := make([]*User, 0, len(g.Users))
	for _, u := range g.Users {
		if !u.PendingJoin {
			out = append(out, u)
		}
	}
	return out
}

// PlayingUsers returns active members that are not sitting out.
func (g *Game) PlayingUsers() []*User {
	out := make([]*User, 0, len(g.Users))
	for _, u := range g.Users {
		if !u.PendingJoin && !u.Passive {
			out = append(out, u)
		}
	}
	return out
}

// Admins returns the ids of all admins.
func (g *Game) Admins() []int {
	var ids []int
	for _, u := range g.Users {
		if u.IsAdmin {
			ids = append(ids, u.ID)
		}
	}
	return ids
}

func (g *Game) addUser(name string) *User {
	g.NextUserID++
	u := &User{ID: g.NextUserID, Name: name}
	g.Users = append(g.Users, u)
	return u
}

// removeUser drops a member and any vote they cast.
func (g *Game) removeUser(id int) {
	g.Users = slices.DeleteFunc(g.Users, func(u *User) bool { return u.ID == id })
	g.RevealVotes = slices.DeleteFunc(g.RevealVotes, func(v int) bool { return v == id })
}

func (g *Game) hasVote(id int) bool {
	return slices.Contains(g.RevealVotes, id)
}

func (g *Game) member(id int) (*User, int, error) {
	seat := g.Seat(id)
	if seat < 0 {
		return nil, -1, reject(ErrNotFound, "Spieler ist nicht in diesem Spiel")
	}
	return g.Users[seat], seat, nil
}

func (g *Game) admin(id int) (*User, error) {
	u, _, err := g.member(id)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, reject(ErrForbidden, "Nur Admins dürfen diese Aktion ausführen")
	}
	return u, nil
}

func (g *Game) requirePlayable() error {
	if !g.Status.Playable() {
		return reject(ErrInvalidPhase, "Spiel ist nicht in einer spielbaren Phase")
	}
	return nil
}

// allDiceVisible reports whether every playing member has revealed.
func (g *Game) allDiceVisible() bool {
	for _, u := range g.PlayingUsers() {
		if !u.allVisible() {
			return false
		}
	}
	return true
}
