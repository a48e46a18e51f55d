package game

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength caps member names.
const MaxNameLength = 200

func validName(g *Game, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", reject(ErrBusinessRule, "Benutzername darf nicht leer sein!")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", reject(ErrBusinessRule, "Benutzername ist zu lang")
	}
	if g != nil {
		for _, u := range g.Users {
			if u.Name == name {
				return "", reject(ErrBusinessRule, "Benutzername schon vergeben!")
			}
		}
	}
	return name, nil
}

// Join adds a member. Until somebody has rolled in the current game new
// members play straight away, afterwards they wait for the next game.
func (e *Engine) Join(g *Game, req JoinRequest) (Result, error) {
	name, err := validName(g, req.Name)
	if err != nil {
		return Result{}, err
	}

	u := g.addUser(name)
	u.PendingJoin = !g.PlayerChangesAllowed

	res := Result{UserID: u.ID}
	if u.PendingJoin {
		res.Message = fmt.Sprintf("%s spielt ab dem nächsten Spiel mit", name)
	} else {
		res.Message = fmt.Sprintf("%s ist beigetreten", name)
	}
	e.logger.Info("Member joined", "room", g.Key, "user", u.ID, "name", name, "pending", u.PendingJoin)
	return res, nil
}

// ToggleAdmin promotes or demotes target. The last admin cannot be demoted.
func (e *Engine) ToggleAdmin(g *Game, actor int, req TargetRequest) (Result, error) {
	if _, err := g.admin(actor); err != nil {
		return Result{}, err
	}
	target, _, err := g.member(req.UserID)
	if err != nil {
		return Result{}, err
	}

	if target.IsAdmin {
		if len(g.Admins()) == 1 {
			return Result{}, reject(ErrLastAdmin, "Es muss mindestens einen Admin geben")
		}
		target.IsAdmin = false
		g.Message = fmt.Sprintf("%s ist kein Admin mehr", target.Name)
	} else {
		target.IsAdmin = true
		g.Message = fmt.Sprintf("%s ist jetzt Admin", target.Name)
	}
	return success("Hat geklappt!"), nil
}

// MarkLeave toggles whether target leaves after the current game. Members
// that can leave without disturbing a game are removed at once.
func (e *Engine) MarkLeave(g *Game, actor int, req TargetRequest) (Result, error) {
	target, seat, err := g.member(req.UserID)
	if err != nil {
		return Result{}, err
	}
	requester, _, err := g.member(actor)
	if err != nil {
		return Result{}, err
	}
	if requester.ID != target.ID && !requester.IsAdmin {
		return Result{}, reject(ErrForbidden, "Nur der Spieler selbst oder ein Admin kann diese Aktion ausführen")
	}

	leaving := !target.LeaveAfterGame
	if leaving && target.IsAdmin {
		others := 0
		for _, u := range g.Users {
			if u.IsAdmin && u.ID != target.ID && !u.LeaveAfterGame {
				others++
			}
		}
		if others == 0 {
			return Result{}, reject(ErrLastAdmin, "Du bist der letzte Admin. Ernenne erst einen weiteren Admin.")
		}
	}
	target.LeaveAfterGame = leaving

	if !leaving {
		return success("%s bleibt im Spiel", target.Name), nil
	}
	if !g.PlayerChangesAllowed && !target.PendingJoin {
		return success("%s wird nach dem Spiel entfernt", target.Name), nil
	}

	if target.ID == g.FirstUserID || target.ID == g.MoveUserID {
		next := nextEligible(g, seat, func(u *User) bool {
			return u.ID != target.ID && !u.PendingJoin && !u.Passive && !u.LeaveAfterGame
		})
		if next == NoUser {
			next = nextEligible(g, seat, func(u *User) bool { return u.ID != target.ID })
		}
		if target.ID == g.FirstUserID {
			g.FirstUserID = next
		}
		if target.ID == g.MoveUserID {
			g.MoveUserID = next
		}
	}
	g.removeUser(target.ID)
	g.Message = fmt.Sprintf("Spieler %s hat das Spiel verlassen", target.Name)
	e.logger.Info("Member left", "room", g.Key, "user", target.ID)
	return success("Spieler entfernt"), nil
}

// Kick removes target immediately and restarts the current round.
func (e *Engine) Kick(g *Game, actor int, req TargetRequest) (Result, error) {
	if _, err := g.admin(actor); err != nil {
		return Result{}, err
	}
	target, seat, err := g.member(req.UserID)
	if err != nil {
		return Result{}, err
	}
	if target.IsAdmin && len(g.Admins()) == 1 {
		return Result{}, reject(ErrLastAdmin, "Letzter Admin kann nicht entfernt werden")
	}

	if target.ID == g.FirstUserID {
		g.FirstUserID = nextEligible(g, seat, func(u *User) bool {
			return u.ID != target.ID && !u.PendingJoin
		})
	}
	g.removeUser(target.ID)

	if g.Status != StatusWaiting {
		g.MoveUserID = g.FirstUserID
	}
	for _, u := range g.Users {
		u.Chips = 0
		u.Passive = false
		u.resetDice()
	}
	g.Stack = g.StackMax
	g.RevealVotes = nil
	g.Message = fmt.Sprintf("Spieler: %s wurde entfernt", target.Name)
	e.logger.Info("Member kicked", "room", g.Key, "user", target.ID, "admin", actor)
	return success("Spieler entfernt"), nil
}

// ToggleLobby switches whether the room returns to the lobby after the
// current game.
func (e *Engine) ToggleLobby(g *Game, actor int) (Result, error) {
	if _, err := g.admin(actor); err != nil {
		return Result{}, err
	}
	g.LobbyAfterGame = !g.LobbyAfterGame
	if g.LobbyAfterGame {
		return success("Nach dem Spiel zurück zur Lobby"), nil
	}
	return success("Lobby nach dem Spiel aufgehoben"), nil
}

// BackToLobby abandons the current game.
func (e *Engine) BackToLobby(g *Game, actor int) (Result, error) {
	if _, err := g.admin(actor); err != nil {
		return Result{}, err
	}

	for _, u := range g.Users {
		if g.PlayFinal {
			u.HalfCount = 0
		}
		u.Chips = 0
		u.Passive = false
		u.LeaveAfterGame = false
		u.PendingJoin = false
		u.resetDice()
	}
	if g.PlayFinal {
		g.HalfCount = 0
	}
	g.Message = ""
	g.Stack = g.StackMax
	g.Status = StatusWaiting
	g.MoveUserID = NoUser
	g.LobbyAfterGame = false
	g.RevealVotes = nil
	g.PlayerChangesAllowed = true
	return success("Zurück in der Lobby"), nil
}
