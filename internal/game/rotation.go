package game

// NextActive finds the player who acts after the one at seat. Pending and
// passive members are skipped. Reaching the starter's seat again completes
// the round, reported as (NoUser, true). With fewer than two active members
// the round is always complete.
func NextActive(g *Game, seat int) (int, bool) {
	active := g.ActiveUsers()
	if len(active) < 2 || seat < 0 || seat >= len(g.Users) {
		return NoUser, true
	}

	current := g.Users[seat].ID
	idx := -1
	for i, u := range active {
		if u.ID == current {
			idx = i
			break
		}
	}
	if idx == -1 {
		return NoUser, true
	}

	for i := 1; i < len(active); i++ {
		u := active[(idx+i)%len(active)]
		if u.ID == g.FirstUserID {
			return NoUser, true
		}
		if !u.Passive {
			return u.ID, false
		}
	}
	return NoUser, true
}

// RollCap is how often u may roll this round. The starter may always roll
// three times; everybody else is held to what the starter actually used.
func RollCap(g *Game, u *User) int {
	if u.ID == g.FirstUserID {
		return MaxRolls
	}
	first := g.User(g.FirstUserID)
	if first == nil || first.PendingJoin || first.Passive || first.NumberDice == 0 {
		return MaxRolls
	}
	return first.NumberDice
}

// advanceTurn hands the turn to the next player after seat.
func advanceTurn(g *Game, seat int) {
	next, complete := NextActive(g, seat)
	if complete {
		g.MoveUserID = NoUser
		g.Message = "Aufdecken!"
		return
	}
	g.MoveUserID = next
}

// nextEligible returns the first member after seat, wrapping, that
// satisfies keep. It returns NoUser when nobody does.
func nextEligible(g *Game, seat int, keep func(*User) bool) int {
	n := len(g.Users)
	for i := 1; i <= n; i++ {
		u := g.Users[(seat+i)%n]
		if keep(u) {
			return u.ID
		}
	}
	return NoUser
}
