package game

import (
	"fmt"
	"sort"

	"github.com/lox/schocken/internal/rules"
)

// TransferSource says where the chips of a transfer come from.
type TransferSource string

const (
	FromSchockaus TransferSource = "schockaus"
	FromStack     TransferSource = "stack"
	FromPlayer    TransferSource = "player"
)

// Entry is one ranked hand.
type Entry struct {
	UserID     int    `json:"user_id"`
	Name       string `json:"name"`
	Chips      int    `json:"chips"`
	NumberDice int    `json:"number_dice"`
	Seat       int    `json:"seat"`
	Matched    int    `json:"matched"`
	Dice       int    `json:"dice"`
	Rank       int    `json:"rank"`
	RuleName   string `json:"rule_name"`
	RuleChips  int    `json:"rule_chips"`
}

// Text is the human readable result line.
func (e Entry) Text() string {
	return fmt.Sprintf("%s mit %s im %d. Wurf%s", e.Name, e.RuleName, e.NumberDice, matchedSuffix(e.Matched))
}

// Scoring is the ranking of a completed round and the transfer it implies.
type Scoring struct {
	Ranking  []Entry        `json:"ranking"`
	High     Entry          `json:"high"`
	Low      Entry          `json:"low"`
	HighText string         `json:"high_text"`
	LowText  string         `json:"low_text"`
	Chips    int            `json:"chips"`
	Source   TransferSource `json:"source"`
	FromID   int            `json:"from_id,omitempty"`
	FromName string         `json:"from_name"`
	ToID     int            `json:"to_id"`
	ToName   string         `json:"to_name"`
}

// Schockaus reports whether the round ended the half outright.
func (s *Scoring) Schockaus() bool {
	return s.Source == FromSchockaus
}

const noDiceName = "Keine Würfel"

// ruleTable resolves the game's ruleset, falling back to the default one.
func (e *Engine) ruleTable(g *Game) ([]rules.Rule, error) {
	full, err := e.rules.Expand(g.RulesetID)
	if err == nil {
		return full, nil
	}
	if g.RulesetID != e.config.DefaultRuleset {
		e.logger.Warn("Falling back to default ruleset", "room", g.Key, "ruleset", g.RulesetID, "error", err)
		if full, err = e.rules.Expand(e.config.DefaultRuleset); err == nil {
			return full, nil
		}
	}
	return nil, reject(ErrUnresolvable, "Auswertung konnte nicht berechnet werden: %v", err)
}

// Score ranks the playing members and works out the transfer.
func (e *Engine) Score(g *Game) (*Scoring, error) {
	full, err := e.ruleTable(g)
	if err != nil {
		return nil, err
	}

	playing := orderFromStarter(g)
	if len(playing) < 2 {
		return nil, reject(ErrUnresolvable, "Nicht genug Spieler für die Auswertung")
	}

	index := make(map[int]int, len(full))
	for i, rule := range full {
		index[rule.Dice] = i
	}

	ranking := make([]Entry, 0, len(playing))
	for seat, u := range playing {
		entry := Entry{
			UserID:     u.ID,
			Name:       u.Name,
			Chips:      u.Chips,
			NumberDice: u.NumberDice,
			Seat:       seat,
			Dice:       u.Hand(),
		}
		if i, found := index[entry.Dice]; found {
			entry.Rank = i
			entry.RuleName = full[i].Name
			entry.RuleChips = full[i].Chips
		} else {
			entry.Rank = len(full)
			entry.RuleName = noDiceName
		}
		if seat > 0 {
			prev := ranking[seat-1]
			if prev.Rank == entry.Rank && prev.NumberDice == entry.NumberDice {
				entry.Matched = prev.Matched + 1
			}
		}
		ranking = append(ranking, entry)
	}

	// lower rank wins, then fewer throws, then earlier seat
	sort.SliceStable(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.NumberDice != b.NumberDice {
			return a.NumberDice < b.NumberDice
		}
		return a.Seat < b.Seat
	})

	high := ranking[0]
	low := ranking[len(ranking)-1]
	s := &Scoring{
		Ranking:  ranking,
		High:     high,
		Low:      low,
		HighText: high.Text(),
		LowText:  low.Text(),
		ToID:     low.UserID,
		ToName:   low.Name,
	}

	switch {
	case high.RuleChips == rules.Schockaus:
		s.Chips = g.StackMax
		s.Source = FromSchockaus
		s.FromName = high.RuleName
	case g.Stack > 0:
		s.Chips = min(high.RuleChips, g.Stack)
		s.Source = FromStack
		s.FromName = "Stapel"
	default:
		s.Chips = min(high.RuleChips, high.Chips)
		s.Source = FromPlayer
		s.FromID = high.UserID
		s.FromName = high.Name
	}
	return s, nil
}

// orderFromStarter lists the playing members in turn order beginning with
// the starter, or with the next playing member after the starter's seat if
// the starter sits out.
func orderFromStarter(g *Game) []*User {
	n := len(g.Users)
	start := g.Seat(g.FirstUserID)
	if start < 0 {
		start = 0
	}
	out := make([]*User, 0, n)
	for i := 0; i < n; i++ {
		u := g.Users[(start+i)%n]
		if !u.PendingJoin && !u.Passive {
			out = append(out, u)
		}
	}
	return out
}

var multiples = map[int]string{
	2:  "doppelt",
	3:  "dreifach",
	4:  "vierfach",
	5:  "fünffach",
	6:  "sechsfach",
	7:  "siebenfach",
	8:  "achtfach",
	9:  "neunfach",
	10: "zehnfach",
	11: "elffach",
	12: "zwölffach",
	13: "dreizehnfach",
	14: "vierzehnfach",
	15: "fünfzehnfach",
	16: "sechzehnfach",
	17: "siebzehnfach",
	18: "achtzehnfach",
	19: "neunzehnfach",
	20: "zwanzigfach",
}

func matchedSuffix(matched int) string {
	switch {
	case matched <= 0:
		return ""
	case matched == 1:
		return " nachgelegt"
	}
	prefix, found := multiples[matched]
	if !found {
		prefix = fmt.Sprintf("%dfach", matched)
	}
	return " " + prefix + " nachgelegt"
}
