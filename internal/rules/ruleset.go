// Package rules loads Schocken rule tables and expands them into the
// complete ordered ranking used for scoring.
package rules

import (
	"errors"
	"fmt"
	"sort"
)

// Schockaus is the chip cost that marks a hand as taking the whole stack.
const Schockaus = -1

// SchrottCost is what any hand without an explicit rule costs.
const SchrottCost = 1

var ErrNotFound = errors.New("ruleset not found")

// Rule maps a descending dice encoding to a display name and chip cost.
type Rule struct {
	Dice  int    `json:"dice"`
	Name  string `json:"name"`
	Chips int    `json:"chips"`
}

// IsSchockaus reports whether the rule takes the whole stack.
func (r Rule) IsSchockaus() bool {
	return r.Chips == Schockaus
}

// Ruleset is one entry of the rulesets document.
type Ruleset struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StackMax  int    `json:"stack_max"`
	PlayFinal bool   `json:"play_final"`
	Rules     []Rule `json:"rules"`
}

// Summary is the short listing form of a ruleset.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StackMax  int    `json:"stack_max"`
	PlayFinal bool   `json:"play_final"`
	RuleCount int    `json:"rule_count"`
}

// Summary returns the listing form of rs.
func (rs *Ruleset) Summary() Summary {
	return Summary{
		ID:        rs.ID,
		Name:      rs.Name,
		StackMax:  rs.StackMax,
		PlayFinal: rs.PlayFinal,
		RuleCount: len(rs.Rules),
	}
}

// Validate checks the ruleset document for structural errors.
func (rs *Ruleset) Validate() error {
	if rs.ID == "" {
		return fmt.Errorf("ruleset without id")
	}
	if rs.StackMax <= 0 {
		return fmt.Errorf("ruleset %s: stack_max must be positive", rs.ID)
	}

	seen := make(map[int]bool, len(rs.Rules))
	for _, rule := range rs.Rules {
		if !ValidEncoding(rule.Dice) {
			return fmt.Errorf("ruleset %s: invalid dice encoding %d", rs.ID, rule.Dice)
		}
		if seen[rule.Dice] {
			return fmt.Errorf("ruleset %s: duplicate rule for %d", rs.ID, rule.Dice)
		}
		seen[rule.Dice] = true
		if rule.Chips < Schockaus {
			return fmt.Errorf("ruleset %s: rule %d has invalid chips %d", rs.ID, rule.Dice, rule.Chips)
		}
	}
	return nil
}

// Encode sorts three faces descending and packs them as d1*100+d2*10+d3.
// Any face outside 1..6 yields 0, the value of an incomplete hand.
func Encode(faces [3]int) int {
	for _, f := range faces {
		if f < 1 || f > 6 {
			return 0
		}
	}
	sorted := faces[:]
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	return sorted[0]*100 + sorted[1]*10 + sorted[2]
}

// ValidEncoding reports whether v is a descending triple of faces 1..6.
func ValidEncoding(v int) bool {
	if v < 111 || v > 666 {
		return false
	}
	d1, d2, d3 := v/100, v/10%10, v%10
	if d3 < 1 || d1 > 6 || d2 > 6 {
		return false
	}
	return d1 >= d2 && d2 >= d3
}

// Expand returns the complete ordered rule list for rs. Schockaus rules come
// first so they always rank best, then the remaining explicit rules in their
// declared order, then a Schrott entry for each of the 56 descending triples
// not listed, highest dice first.
func Expand(rs *Ruleset) []Rule {
	out := make([]Rule, 0, 56)
	listed := make(map[int]bool, len(rs.Rules))

	for _, rule := range rs.Rules {
		listed[rule.Dice] = true
		if rule.IsSchockaus() {
			out = append(out, rule)
		}
	}
	for _, rule := range rs.Rules {
		if !rule.IsSchockaus() {
			out = append(out, rule)
		}
	}

	for i := 6; i >= 1; i-- {
		for j := i; j >= 1; j-- {
			for k := j; k >= 1; k-- {
				dice := i*100 + j*10 + k
				if listed[dice] {
					continue
				}
				out = append(out, Rule{
					Dice:  dice,
					Name:  fmt.Sprintf("Schrott (%d)", dice),
					Chips: SchrottCost,
				})
			}
		}
	}
	return out
}
