package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/lox/schocken/internal/rules"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	schockausStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

type RulesetsCmd struct {
	ID      string `arg:"" optional:"" help:"Ruleset to expand into its full rule table"`
	File    string `short:"f" help:"Rulesets JSON document (defaults to the built-in one)"`
	NoColor bool   `help:"Disable colored output"`
}

func (c *RulesetsCmd) Run() error {
	setColor(c.NoColor)
	repo, err := openRules(log.New(io.Discard), c.File)
	if err != nil {
		return err
	}
	if c.ID == "" {
		return printSummaries(os.Stdout, repo.List())
	}
	return printRuleTable(os.Stdout, repo, c.ID)
}

func printSummaries(w io.Writer, summaries []rules.Summary) error {
	t := table.New().
		Headers("ID", "Name", "Stack", "Finale", "Rules").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
	for _, s := range summaries {
		final := "no"
		if s.PlayFinal {
			final = "yes"
		}
		t.Row(s.ID, s.Name, strconv.Itoa(s.StackMax), final, strconv.Itoa(s.RuleCount))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printRuleTable(w io.Writer, repo *rules.Repository, id string) error {
	rs, err := repo.Resolve(id)
	if err != nil {
		return err
	}
	full, err := repo.Expand(id)
	if err != nil {
		return err
	}

	t := table.New().Headers("Rank", "Dice", "Name", "Chips")
	for i, r := range full {
		chips := strconv.Itoa(r.Chips)
		if r.IsSchockaus() {
			chips = schockausStyle.Render("alle")
		}
		t.Row(strconv.Itoa(i+1), strconv.Itoa(r.Dice), r.Name, chips)
	}

	if _, err := fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s)", rs.Name, rs.ID))); err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}
