package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run the game server"`
	Rulesets RulesetsCmd      `cmd:"" help:"List rulesets or show one rule table"`
	Simulate SimulateCmd      `cmd:"" help:"Play bot games and report statistics"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("schocken"),
		kong.Description("Game server for the Schocken dice game"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
