// Package game implements the Schocken engine: turn rotation, dice
// mechanics, hand scoring, the chip economy, the half/finale/game lifecycle
// and roster changes that are deferred to game boundaries.
//
// # Basic Usage
//
// Every operation takes the game record, the acting user id and a typed
// request, and either mutates the game and returns a Result or returns an
// *Error without touching anything (the one exception, a penalised pause
// attempt, is flagged with Persistent):
//
//	engine := game.NewEngine(repo, randutil.New(42), quartz.NewReal(), logger, game.DefaultConfig())
//	g, _ := engine.NewGame("room", "Anna")
//	_, _ = engine.Join(g, game.JoinRequest{Name: "Ben"})
//	_, _ = engine.Start(g, g.Users[0].ID, game.StartRequest{RulesetID: "classic_13"})
//	_, err := engine.Roll(g, g.MoveUserID, game.RollRequest{Dice: [3]bool{true, true, true}})
//
// The engine does no locking of its own. Callers serialise access per game,
// see package room.
//
// # Deterministic Testing
//
// Dice faces, falling dice and random seat picks all come from the
// randutil.Source passed to NewEngine. Use randutil.New(seed) or a scripted
// source to replay exact games.
package game
