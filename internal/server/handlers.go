package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/lox/schocken/internal/game"
	"github.com/lox/schocken/internal/rules"
)

const maxBodySize = 64 << 10

type createGameRequest struct {
	Name string `json:"name"`
}

type createGameResponse struct {
	Key      string         `json:"key"`
	UserID   int            `json:"user_id"`
	Snapshot *game.Snapshot `json:"snapshot"`
}

type actionResponse struct {
	Result   game.Result    `json:"result"`
	Snapshot *game.Snapshot `json:"snapshot"`
	Error    string         `json:"error,omitempty"`
}

type rulesetResponse struct {
	rules.Summary
	Rules []rules.Rule `json:"rules"`
}

// actor identifies who performs an action. It shares the body with the
// action's own fields.
type actor struct {
	ID *int `json:"actor"`
}

// action decodes its request from the body and applies it.
type action func(e *game.Engine, g *game.Game, actor int, body []byte) (game.Result, error)

func typed[R any](apply func(*game.Engine, *game.Game, int, R) (game.Result, error)) action {
	return func(e *game.Engine, g *game.Game, actor int, body []byte) (game.Result, error) {
		var req R
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return game.Result{}, &game.Error{Kind: game.ErrBusinessRule, Message: "Ungültige Anfrage"}
			}
		}
		return apply(e, g, actor, req)
	}
}

func plain(apply func(*game.Engine, *game.Game, int) (game.Result, error)) action {
	return func(e *game.Engine, g *game.Game, actor int, _ []byte) (game.Result, error) {
		return apply(e, g, actor)
	}
}

var actions = map[string]action{
	"start":         typed((*game.Engine).Start),
	"roll":          typed((*game.Engine).Roll),
	"finish":        plain((*game.Engine).Finish),
	"turn":          typed((*game.Engine).TurnSixes),
	"undo-turn":     typed((*game.Engine).UndoTurn),
	"passive":       typed((*game.Engine).SetPassive),
	"reveal":        typed((*game.Engine).Reveal),
	"vote-reveal":   plain((*game.Engine).VoteReveal),
	"sort":          plain((*game.Engine).SortDice),
	"distribute":    plain((*game.Engine).Distribute),
	"correct":       typed((*game.Engine).Correct),
	"admin":         typed((*game.Engine).ToggleAdmin),
	"leave":         typed((*game.Engine).MarkLeave),
	"kick":          typed((*game.Engine).Kick),
	"lobby":         plain((*game.Engine).ToggleLobby),
	"back-to-lobby": plain((*game.Engine).BackToLobby),
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

func (s *Server) handleListRulesets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rules.List())
}

func (s *Server) handleGetRuleset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rs, err := s.rules.Resolve(id)
	if errors.Is(err, rules.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	table, err := s.rules.Expand(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rulesetResponse{Summary: rs.Summary(), Rules: table})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	g, err := s.rooms.Create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	admin := g.Users[0].ID
	writeJSON(w, http.StatusCreated, createGameResponse{
		Key:      g.Key,
		UserID:   admin,
		Snapshot: s.rooms.Engine().Snapshot(g, admin),
	})
}

func viewer(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("user")
	if raw == "" {
		return game.NoUser, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := viewer(r)
	if err != nil {
		badRequest(w, "invalid user parameter")
		return
	}
	snap, err := s.rooms.Snapshot(r.Context(), chi.URLParam(r, "key"), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	name := chi.URLParam(r, "action")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		badRequest(w, "invalid request body")
		return
	}
	var who actor
	if len(body) > 0 {
		if err := json.Unmarshal(body, &who); err != nil {
			badRequest(w, "invalid request body")
			return
		}
	}

	var apply func(g *game.Game) (game.Result, error)
	viewerID := game.NoUser
	if name == "join" {
		var req game.JoinRequest
		if err := json.Unmarshal(body, &req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		apply = func(g *game.Game) (game.Result, error) {
			return s.rooms.Engine().Join(g, req)
		}
	} else {
		act, ok := actions[name]
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("unknown action %q", name)})
			return
		}
		if who.ID == nil {
			badRequest(w, "actor is required")
			return
		}
		viewerID = *who.ID
		apply = func(g *game.Game) (game.Result, error) {
			return act(s.rooms.Engine(), g, viewerID, body)
		}
	}

	res, snap, err := s.rooms.DoView(r.Context(), key, apply, func(res game.Result) int {
		if name == "join" {
			return res.UserID
		}
		return viewerID
	})
	if err != nil && !game.Persistent(err) {
		s.writeError(w, err)
		return
	}
	if err != nil {
		// a rejected pause still changed the room
		writeJSON(w, statusFor(err), actionResponse{Snapshot: snap, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{Result: res, Snapshot: snap})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	id, err := viewer(r)
	if err != nil {
		badRequest(w, "invalid user parameter")
		return
	}
	snap, err := s.rooms.Snapshot(r.Context(), key, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.hub.ServeWS(w, r, key, snap)
}
