package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lox/schocken/internal/game"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps a rejection kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, game.ErrLastAdmin), errors.Is(err, game.ErrInvalidPhase),
		errors.Is(err, game.ErrUnresolvable):
		return http.StatusConflict
	case errors.Is(err, game.ErrBusinessRule), errors.Is(err, game.ErrNotYourTurn):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	var gerr *game.Error
	if !errors.As(err, &gerr) {
		s.logger.Error("Request failed", "error", err)
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
		return
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("Game invariant broken", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: gerr.Message, Kind: gerr.Kind.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // Ignore write errors, the client is gone
}
