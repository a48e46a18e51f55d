package game

import (
	"errors"
	"fmt"
)

// Error kinds. Every rejection wraps exactly one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrNotYourTurn  = errors.New("not your turn")
	ErrInvalidPhase = errors.New("invalid phase")
	ErrBusinessRule = errors.New("business rule violation")
	ErrLastAdmin    = errors.New("last admin")
	ErrUnresolvable = errors.New("unresolvable")
	ErrForbidden    = errors.New("forbidden")
	ErrInvariant    = errors.New("invariant violation")
)

// Error is a rejected action. Message is user facing.
type Error struct {
	Kind    error
	Message string

	// Persist marks a rejection whose side effects on the game (a recorded
	// pause penalty) must still be saved.
	Persist bool
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func reject(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Persistent reports whether err is a rejection that still changed state.
func Persistent(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Persist
}
