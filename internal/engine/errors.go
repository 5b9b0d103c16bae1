// internal/engine/errors.go
package engine

import "errors"

// Errors returned by Engine operations. They are always wrapped with context,
// so callers should match them with errors.Is.
var (
	ErrInvalidPhase        = errors.New("operation not allowed in the current phase")
	ErrNotYourTurn         = errors.New("not this player's turn")
	ErrDuplicatePlayer     = errors.New("player already joined")
	ErrInsufficientPlayers = errors.New("at least two players are required")
	ErrInvalidSnapshot     = errors.New("invalid game snapshot")
	ErrUnknownAction       = errors.New("unknown player action")
)
