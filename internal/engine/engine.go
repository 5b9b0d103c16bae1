// internal/engine/engine.go
package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// Card value ranges. Players are dealt from the full range while the deck card
// never holds a blocking or skipping value.
const (
	minCardValue  = 1
	maxCardValue  = 10
	maxDeckValue  = 8
	minPlayers    = 2
	blockingValue = 10
	skippingValue = 9
)

// player is the live roster entry. card is 0 until dealt; dealt values are never 0.
type player struct {
	username string
	card     int
}

func (p *player) state() PlayerState {
	st := PlayerState{Username: p.username}
	if p.card != 0 {
		v := p.card
		st.CardValue = &v
	}
	return st
}

// Engine holds the state of a single Cucu game: the roster in turn order, the
// pointer to the player whose action is awaited, and the hidden deck card that
// the last player swaps with.
//
// Engine does no locking. Callers must serialize operations on one game.
type Engine struct {
	phase   Phase
	players []player
	current int
	deck    int // 0 when absent
	rng     *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for dealing.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// New returns an empty game in the Setup phase.
func New(opts ...Option) *Engine {
	e := &Engine{phase: PhaseSetup}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// CurrentPlayerIndex returns the roster index of the player whose action is awaited.
// It is only meaningful while the game is in progress.
func (e *Engine) CurrentPlayerIndex() int {
	return e.current
}

// DeckCardValue returns the deck card and whether it has been dealt.
func (e *Engine) DeckCardValue() (int, bool) {
	return e.deck, e.deck != 0
}

// Players returns a copy of the roster in turn order.
func (e *Engine) Players() []PlayerState {
	out := make([]PlayerState, len(e.players))
	for i := range e.players {
		out[i] = e.players[i].state()
	}
	return out
}

// CurrentPlayer returns the player whose action is awaited, if any.
func (e *Engine) CurrentPlayer() (PlayerState, bool) {
	if e.phase != PhaseInProgress || e.current < 0 || e.current >= len(e.players) {
		return PlayerState{}, false
	}
	return e.players[e.current].state(), true
}

// AddPlayer appends a player to the roster. Usernames are compared exactly.
func (e *Engine) AddPlayer(username string) error {
	if e.phase != PhaseSetup {
		return fmt.Errorf("%w: cannot add a player while %s", ErrInvalidPhase, e.phase)
	}
	for _, p := range e.players {
		if p.username == username {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, username)
		}
	}
	e.players = append(e.players, player{username: username})
	return nil
}

// Start deals one card to every player and one to the deck, then hands the
// turn to the first player.
func (e *Engine) Start() error {
	if e.phase != PhaseSetup {
		return fmt.Errorf("%w: cannot start a game while %s", ErrInvalidPhase, e.phase)
	}
	if len(e.players) < minPlayers {
		return fmt.Errorf("%w: have %d", ErrInsufficientPlayers, len(e.players))
	}

	for i := range e.players {
		e.players[i].card = e.draw(maxCardValue)
	}
	e.deck = e.draw(maxDeckValue)
	e.current = 0
	e.phase = PhaseInProgress
	return nil
}

// draw returns a value uniformly distributed in [minCardValue, max].
func (e *Engine) draw(max int) int {
	return minCardValue + e.rng.Intn(max-minCardValue+1)
}
