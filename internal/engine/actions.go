// internal/engine/actions.go
package engine

import "fmt"

// SubmitAction resolves the current player's action.
//
// Keep leaves every card in place. Swap exchanges the player's card with the
// next player's card, or with the deck card for the last player, unless:
//   - the target holds a 10: the swap is blocked and the holder loses their turn;
//   - the target holds a 9: every consecutive 9 is skipped and the exchange
//     happens with the first player after them (or the deck).
//
// When nobody is left to take the turn the game ends with a showdown.
func (e *Engine) SubmitAction(username string, action Action) (ActionResult, error) {
	if e.phase != PhaseInProgress {
		return ActionResult{}, fmt.Errorf("%w: cannot submit an action while %s", ErrInvalidPhase, e.phase)
	}
	if action != ActionKeep && action != ActionSwap {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	if e.current < 0 || e.current >= len(e.players) || e.players[e.current].username != username {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrNotYourTurn, username)
	}

	actor := &e.players[e.current]
	next, value := e.peek()

	var kind ResultKind
	switch {
	case action == ActionKeep:
		kind = ResultKept

	case value == blockingValue:
		kind = ResultBlocked
		e.advance()
		next, _ = e.peek()

	case value == skippingValue:
		kind = ResultSkipped
		for value == skippingValue && next != nil {
			e.advance()
			next, value = e.peek()
		}
		exchange(actor, next, value)

	default:
		kind = ResultSwapped
		exchange(actor, next, value)
	}

	e.advance()

	if next == nil {
		e.phase = PhaseEnd
		return ActionResult{Kind: ResultShowdown, Losers: e.Losers()}, nil
	}

	acting, following := actor.state(), next.state()
	return ActionResult{Kind: kind, ActingPlayer: &acting, NextPlayer: &following}, nil
}

// peek returns the player after the turn pointer and the value a swap would
// take from them. Past the end of the roster the deck card is the target.
func (e *Engine) peek() (*player, int) {
	if i := e.current + 1; i < len(e.players) {
		return &e.players[i], e.players[i].card
	}
	return nil, e.deck
}

func (e *Engine) advance() {
	e.current++
}

// exchange gives the target the actor's card and the actor the target value.
// Without a target player the actor's old card is discarded.
func exchange(actor, target *player, value int) {
	if target != nil {
		target.card = actor.card
	}
	actor.card = value
}
