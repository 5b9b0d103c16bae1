// internal/engine/losers.go
package engine

// Losers returns every dealt player holding the lowest card, in turn order.
// When all dealt players share the lowest card nobody loses and the result is empty.
func (e *Engine) Losers() []PlayerState {
	losers := []PlayerState{}
	lowest, dealt := 0, 0
	for i := range e.players {
		p := &e.players[i]
		if p.card == 0 {
			continue
		}
		dealt++
		switch {
		case len(losers) == 0 || p.card < lowest:
			lowest = p.card
			losers = append(losers[:0], p.state())
		case p.card == lowest:
			losers = append(losers, p.state())
		}
	}
	if len(losers) == dealt {
		return []PlayerState{}
	}
	return losers
}
