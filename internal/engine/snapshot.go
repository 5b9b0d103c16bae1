// internal/engine/snapshot.go
package engine

import "fmt"

// Snapshot is a detached, storage-agnostic copy of a game.
type Snapshot struct {
	Phase              Phase         `json:"phase"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	DeckCardValue      *int          `json:"deckCardValue,omitempty"`
	Players            []PlayerState `json:"players"`
}

// ExportState returns a snapshot that shares no memory with the engine.
func (e *Engine) ExportState() Snapshot {
	snap := Snapshot{
		Phase:              e.phase,
		CurrentPlayerIndex: e.current,
		Players:            e.Players(),
	}
	if e.deck != 0 {
		v := e.deck
		snap.DeckCardValue = &v
	}
	return snap
}

// ImportState replaces the whole game with the snapshot once it passes
// ValidateSnapshot. On error the engine is left untouched.
func (e *Engine) ImportState(snap Snapshot) error {
	if err := ValidateSnapshot(snap); err != nil {
		return err
	}

	players := make([]player, len(snap.Players))
	for i, p := range snap.Players {
		players[i] = player{username: p.Username}
		if p.CardValue != nil {
			players[i].card = *p.CardValue
		}
	}

	e.phase = snap.Phase
	e.current = snap.CurrentPlayerIndex
	e.deck = 0
	if snap.DeckCardValue != nil {
		e.deck = *snap.DeckCardValue
	}
	e.players = players
	return nil
}

// ValidateSnapshot checks that a snapshot is internally consistent for its phase.
func ValidateSnapshot(snap Snapshot) error {
	if err := checkUsernames(snap.Players); err != nil {
		return err
	}

	switch snap.Phase {
	case PhaseSetup:
		if snap.CurrentPlayerIndex != 0 {
			return invalid("setup pointer must be 0, got %d", snap.CurrentPlayerIndex)
		}
		if snap.DeckCardValue != nil {
			return invalid("setup must not have a deck card")
		}
		for _, p := range snap.Players {
			if p.CardValue != nil {
				return invalid("setup player %s already holds a card", p.Username)
			}
		}
		return nil

	case PhaseInProgress:
		if snap.CurrentPlayerIndex < 0 {
			return invalid("negative pointer %d", snap.CurrentPlayerIndex)
		}
		if err := checkDeck(snap.DeckCardValue, true); err != nil {
			return err
		}
		if err := checkDealtRoster(snap.Players); err != nil {
			return err
		}
		// The last player may hold the turn; their swap target is the deck.
		if snap.CurrentPlayerIndex >= len(snap.Players) {
			return invalid("pointer %d past a roster of %d", snap.CurrentPlayerIndex, len(snap.Players))
		}
		return nil

	case PhaseEnd:
		if err := checkDeck(snap.DeckCardValue, false); err != nil {
			return err
		}
		if err := checkDealtRoster(snap.Players); err != nil {
			return err
		}
		if snap.CurrentPlayerIndex == len(snap.Players)-1 {
			return invalid("pointer %d still designates the last player", snap.CurrentPlayerIndex)
		}
		return nil
	}

	return invalid("unsupported phase %s", snap.Phase)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidSnapshot}, args...)...)
}

// checkDeck requires a deck card. Only in-progress games need it in range;
// an ended game never draws from it again.
func checkDeck(deck *int, ranged bool) error {
	if deck == nil {
		return invalid("missing deck card")
	}
	if ranged && (*deck < minCardValue || *deck > maxDeckValue) {
		return invalid("deck card %d outside [%d,%d]", *deck, minCardValue, maxDeckValue)
	}
	return nil
}

// checkDealtRoster requires at least two players, each holding a valid card.
func checkDealtRoster(players []PlayerState) error {
	if players == nil {
		return invalid("missing roster")
	}
	if len(players) < minPlayers {
		return invalid("roster of %d players", len(players))
	}
	for _, p := range players {
		if p.CardValue == nil {
			return invalid("player %s holds no card", p.Username)
		}
		if v := *p.CardValue; v < minCardValue || v > maxCardValue {
			return invalid("player %s card %d outside [%d,%d]", p.Username, v, minCardValue, maxCardValue)
		}
	}
	return nil
}

func checkUsernames(players []PlayerState) error {
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		if _, dup := seen[p.Username]; dup {
			return invalid("duplicate player %s", p.Username)
		}
		seen[p.Username] = struct{}{}
	}
	return nil
}
