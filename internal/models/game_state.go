// internal/models/game_state.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/muscla87/cucu-telegram-game/internal/engine"
)

// GameState is the persisted document for one chat. A chat plays one game at a
// time; GameID changes whenever a new game is set up in the chat.
type GameState struct {
	ID          string           `json:"id"` // session key, the chat id
	GameID      uuid.UUID        `json:"game_id"`
	Engine      *engine.Snapshot `json:"engine_state,omitempty"`
	ActionCount int              `json:"action_count"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Clone returns a deep copy that shares no memory with s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Engine != nil {
		snap := cloneSnapshot(*s.Engine)
		c.Engine = &snap
	}
	return &c
}

func cloneSnapshot(snap engine.Snapshot) engine.Snapshot {
	out := snap
	if snap.DeckCardValue != nil {
		v := *snap.DeckCardValue
		out.DeckCardValue = &v
	}
	if snap.Players != nil {
		out.Players = make([]engine.PlayerState, len(snap.Players))
		for i, p := range snap.Players {
			out.Players[i] = engine.PlayerState{Username: p.Username}
			if p.CardValue != nil {
				v := *p.CardValue
				out.Players[i].CardValue = &v
			}
		}
	}
	return out
}
