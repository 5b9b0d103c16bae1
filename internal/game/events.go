// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/muscla87/cucu-telegram-game/internal/engine"
)

// EventType names what happened in a chat's game.
type EventType string

const (
	EventPlayerJoined  EventType = "player_joined"
	EventGameStarted   EventType = "game_started"
	EventPlayerAction  EventType = "player_action"
	EventShowdown      EventType = "showdown"
	EventNewGame       EventType = "new_game"
	EventStateImported EventType = "state_imported"
)

// Event is broadcast to spectators after a change has been stored.
// Card values stay hidden until the showdown.
type Event struct {
	Type    EventType            `json:"type"`
	GameID  uuid.UUID            `json:"game_id"`
	Phase   engine.Phase         `json:"phase"`
	User    string               `json:"user,omitempty"`
	Players []string             `json:"players,omitempty"`
	Result  *engine.ActionResult `json:"result,omitempty"`
}

// publicResult strips card values from an action result. Showdown losers are
// revealed since the game is over.
func publicResult(res engine.ActionResult) *engine.ActionResult {
	out := engine.ActionResult{Kind: res.Kind, Losers: res.Losers}
	if res.ActingPlayer != nil {
		out.ActingPlayer = &engine.PlayerState{Username: res.ActingPlayer.Username}
	}
	if res.NextPlayer != nil {
		out.NextPlayer = &engine.PlayerState{Username: res.NextPlayer.Username}
	}
	return &out
}

func usernames(players []engine.PlayerState) []string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Username
	}
	return names
}
