package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionRecord captures one accepted operation on a game, as consumed by the historian.
type ActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	Actor         string                 `json:"actor"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload,omitempty"`
	Timestamp     int64                  `json:"timestamp"` // epoch millis
}

// NewActionRecord stamps a record with the current time.
func NewActionRecord(gameID uuid.UUID, index int, actor, actionType string, payload map[string]interface{}) ActionRecord {
	return ActionRecord{
		GameID:        gameID,
		ActionIndex:   index,
		Actor:         actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
}
