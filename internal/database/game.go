// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/muscla87/cucu-telegram-game/internal/engine"
	"github.com/muscla87/cucu-telegram-game/internal/game"
	"github.com/muscla87/cucu-telegram-game/internal/models"
)

// GameStateRepository stores one row per chat in game_states, with the engine
// snapshot in a JSONB column.
type GameStateRepository struct {
	db DBTX
}

func NewGameStateRepository(db DBTX) *GameStateRepository {
	return &GameStateRepository{db: db}
}

// Get returns game.ErrStateNotFound when the chat has no row.
func (r *GameStateRepository) Get(ctx context.Context, key string) (*models.GameState, error) {
	q := `
		SELECT id, game_id, engine_state, action_count, created_at, updated_at
		FROM game_states
		WHERE id = $1
	`
	var (
		st       models.GameState
		snapshot []byte
	)
	err := r.db.QueryRow(ctx, q, key).Scan(&st.ID, &st.GameID, &snapshot, &st.ActionCount, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query game state %s: %w", key, err)
	}

	if len(snapshot) > 0 && string(snapshot) != "null" {
		var snap engine.Snapshot
		if err := json.Unmarshal(snapshot, &snap); err != nil {
			return nil, fmt.Errorf("decode game state %s: %w", key, err)
		}
		st.Engine = &snap
	}
	return &st, nil
}

// Save inserts the chat's row or replaces it. created_at is kept from the first insert.
func (r *GameStateRepository) Save(ctx context.Context, st *models.GameState) error {
	var snapshot []byte
	if st.Engine != nil {
		var err error
		if snapshot, err = json.Marshal(st.Engine); err != nil {
			return fmt.Errorf("failed to marshal engine state: %w", err)
		}
	}

	createdAt := st.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := st.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	q := `
		INSERT INTO game_states (id, game_id, engine_state, action_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id)
		DO UPDATE SET game_id = EXCLUDED.game_id,
			engine_state = EXCLUDED.engine_state,
			action_count = EXCLUDED.action_count,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, q, st.ID, st.GameID, snapshot, st.ActionCount, createdAt, updatedAt); err != nil {
		return fmt.Errorf("upsert game state %s: %w", st.ID, err)
	}
	return nil
}

// ActionRepository appends historian records to game_actions.
type ActionRepository struct {
	db DBTX
}

func NewActionRepository(db DBTX) *ActionRepository {
	return &ActionRepository{db: db}
}

// InsertActions writes the records in one transaction. Records already stored
// for the same game and index are skipped, so redelivered batches are harmless.
func (r *ActionRepository) InsertActions(ctx context.Context, records []models.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	q := `
		INSERT INTO game_actions (game_id, action_index, actor, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("failed to marshal payload: %w", err)
			}
			ts := time.UnixMilli(rec.Timestamp)
			if _, err := tx.Exec(ctx, q, rec.GameID, rec.ActionIndex, rec.Actor, rec.ActionType, payload, ts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert game actions: %w", err)
	}
	return nil
}
