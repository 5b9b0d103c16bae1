package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/muscla87/cucu-telegram-game/internal/engine"
	"github.com/muscla87/cucu-telegram-game/internal/game"
	"github.com/stretchr/testify/assert"
)

func TestRenderResult(t *testing.T) {
	a := &engine.PlayerState{Username: "a"}
	b := &engine.PlayerState{Username: "b"}

	tests := []struct {
		kind engine.ResultKind
		want string
	}{
		{engine.ResultKept, "@a keeps their card.\n@b, your turn: /keep or /swap"},
		{engine.ResultSwapped, "@a swapped cards.\n@b, your turn: /keep or /swap"},
		{engine.ResultBlocked, "@a tried to swap with a 10. Blocked! The 10 sits this turn out.\n@b, your turn: /keep or /swap"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			got := renderResult(engine.ActionResult{Kind: tt.kind, ActingPlayer: a, NextPlayer: b})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderLosers(t *testing.T) {
	assert.Equal(t, "Nobody loses.", renderLosers([]engine.PlayerState{}))
	assert.Equal(t, "Losers: @a (1), @b (1)", renderLosers([]engine.PlayerState{
		{Username: "a", CardValue: intPtr(1)},
		{Username: "b", CardValue: intPtr(1)},
	}))
}

func TestRenderStatus(t *testing.T) {
	assert.Equal(t, "Waiting for players. Players (1): @a", renderStatus(game.Status{Phase: engine.PhaseSetup, Players: []string{"a"}}))
	assert.Equal(t, "Game over. Players (2): @a, @b", renderStatus(game.Status{Phase: engine.PhaseEnd, Players: []string{"a", "b"}}))
}

func TestRenderError(t *testing.T) {
	msg, ok := renderError(fmt.Errorf("wrapped: %w", engine.ErrNotYourTurn))
	assert.True(t, ok)
	assert.Equal(t, "Wait for your turn.", msg)

	_, ok = renderError(errors.New("connection refused"))
	assert.False(t, ok)
}
