package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/muscla87/cucu-telegram-game/internal/auth"
	"github.com/muscla87/cucu-telegram-game/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRequest(t *testing.T, env *testEnv, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := env.authority.CreateJWT("ops")
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	env.srv.Routes().ServeHTTP(rr, req)
	return rr
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t, Options{})
	h := env.srv.Routes()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/games/-1/state", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	other, err := auth.New(0)
	require.NoError(t, err)
	token, err := other.CreateJWT("ops")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/games/-1/state", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminExportState(t *testing.T) {
	env := newTestEnv(t, Options{})
	importTable(t, env.svc, "-1")

	rr := adminRequest(t, env, http.MethodGet, "/admin/games/-1/state", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, engine.PhaseInProgress, snap.Phase)
	require.Len(t, snap.Players, 3)
	assert.Equal(t, 9, *snap.Players[1].CardValue)
	assert.Equal(t, 2, *snap.DeckCardValue)
}

func TestAdminImportState(t *testing.T) {
	env := newTestEnv(t, Options{})
	body := `{"phase":"in_progress","currentPlayerIndex":1,"deckCardValue":5,
		"players":[{"username":"x","cardValue":1},{"username":"y","cardValue":10}]}`

	rr := adminRequest(t, env, http.MethodPut, "/admin/games/-7/state", body)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	st, err := env.svc.Status(context.Background(), "-7")
	require.NoError(t, err)
	assert.Equal(t, "y", st.Current)
	assert.Equal(t, []string{"x", "y"}, st.Players)
}

func TestAdminImportRejectsInvalidSnapshot(t *testing.T) {
	env := newTestEnv(t, Options{})
	importTable(t, env.svc, "-1")

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"phase":`, http.StatusBadRequest},
		{"unknown phase", `{"phase":"paused","players":[]}`, http.StatusUnprocessableEntity},
		{"unknown field", `{"phase":"setup","players":[],"extra":1}`, http.StatusBadRequest},
		{"card out of range", `{"phase":"in_progress","deckCardValue":3,
			"players":[{"username":"x","cardValue":11},{"username":"y","cardValue":2}]}`, http.StatusUnprocessableEntity},
		{"single player", `{"phase":"in_progress","deckCardValue":3,
			"players":[{"username":"x","cardValue":4}]}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := adminRequest(t, env, http.MethodPut, "/admin/games/-1/state", tt.body)
			assert.Equal(t, tt.code, rr.Code, rr.Body.String())
		})
	}

	// the stored game is untouched
	snap, err := env.svc.Export(context.Background(), "-1")
	require.NoError(t, err)
	assert.Len(t, snap.Players, 3)
}

func TestAdminImportReplacesStuckGame(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()
	for _, u := range []string{"x", "y"} {
		_, err := env.svc.Join(ctx, "-3", u)
		require.NoError(t, err)
	}
	_, err := env.svc.Start(ctx, "-3")
	require.NoError(t, err)
	_, err = env.svc.Act(ctx, "-3", "x", engine.ActionKeep)
	require.NoError(t, err)

	rr := adminRequest(t, env, http.MethodGet, "/admin/games/-3/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"currentPlayerIndex":1`)

	rr = adminRequest(t, env, http.MethodPut, "/admin/games/-3/state", `{"phase":"setup","players":[]}`)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	st, err := env.svc.Status(ctx, "-3")
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseSetup, st.Phase)
}
