package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupChat int64 = -100

var userIDs = map[string]int64{"a": 11, "b": 12, "c": 13, "alice": 21, "bob": 22}

func commandUpdate(chatID int64, username, text string) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			MessageID: 1,
			From:      &tgbotapi.User{ID: userIDs[username], UserName: username},
			Chat:      &tgbotapi.Chat{ID: chatID, Type: "group"},
			Text:      text,
			Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	}
}

func postUpdate(t *testing.T, h http.Handler, upd tgbotapi.Update, secret string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(upd)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	if secret != "" {
		req.Header.Set(webhookSecretHeader, secret)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// say posts a command to the group and returns the bot's reply there.
func say(t *testing.T, env *testEnv, username, text string) string {
	t.Helper()
	rr := postUpdate(t, env.srv.Routes(), commandUpdate(groupChat, username, text), "")
	require.Equal(t, http.StatusOK, rr.Code)
	last := env.messenger.last()
	require.Equal(t, groupChat, last.chatID)
	return last.text
}

func TestWebhookJoinAndStart(t *testing.T) {
	env := newTestEnv(t, Options{})

	assert.Equal(t, "@alice joined. Players (1): @alice", say(t, env, "alice", "/join"))
	assert.Equal(t, "You are already at the table.", say(t, env, "alice", "/join"))
	assert.Equal(t, "At least 2 players are needed. Use /join.", say(t, env, "alice", "/startgame"))
	assert.Equal(t, "@bob joined. Players (2): @alice, @bob", say(t, env, "bob", "/join@CucuBot"))

	reply := say(t, env, "bob", "/startgame")
	assert.Contains(t, reply, "Cards are dealt!")
	assert.Contains(t, reply, "@alice, your turn")

	assert.Equal(t, "Wait for your turn.", say(t, env, "bob", "/keep"))
	assert.Equal(t, "That can't be done right now. Check /status.", say(t, env, "alice", "/newgame"))

	status := say(t, env, "bob", "/status")
	assert.Contains(t, status, "Game in progress.")
	assert.Contains(t, status, "Turn: @alice")
}

func TestWebhookPlaysToShowdown(t *testing.T) {
	env := newTestEnv(t, Options{})
	importTable(t, env.svc, "-100")

	assert.Equal(t, "@a jumped over the 9s and swapped.\n@c, your turn: /keep or /swap", say(t, env, "a", "/swap"))
	assert.Equal(t, "Losers: @c (3)", say(t, env, "b", "/losers"))
	assert.Equal(t, "Showdown!\nLosers: @c (2)\nStart over with /newgame", say(t, env, "c", "/swap"))

	assert.Equal(t, "The table is empty. Use /join to sit down.", say(t, env, "a", "/newgame"))
	assert.Equal(t, "No players yet. Use /join to sit down.", say(t, env, "a", "/status"))
}

func TestWebhookCardIsSentPrivately(t *testing.T) {
	env := newTestEnv(t, Options{})
	importTable(t, env.svc, "-100")

	assert.Equal(t, "@b, I sent you your card.", say(t, env, "b", "/card"))
	require.GreaterOrEqual(t, env.messenger.count(), 2)
	dm := env.messenger.sent[env.messenger.count()-2]
	assert.Equal(t, sentMessage{chatID: userIDs["b"], text: "Your card: 9"}, dm)

	env.messenger.fail[userIDs["c"]] = true
	assert.Contains(t, say(t, env, "c", "/card"), "open a private chat with me")

	assert.Equal(t, "That can't be done right now. Check /status.", say(t, env, "alice", "/card"))
}

func TestWebhookIgnoresNonCommands(t *testing.T) {
	env := newTestEnv(t, Options{})

	upd := commandUpdate(groupChat, "alice", "hello there")
	upd.Message.Entities = nil
	rr := postUpdate(t, env.srv.Routes(), upd, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = postUpdate(t, env.srv.Routes(), commandUpdate(groupChat, "alice", "/dance"), "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = postUpdate(t, env.srv.Routes(), tgbotapi.Update{UpdateID: 3}, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Zero(t, env.messenger.count())
}

func TestWebhookHelp(t *testing.T) {
	env := newTestEnv(t, Options{})
	assert.Equal(t, helpText, say(t, env, "alice", "/help"))
}

func TestWebhookSecret(t *testing.T) {
	env := newTestEnv(t, Options{WebhookSecret: "s3cret"})
	h := env.srv.Routes()

	rr := postUpdate(t, h, commandUpdate(groupChat, "alice", "/join"), "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = postUpdate(t, h, commandUpdate(groupChat, "alice", "/join"), "wrong")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Zero(t, env.messenger.count())

	rr = postUpdate(t, h, commandUpdate(groupChat, "alice", "/join"), "s3cret")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, env.messenger.count())
}

func TestWebhookRejectsInvalidBody(t *testing.T) {
	env := newTestEnv(t, Options{})
	rr := httptest.NewRecorder()
	env.srv.Routes().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookRateLimitsPerChat(t *testing.T) {
	env := newTestEnv(t, Options{ChatRatePerSec: 0.001, ChatRateBurst: 1})
	h := env.srv.Routes()

	postUpdate(t, h, commandUpdate(groupChat, "alice", "/join"), "")
	postUpdate(t, h, commandUpdate(groupChat, "bob", "/join"), "")
	assert.Equal(t, 1, env.messenger.count(), "second command in the same chat is dropped")

	postUpdate(t, h, commandUpdate(-200, "bob", "/join"), "")
	assert.Equal(t, 2, env.messenger.count(), "other chats have their own budget")
}

func TestPlayerNameFallsBackToID(t *testing.T) {
	assert.Equal(t, "alice", playerName(&tgbotapi.User{ID: 5, UserName: "alice"}))
	assert.Equal(t, "5", playerName(&tgbotapi.User{ID: 5}))
}
