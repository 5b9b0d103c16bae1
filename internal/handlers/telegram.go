// internal/handlers/telegram.go
package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/muscla87/cucu-telegram-game/internal/engine"
	"github.com/muscla87/cucu-telegram-game/internal/game"
	"github.com/sirupsen/logrus"
)

// Messenger sends a plain text message to a Telegram chat.
type Messenger interface {
	Send(chatID int64, text string) error
}

// TelegramMessenger delivers messages through the Bot API.
type TelegramMessenger struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramMessenger authenticates the bot token against Telegram.
func NewTelegramMessenger(token string) (*TelegramMessenger, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramMessenger{bot: bot}, nil
}

func (m *TelegramMessenger) Username() string {
	return m.bot.Self.UserName
}

func (m *TelegramMessenger) Send(chatID int64, text string) error {
	_, err := m.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

const (
	webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	maxUpdateBytes      = 1 << 20
	commandTimeout      = 10 * time.Second
)

// TelegramWebhookHandler decodes one update per request and runs its command.
// Telegram retries anything but a 2xx, so decoded updates are always acknowledged.
func (s *Server) TelegramWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if s.webhookSecret != "" {
		got := r.Header.Get(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.From == nil || !msg.IsCommand() {
		return
	}

	chatID := msg.Chat.ID
	if s.limiters != nil && !s.limiters.allow(chatID) {
		s.logger.WithField("chat", chatID).Debug("rate limited, dropping command")
		return
	}

	// The command outlives the request so a dropped connection doesn't abort a save.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), commandTimeout)
	defer cancel()
	s.handleCommand(ctx, chatID, playerName(msg.From), msg.From.ID, msg.Command())
}

// playerName is the Telegram @username, or the numeric id for users without one.
func playerName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strconv.FormatInt(u.ID, 10)
}

func (s *Server) handleCommand(ctx context.Context, chatID int64, user string, userID int64, command string) {
	key := strconv.FormatInt(chatID, 10)
	log := s.logger.WithFields(logrus.Fields{"chat": key, "user": user, "command": command})
	log.Debug("command received")

	var (
		reply string
		err   error
	)
	switch command {
	case "join":
		var roster []string
		if roster, err = s.svc.Join(ctx, key, user); err == nil {
			reply = mention(user) + " joined. " + renderRoster(roster)
		}
	case "startgame":
		var first string
		if first, err = s.svc.Start(ctx, key); err == nil {
			reply = renderStarted(first)
		}
	case "keep", "swap":
		action, _ := engine.ParseAction(command)
		var res engine.ActionResult
		if res, err = s.svc.Act(ctx, key, user, action); err == nil {
			reply = renderResult(res)
		}
	case "losers":
		var losers []engine.PlayerState
		if losers, err = s.svc.Losers(ctx, key); err == nil {
			reply = renderLosers(losers)
		}
	case "status":
		var st game.Status
		if st, err = s.svc.Status(ctx, key); err == nil {
			reply = renderStatus(st)
		}
	case "newgame":
		if err = s.svc.NewGame(ctx, key); err == nil {
			reply = "The table is empty. Use /join to sit down."
		}
	case "card":
		reply, err = s.sendCard(ctx, key, user, userID)
	case "help", "start":
		reply = helpText
	default:
		return
	}

	if err != nil {
		var ok bool
		reply, ok = renderError(err)
		if !ok {
			log.WithError(err).Error("command failed")
		} else {
			log.WithError(err).Debug("command rejected")
		}
	}
	s.reply(log, chatID, reply)
}

// sendCard delivers the user's card in a private chat.
func (s *Server) sendCard(ctx context.Context, key, user string, userID int64) (string, error) {
	card, err := s.svc.Card(ctx, key, user)
	if err != nil {
		return "", err
	}
	if err := s.messenger.Send(userID, "Your card: "+strconv.Itoa(card)); err != nil {
		s.logger.WithError(err).WithField("user", user).Debug("private message failed")
		return mention(user) + ", open a private chat with me and press Start, then try /card again.", nil
	}
	return mention(user) + ", I sent you your card.", nil
}

func (s *Server) reply(log logrus.FieldLogger, chatID int64, text string) {
	if err := s.messenger.Send(chatID, text); err != nil {
		log.WithError(err).Warn("failed to send reply")
	}
}
