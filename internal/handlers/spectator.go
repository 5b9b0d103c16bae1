// internal/handlers/spectator.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/muscla87/cucu-telegram-game/internal/game"
	"github.com/muscla87/cucu-telegram-game/internal/middleware"
	"github.com/sirupsen/logrus"
)

const (
	spectatorSubprotocol = "cucu"
	spectatorBuffer      = 16
	writeTimeout         = 3 * time.Second
)

type spectator struct {
	send chan []byte
	// slow is closed when the spectator's buffer overflows.
	slow     chan struct{}
	slowOnce sync.Once
}

// Hub fans game events out to the spectators of each chat.
type Hub struct {
	mu     sync.Mutex
	chats  map[string]map[*spectator]struct{}
	logger logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		chats:  make(map[string]map[*spectator]struct{}),
		logger: logger,
	}
}

// Broadcast queues ev for every spectator of key. It never blocks: the game
// service calls it while holding the chat's lock.
func (h *Hub) Broadcast(key string, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.WithError(err).WithField("chat", key).Error("failed to marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sp := range h.chats[key] {
		select {
		case sp.send <- data:
		default:
			sp.slowOnce.Do(func() { close(sp.slow) })
		}
	}
}

func (h *Hub) subscribe(key string) *spectator {
	sp := &spectator{
		send: make(chan []byte, spectatorBuffer),
		slow: make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.chats[key] == nil {
		h.chats[key] = make(map[*spectator]struct{})
	}
	h.chats[key][sp] = struct{}{}
	return sp
}

func (h *Hub) unsubscribe(key string, sp *spectator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.chats[key], sp)
	if len(h.chats[key]) == 0 {
		delete(h.chats, key)
	}
}

func (h *Hub) spectators(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.chats[key])
}

// SpectatorWSHandler streams a chat's events over a websocket. The first
// message is the chat's current status; card values are never sent.
func (s *Server) SpectatorWSHandler(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{spectatorSubprotocol},
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		s.logger.WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "internal error")

	if c.Subprotocol() != spectatorSubprotocol {
		c.Close(BadSubprotocolError, "client must use the 'cucu' subprotocol")
		return
	}

	middleware.LogWebSocketConnect(s.logger, r.RemoteAddr, key)
	sp := s.hub.subscribe(key)
	defer s.hub.unsubscribe(key, sp)

	// Spectators only listen; CloseRead handles pings and cancels ctx once the client goes away.
	ctx := c.CloseRead(r.Context())

	st, err := s.svc.Status(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("chat", key).Error("failed to load status")
		return
	}
	if err := writeMessage(ctx, c, map[string]interface{}{"type": "status", "status": st}); err != nil {
		middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, key, err)
		return
	}

	err = pumpEvents(ctx, c, sp)
	middleware.LogWebSocketDisconnect(s.logger, r.RemoteAddr, key, err)
	if errors.Is(err, errSlowSpectator) {
		c.Close(SlowSpectatorError, "too slow")
		return
	}
	c.Close(websocket.StatusNormalClosure, "")
}

var errSlowSpectator = errors.New("spectator too slow")

// pumpEvents writes queued events until the client leaves or falls behind.
func pumpEvents(ctx context.Context, c *websocket.Conn, sp *spectator) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sp.slow:
			return errSlowSpectator
		case data := <-sp.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func writeMessage(ctx context.Context, c *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}
