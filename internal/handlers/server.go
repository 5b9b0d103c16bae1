// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/muscla87/cucu-telegram-game/internal/auth"
	"github.com/muscla87/cucu-telegram-game/internal/game"
	"github.com/muscla87/cucu-telegram-game/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Options configures a Server. Zero rate values disable rate limiting.
type Options struct {
	WebhookSecret  string
	ChatRatePerSec float64
	ChatRateBurst  int
	OriginPatterns []string // allowed spectator origins, e.g. "*.example.com"
}

// Server holds everything the HTTP handlers need.
type Server struct {
	svc            *game.Service
	messenger      Messenger
	authority      *auth.Authority
	hub            *Hub
	limiters       *chatLimiters
	logger         logrus.FieldLogger
	webhookSecret  string
	originPatterns []string
}

// NewServer wires the handlers to svc and routes the service's broadcasts to
// the spectator hub.
func NewServer(svc *game.Service, messenger Messenger, authority *auth.Authority, logger logrus.FieldLogger, opts Options) *Server {
	s := &Server{
		svc:            svc,
		messenger:      messenger,
		authority:      authority,
		hub:            NewHub(logger),
		logger:         logger,
		webhookSecret:  opts.WebhookSecret,
		originPatterns: opts.OriginPatterns,
	}
	if opts.ChatRatePerSec > 0 && opts.ChatRateBurst > 0 {
		s.limiters = newChatLimiters(opts.ChatRatePerSec, opts.ChatRateBurst)
	}
	svc.BroadcastFn = s.hub.Broadcast
	return s
}

// Routes returns the server's mux wrapped in request logging.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /telegram/webhook", s.TelegramWebhookHandler)
	mux.HandleFunc("GET /games/{key}/ws", s.SpectatorWSHandler)
	mux.HandleFunc("GET /admin/games/{key}/state", s.requireAdmin(s.ExportStateHandler))
	mux.HandleFunc("PUT /admin/games/{key}/state", s.requireAdmin(s.ImportStateHandler))

	return middleware.LogMiddleware(s.logger)(mux)
}
