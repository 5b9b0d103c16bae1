// internal/game/service.go
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/muscla87/cucu-telegram-game/internal/engine"
	"github.com/muscla87/cucu-telegram-game/internal/models"
	"github.com/sirupsen/logrus"
)

// ActionPublisher receives a record of every accepted change, e.g. the historian queue.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record models.ActionRecord) error
}

// Service runs chat commands against the game stored for each chat. Every
// operation loads the chat's game, applies one engine operation and stores the
// result, holding the chat's lock for the whole sequence.
type Service struct {
	repo      StateRepository
	locks     *SessionLocks
	logger    logrus.FieldLogger
	publisher ActionPublisher
	newEngine func() *engine.Engine

	// BroadcastFn is called with every stored change. If nil, no broadcast is done.
	BroadcastFn func(key string, ev Event)
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPublisher forwards action records to p.
func WithPublisher(p ActionPublisher) ServiceOption {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithEngineFactory overrides how engines are built, e.g. to seed dealing in tests.
func WithEngineFactory(f func() *engine.Engine) ServiceOption {
	return func(s *Service) {
		s.newEngine = f
	}
}

func NewService(repo StateRepository, logger logrus.FieldLogger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		locks:     NewSessionLocks(),
		logger:    logger,
		newEngine: func() *engine.Engine { return engine.New() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status is the public view of a chat's game. Card values are never included.
type Status struct {
	GameID  uuid.UUID    `json:"game_id"`
	Phase   engine.Phase `json:"phase"`
	Players []string     `json:"players"`
	Current string       `json:"current,omitempty"` // empty unless the game is in progress
}

// session is one loaded game.
type session struct {
	key    string
	state  *models.GameState
	engine *engine.Engine
}

// change is what a successful mutation reports back to be stored and announced.
type change struct {
	actor   string
	action  string
	payload map[string]interface{}
	event   Event
}

// Join adds username to the chat's game and returns the roster.
func (s *Service) Join(ctx context.Context, key, username string) ([]string, error) {
	var roster []string
	err := s.mutate(ctx, key, func(sess *session) (*change, error) {
		if err := sess.engine.AddPlayer(username); err != nil {
			return nil, err
		}
		roster = usernames(sess.engine.Players())
		return &change{
			actor:  username,
			action: "join",
			event:  Event{Type: EventPlayerJoined, User: username, Players: roster},
		}, nil
	})
	return roster, err
}

// Start deals the cards and returns the player who acts first.
func (s *Service) Start(ctx context.Context, key string) (string, error) {
	var first string
	err := s.mutate(ctx, key, func(sess *session) (*change, error) {
		if err := sess.engine.Start(); err != nil {
			return nil, err
		}
		cur, _ := sess.engine.CurrentPlayer()
		first = cur.Username
		return &change{
			action: "start",
			event:  Event{Type: EventGameStarted, User: first, Players: usernames(sess.engine.Players())},
		}, nil
	})
	return first, err
}

// Act submits username's action in the chat's game.
func (s *Service) Act(ctx context.Context, key, username string, action engine.Action) (engine.ActionResult, error) {
	var res engine.ActionResult
	err := s.mutate(ctx, key, func(sess *session) (*change, error) {
		var err error
		res, err = sess.engine.SubmitAction(username, action)
		if err != nil {
			return nil, err
		}
		ev := Event{Type: EventPlayerAction, User: username, Result: publicResult(res)}
		if res.Kind == engine.ResultShowdown {
			ev.Type = EventShowdown
		}
		return &change{
			actor:   username,
			action:  action.String(),
			payload: map[string]interface{}{"result": res.Kind.String()},
			event:   ev,
		}, nil
	})
	return res, err
}

// NewGame replaces a finished or not yet started game with an empty one.
// A game in progress cannot be replaced.
func (s *Service) NewGame(ctx context.Context, key string) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	sess, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if sess.engine.Phase() == engine.PhaseInProgress {
		return fmt.Errorf("%w: a game is already in progress", engine.ErrInvalidPhase)
	}

	sess.state.GameID = uuid.New()
	sess.state.ActionCount = 0
	sess.engine = s.newEngine()
	return s.commit(ctx, sess, &change{
		action: "new_game",
		event:  Event{Type: EventNewGame},
	})
}

// Import replaces the chat's game with snap once it validates. The stored
// game is never restored, so a record that no longer validates can still be
// overwritten.
func (s *Service) Import(ctx context.Context, key string, snap engine.Snapshot) error {
	eng := s.newEngine()
	if err := eng.ImportState(snap); err != nil {
		return err
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	st, err := s.loadState(ctx, key)
	if err != nil {
		return err
	}
	return s.commit(ctx, &session{key: key, state: st, engine: eng}, &change{
		action: "import",
		event:  Event{Type: EventStateImported, Players: usernames(eng.Players())},
	})
}

// Export returns the full snapshot of the chat's game, card values included.
func (s *Service) Export(ctx context.Context, key string) (engine.Snapshot, error) {
	var snap engine.Snapshot
	err := s.read(ctx, key, func(sess *session) {
		snap = sess.engine.ExportState()
	})
	return snap, err
}

// Losers evaluates the chat's game as if it ended now.
func (s *Service) Losers(ctx context.Context, key string) ([]engine.PlayerState, error) {
	var losers []engine.PlayerState
	err := s.read(ctx, key, func(sess *session) {
		losers = sess.engine.Losers()
	})
	return losers, err
}

// Status returns the public state of the chat's game.
func (s *Service) Status(ctx context.Context, key string) (Status, error) {
	var st Status
	err := s.read(ctx, key, func(sess *session) {
		st = Status{
			GameID:  sess.state.GameID,
			Phase:   sess.engine.Phase(),
			Players: usernames(sess.engine.Players()),
		}
		if cur, ok := sess.engine.CurrentPlayer(); ok {
			st.Current = cur.Username
		}
	})
	return st, err
}

// Card returns the card username currently holds.
func (s *Service) Card(ctx context.Context, key, username string) (int, error) {
	card := 0
	err := s.read(ctx, key, func(sess *session) {
		for _, p := range sess.engine.Players() {
			if p.Username == username && p.CardValue != nil {
				card = *p.CardValue
			}
		}
	})
	if err != nil {
		return 0, err
	}
	if card == 0 {
		return 0, fmt.Errorf("%w: %s holds no card", engine.ErrInvalidPhase, username)
	}
	return card, nil
}

// mutate loads the game, applies fn and stores the result. Nothing is stored when fn fails.
func (s *Service) mutate(ctx context.Context, key string, fn func(*session) (*change, error)) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	sess, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	ch, err := fn(sess)
	if err != nil {
		return err
	}
	return s.commit(ctx, sess, ch)
}

func (s *Service) read(ctx context.Context, key string, fn func(*session)) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	sess, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	fn(sess)
	return nil
}

// load fetches the chat's game. A chat without a stored game gets an empty one.
func (s *Service) load(ctx context.Context, key string) (*session, error) {
	st, err := s.loadState(ctx, key)
	if err != nil {
		return nil, err
	}

	eng := s.newEngine()
	if st.Engine != nil {
		if err := eng.ImportState(*st.Engine); err != nil {
			return nil, fmt.Errorf("restore game %s: %w", key, err)
		}
	}
	return &session{key: key, state: st, engine: eng}, nil
}

// loadState fetches the chat's record without restoring its engine.
func (s *Service) loadState(ctx context.Context, key string) (*models.GameState, error) {
	st, err := s.repo.Get(ctx, key)
	switch {
	case errors.Is(err, ErrStateNotFound):
		st = &models.GameState{ID: key, CreatedAt: time.Now()}
	case err != nil:
		return nil, fmt.Errorf("load game %s: %w", key, err)
	}
	if st.GameID == uuid.Nil {
		st.GameID = uuid.New()
	}
	return st, nil
}

// commit stores the session, then publishes and broadcasts the change.
func (s *Service) commit(ctx context.Context, sess *session, ch *change) error {
	snap := sess.engine.ExportState()
	index := sess.state.ActionCount
	sess.state.Engine = &snap
	sess.state.ActionCount++
	sess.state.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, sess.state); err != nil {
		return fmt.Errorf("save game %s: %w", sess.key, err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"chat":    sess.key,
		"game_id": sess.state.GameID,
		"action":  ch.action,
	})
	if ch.actor != "" {
		log = log.WithField("user", ch.actor)
	}
	log.Debug("game updated")

	if s.publisher != nil {
		rec := models.NewActionRecord(sess.state.GameID, index, ch.actor, ch.action, ch.payload)
		if err := s.publisher.PublishGameAction(ctx, rec); err != nil {
			log.WithError(err).Warn("failed to publish game action")
		}
	}

	if s.BroadcastFn != nil {
		ev := ch.event
		ev.GameID = sess.state.GameID
		ev.Phase = sess.engine.Phase()
		s.BroadcastFn(sess.key, ev)
	}
	return nil
}
