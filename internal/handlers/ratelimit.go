package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type chatLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// chatLimiters keeps one token bucket per chat so a noisy group can't starve the others.
type chatLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	chats     map[int64]*chatLimiter
	lastSweep time.Time
	now       func() time.Time
}

func newChatLimiters(perSec float64, burst int) *chatLimiters {
	return &chatLimiters{
		limit: rate.Limit(perSec),
		burst: burst,
		chats: make(map[int64]*chatLimiter),
		now:   time.Now,
	}
}

func (l *chatLimiters) allow(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for id, cl := range l.chats {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(l.chats, id)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.chats[chatID]
	if !ok {
		cl = &chatLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.chats[chatID] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}
