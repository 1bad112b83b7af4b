package ws

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vividbreeze/planning-poker/internal/core"
)

// JoinRateLimiter bounds room-entry attempts per session over a sliding
// window, keeping one client from hammering id generation.
type JoinRateLimiter struct {
	clock clockwork.Clock

	mu       sync.Mutex
	history  map[core.SessionID][]time.Time
	limit    int
	interval time.Duration
}

func NewJoinRateLimiter(limit int, interval time.Duration, clock clockwork.Clock) *JoinRateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JoinRateLimiter{
		clock:    clock,
		history:  make(map[core.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *JoinRateLimiter) Allow(sid core.SessionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[sid] = fresh
	return true
}
