package signal

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Moderator/internal/core"
)

// RateLimiter is a sliding window limit on handshake attempts per browser
// session.
type RateLimiter struct {
	mu       sync.Mutex
	clock    clock.Clock
	history  map[core.SessionID][]time.Time
	limit    int
	interval time.Duration
	swept    time.Time
}

func NewRateLimiter(clk clock.Clock, limit int, interval time.Duration) *RateLimiter {
	if clk == nil {
		clk = clock.New()
	}
	return &RateLimiter{
		clock:    clk,
		history:  make(map[core.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *RateLimiter) Allow(sid core.SessionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()
	windowStart := now.Add(-rl.interval)
	if now.Sub(rl.swept) >= rl.interval {
		rl.sweep(windowStart)
		rl.swept = now
	}

	attempts := rl.history[sid]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) >= rl.limit {
		if len(fresh) == 0 {
			delete(rl.history, sid)
		} else {
			rl.history[sid] = fresh
		}
		return false
	}
	rl.history[sid] = append(fresh, now)
	return true
}

// sweep forgets sessions whose attempts all fell out of the window.
// Attempts are kept in order, so the last one is the newest.
func (rl *RateLimiter) sweep(windowStart time.Time) {
	for sid, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, sid)
		}
	}
}

// sessions returns the number of sessions with attempts on record.
func (rl *RateLimiter) sessions() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.history)
}
