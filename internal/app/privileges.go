package app

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionGrants struct {
	rooms    map[domain.RoomID]struct{}
	lastSeen time.Time
}

// PrivilegeStore records which browser sessions may act as host or
// supervisor in which rooms. Grants live as long as the session is active.
type PrivilegeStore struct {
	mu     sync.RWMutex
	clock  clock.Clock
	grants map[core.SessionID]*sessionGrants
}

func NewPrivilegeStore(clk clock.Clock) *PrivilegeStore {
	if clk == nil {
		clk = clock.New()
	}
	return &PrivilegeStore{clock: clk, grants: make(map[core.SessionID]*sessionGrants)}
}

// Grant marks sid privileged for room. Granting twice is a no-op.
func (s *PrivilegeStore) Grant(sid core.SessionID, room domain.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[sid]
	if !ok {
		g = &sessionGrants{rooms: make(map[domain.RoomID]struct{})}
		s.grants[sid] = g
	}
	g.rooms[room] = struct{}{}
	g.lastSeen = s.clock.Now()
	log.Info().Str("module", "app.privileges").Str("sid", string(sid)).Str("room", string(room)).Msg("privilege granted")
}

func (s *PrivilegeStore) IsPrivileged(sid core.SessionID, room domain.RoomID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[sid]
	if !ok {
		return false
	}
	g.lastSeen = s.clock.Now()
	_, ok = g.rooms[room]
	return ok
}

// Purge drops every session idle for longer than maxAge and returns how
// many were dropped.
func (s *PrivilegeStore) Purge(maxAge time.Duration) int {
	cutoff := s.clock.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, g := range s.grants {
		if g.lastSeen.Before(cutoff) {
			delete(s.grants, sid)
			n++
		}
	}
	return n
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (s *PrivilegeStore) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	t := s.clock.Ticker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Purge(maxAge); n > 0 {
				log.Debug().Str("module", "app.privileges").Int("sessions", n).Msg("expired sessions purged")
			}
		}
	}
}
