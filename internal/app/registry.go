package app

import (
	"context"
	"sync"

	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	SID    core.SessionID
	Room   domain.RoomID
	Role   domain.Role
	Signal core.SignalConnection
	Cancel context.CancelFunc
}

// Registry tracks every open control channel and the room it joined.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*connEntry)}
}

func (r *Registry) BindSignal(conn core.ConnID, sid core.SessionID, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn] = &connEntry{SID: sid, Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) Signal(conn core.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[conn]; ok {
		return e.Signal, true
	}
	return nil, false
}

func (r *Registry) SessionOf(conn core.ConnID) (core.SessionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[conn]; ok {
		return e.SID, true
	}
	return "", false
}

// Join records that conn passed the connect phase of room. A channel joins at
// most one room.
func (r *Registry) Join(conn core.ConnID, room domain.RoomID, role domain.Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[conn]
	if !ok || e.Room != "" {
		return false
	}
	e.Room = room
	e.Role = role
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Str("room", string(room)).Str("role", string(role)).Msg("joined room")
	return true
}

func (r *Registry) RoomOf(conn core.ConnID) (domain.RoomID, domain.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[conn]
	if !ok || e.Room == "" {
		return "", "", false
	}
	return e.Room, e.Role, true
}

func (r *Registry) Unbind(conn core.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn)
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("unbind signal")
}

// ConnsOfRoom lists the channels joined to room.
func (r *Registry) ConnsOfRoom(room domain.RoomID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.ConnID
	for id, e := range r.conns {
		if e.Room == room {
			out = append(out, id)
		}
	}
	return out
}

// Cancel ends the channel's context. The transport then runs the normal
// disconnect path.
func (r *Registry) Cancel(conn core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[conn]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(conn)).Msg("canceled signal")
	return true
}
