package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

var ErrRoomNameEmpty = errors.New("room name and passcode required")

// RoomManager owns every live room and its loop goroutine.
type RoomManager struct {
	// OnRemoved, if set, is called after a room's loop has exited. Set it
	// before the first Create.
	OnRemoved func(domain.RoomID)

	ctx  context.Context
	cfg  core.RoomConfig
	deps core.RoomDeps

	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
	loops conc.WaitGroup
}

// NewRoomManager builds rooms with cfg and deps. deps.OnEmpty is replaced so
// that a room deleting itself leaves the registry.
func NewRoomManager(ctx context.Context, cfg core.RoomConfig, deps core.RoomDeps) *RoomManager {
	m := &RoomManager{ctx: ctx, cfg: cfg, rooms: make(map[domain.RoomID]core.RoomService)}
	deps.OnEmpty = m.Delete
	m.deps = deps
	return m
}

// Create mints a room in the not-yet-open state and starts its loop.
func (m *RoomManager) Create(name domain.RoomName, passcode string) (core.RoomService, error) {
	if name == "" || passcode == "" {
		return nil, ErrRoomNameEmpty
	}
	n, err := domain.NormalizeName(string(name), domain.MaxRoomNameLen)
	if err != nil {
		return nil, fmt.Errorf("room name: %w", err)
	}
	name = domain.RoomName(n)
	id := domain.RoomID(uuid.NewString())
	room := core.NewRoomService(m.ctx, domain.NewRoom(id, name, passcode), m.cfg, m.deps)

	m.mu.Lock()
	m.rooms[id] = room
	m.mu.Unlock()
	m.deps.Metrics.RoomAdded()

	m.loops.Go(func() {
		defer m.forget(id, room)
		if rec := panics.Try(room.Run); rec != nil {
			log.Error().Str("module", "app.rooms").Str("room", string(id)).Str("panic", rec.String()).Msg("room loop panicked")
		}
	})
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("name", string(name)).Msg("room created")
	return room, nil
}

func (m *RoomManager) Lookup(id domain.RoomID) (core.RoomService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if room, ok := m.rooms[id]; ok {
		return room, nil
	}
	return nil, domain.ErrRoomNotFound
}

// Delete removes the room and stops its loop without waiting.
func (m *RoomManager) Delete(id domain.RoomID) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	delete(m.rooms, id)
	m.mu.Unlock()
	if ok {
		room.Stop()
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room removed")
	}
}

func (m *RoomManager) forget(id domain.RoomID, room core.RoomService) {
	m.mu.Lock()
	if cur, ok := m.rooms[id]; ok && cur == room {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	m.deps.Metrics.RoomRemoved()
	if m.OnRemoved != nil {
		m.OnRemoved(id)
	}
}

// List returns the open rooms.
func (m *RoomManager) List() []core.RoomInfo {
	m.mu.RLock()
	rooms := make([]core.RoomService, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]core.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		info, err := r.Info()
		if err != nil || !info.IsOpen {
			continue
		}
		out = append(out, info)
	}
	return out
}

// Shutdown stops every room and waits for their loops to exit.
func (m *RoomManager) Shutdown() {
	m.mu.Lock()
	for id, r := range m.rooms {
		r.Stop()
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	m.loops.Wait()
	log.Info().Str("module", "app.rooms").Msg("all rooms stopped")
}
