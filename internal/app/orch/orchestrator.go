// Package orch routes transport events to rooms and keeps the per-channel
// state that lives outside them.
package orch

import (
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Moderator/internal/app"
	"github.com/dkeye/Moderator/internal/app/transcribe"
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/dkeye/Moderator/internal/metrics"
	"github.com/rs/zerolog/log"
)

type Orchestrator struct {
	Registry   *app.Registry
	Rooms      *app.RoomManager
	Privileges *app.PrivilegeStore
	Policy     app.Policy
	Metrics    *metrics.Metrics

	// Recognizer is nil when transcription is disabled.
	Recognizer transcribe.Recognizer
	Feed       transcribe.FeedConfig
	Clock      clock.Clock
	// History is nil when no paragraph archive is configured.
	History transcribe.History

	mu    sync.Mutex
	feeds map[core.ConnID]*activeFeed
}

// OnBackPressure is wired into every room. It runs on the room goroutine, so
// it only cancels the channel; the transport then disconnects it.
func (o *Orchestrator) OnBackPressure(room domain.RoomID, conn core.ConnID) {
	if o.Policy == nil {
		return
	}
	switch o.Policy.OnBackPressure(room, conn) {
	case app.KickMember:
		if o.KickByConn(conn) {
			log.Warn().Str("module", "app.orch").Str("room", string(room)).Str("conn", string(conn)).Msg("kicked slow member")
		}
	case app.DropFrame, app.NoAction:
	}
}

// KickByConn cancels the channel. It reports false for unknown channels.
func (o *Orchestrator) KickByConn(conn core.ConnID) bool {
	return o.Registry.Cancel(conn)
}

// RoomRemoved kicks every channel still joined to a room that left the
// registry. Set it as the room manager's OnRemoved hook.
func (o *Orchestrator) RoomRemoved(room domain.RoomID) {
	n := 0
	for _, conn := range o.Registry.ConnsOfRoom(room) {
		if o.KickByConn(conn) {
			n++
		}
	}
	if n > 0 {
		log.Info().Str("module", "app.orch").Str("room", string(room)).Int("kicked", n).Msg("closed channels of removed room")
	}
}

// roomOf resolves the room a channel has joined.
func (o *Orchestrator) roomOf(conn core.ConnID) (core.RoomService, error) {
	id, _, ok := o.Registry.RoomOf(conn)
	if !ok {
		return nil, domain.ErrNotReady
	}
	return o.Rooms.Lookup(id)
}

// normalize folds a stopped room into room-not-found.
func normalize(err error) error {
	if errors.Is(err, core.ErrRoomClosed) {
		return domain.ErrRoomNotFound
	}
	return err
}
