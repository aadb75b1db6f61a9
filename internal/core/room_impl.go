package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Moderator/internal/app/assign"
	"github.com/dkeye/Moderator/internal/app/transcribe"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

var ErrRoomClosed = errors.New("room closed")

// roomImpl is an in-memory room driven by a single goroutine. Every state
// change runs to completion inside Run, so no locks guard the fields below.
// It never closes adapter-owned resources except on teardown.
type roomImpl struct {
	ctx    context.Context
	cancel context.CancelFunc
	inbox  chan func()
	done   chan struct{}

	cfg   RoomConfig
	deps  RoomDeps
	clock clock.Clock
	log   zerolog.Logger
	tasks conc.WaitGroup

	room      *domain.Room
	members   map[ConnID]*memberSession
	byUser    map[domain.UserID]*memberSession
	epoch     domain.Epoch
	gates     map[domain.UserID]*assign.Gate[PeerRequest]
	screenID  string
	segmenter *transcribe.Segmenter

	rebalance *clock.Ticker
	attention *clock.Ticker
	pending   *clock.Timer
	collected bool
}

func NewRoomService(parent context.Context, room *domain.Room, cfg RoomConfig, deps RoomDeps) RoomService {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if cfg.SummaryTimeout <= 0 {
		cfg.SummaryTimeout = DefaultRoomConfig().SummaryTimeout
	}
	ctx, cancel := context.WithCancel(parent)
	r := &roomImpl{
		ctx:     ctx,
		cancel:  cancel,
		inbox:   make(chan func(), 64),
		done:    make(chan struct{}),
		cfg:     cfg,
		deps:    deps,
		clock:   deps.Clock,
		log:     log.With().Str("module", "room").Str("room", string(room.ID)).Logger(),
		room:    room,
		members: make(map[ConnID]*memberSession),
		byUser:  make(map[domain.UserID]*memberSession),
		gates:   make(map[domain.UserID]*assign.Gate[PeerRequest]),
	}
	r.segmenter = transcribe.NewSegmenter(r.clock, cfg.ParagraphSilence, r.post, r.paragraphClosed)
	return r
}

func (r *roomImpl) ID() domain.RoomID { return r.room.ID }

func (r *roomImpl) Done() <-chan struct{} { return r.done }

// Stop ends the room loop. It does not wait for it.
func (r *roomImpl) Stop() { r.cancel() }

func (r *roomImpl) Run() {
	defer close(r.done)
	defer r.teardown()

	if !r.room.IsOpen() && r.cfg.PendingTTL > 0 {
		r.pending = r.clock.AfterFunc(r.cfg.PendingTTL, func() { r.post(r.expirePending) })
	}
	r.log.Info().Str("name", string(r.room.Name)).Msg("room loop started")

	for {
		select {
		case <-r.ctx.Done():
			return
		case fn := <-r.inbox:
			fn()
		case <-tickC(r.rebalance):
			r.sweep()
		case <-tickC(r.attention):
			r.summarizeAttention()
		}
	}
}

func tickC(t *clock.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func (r *roomImpl) teardown() {
	r.cancel()
	if r.rebalance != nil {
		r.rebalance.Stop()
	}
	r.stopAttention()
	if r.pending != nil {
		r.pending.Stop()
	}
	r.segmenter.Stop()
	for _, ms := range r.members {
		ms.signal.Close()
	}
	if rec := r.tasks.WaitAndRecover(); rec != nil {
		r.log.Error().Str("panic", rec.String()).Msg("summary task panicked")
	}
	r.log.Info().Msg("room loop stopped")
}

// exec runs fn on the room goroutine and waits for it.
func (r *roomImpl) exec(fn func()) error {
	ran := make(chan struct{})
	select {
	case r.inbox <- func() { defer close(ran); fn() }:
	case <-r.ctx.Done():
		return ErrRoomClosed
	}
	select {
	case <-ran:
		return nil
	case <-r.done:
		select {
		case <-ran:
			return nil
		default:
			return ErrRoomClosed
		}
	}
}

func (r *roomImpl) call(fn func() error) error {
	var err error
	if e := r.exec(func() { err = fn() }); e != nil {
		return e
	}
	return err
}

// post queues fn without waiting. Dropped once the room is closed.
func (r *roomImpl) post(fn func()) {
	select {
	case r.inbox <- fn:
	case <-r.ctx.Done():
	}
}

// collect deletes the room. The loop exits after the current handler.
func (r *roomImpl) collect(reason string) {
	if r.collected {
		return
	}
	r.collected = true
	r.log.Info().Str("reason", reason).Msg("room deleted")
	if r.deps.OnEmpty != nil {
		r.deps.OnEmpty(r.room.ID)
	}
	r.cancel()
}

func (r *roomImpl) send(ms *memberSession, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		r.log.Error().Err(err).Msg("marshal outbound event")
		return
	}
	r.deliver(ms, b)
}

// broadcast sends v to every channel joined to the room except skip.
func (r *roomImpl) broadcast(v any, skip *memberSession) {
	b, err := json.Marshal(v)
	if err != nil {
		r.log.Error().Err(err).Msg("marshal broadcast event")
		return
	}
	sent := 0
	for _, ms := range r.members {
		if ms == skip {
			continue
		}
		if r.deliver(ms, b) {
			sent++
		}
	}
	r.log.Debug().Int("sent_to", sent).Int("members", len(r.members)).Msg("broadcast result")
}

func (r *roomImpl) deliver(ms *memberSession, b Frame) bool {
	if err := ms.signal.TrySend(b); err != nil {
		r.log.Warn().Err(err).Str("conn", string(ms.conn)).Str("user", string(ms.userID())).Msg("send failed")
		if r.deps.OnBackpressure != nil {
			r.deps.OnBackpressure(r.room.ID, ms.conn)
		}
		return false
	}
	return true
}

func (r *roomImpl) Info() (RoomInfo, error) {
	var info RoomInfo
	err := r.exec(func() {
		info = RoomInfo{
			ID:           r.room.ID,
			Name:         r.room.Name,
			IsOpen:       r.room.IsOpen(),
			Supervisors:  len(r.room.Supervisors),
			Participants: len(r.room.Participants),
		}
		if r.room.Presenter != nil {
			info.Presenter = 1
		}
	})
	return info, err
}

func (r *roomImpl) Authorize(passcode string) error {
	return r.call(func() error {
		if !r.room.IsOpen() {
			return domain.ErrRoomNotFound
		}
		if !r.room.CheckPasscode(passcode) {
			return domain.ErrNotAuthorized
		}
		return nil
	})
}

func (r *roomImpl) readyMember(conn ConnID) (*memberSession, error) {
	ms, ok := r.members[conn]
	if !ok || !ms.ready() {
		return nil, domain.ErrNotReady
	}
	return ms, nil
}
