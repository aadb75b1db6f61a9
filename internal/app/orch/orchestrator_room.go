package orch

import (
	"fmt"

	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/rs/zerolog/log"
)

// CreateRoom mints a room and makes sid its host.
func (o *Orchestrator) CreateRoom(sid core.SessionID, name domain.RoomName, passcode string) (core.RoomInfo, error) {
	room, err := o.Rooms.Create(name, passcode)
	if err != nil {
		return core.RoomInfo{}, err
	}
	o.Privileges.Grant(sid, room.ID())
	info, err := room.Info()
	return info, normalize(err)
}

// JoinAsSupervisor grants sid supervisor privilege when passcode matches.
func (o *Orchestrator) JoinAsSupervisor(sid core.SessionID, id domain.RoomID, passcode string) error {
	room, err := o.Rooms.Lookup(id)
	if err != nil {
		return err
	}
	if err := room.Authorize(passcode); err != nil {
		return normalize(err)
	}
	o.Privileges.Grant(sid, id)
	return nil
}

func (o *Orchestrator) RoomInfo(id domain.RoomID) (core.RoomInfo, error) {
	room, err := o.Rooms.Lookup(id)
	if err != nil {
		return core.RoomInfo{}, err
	}
	info, err := room.Info()
	return info, normalize(err)
}

func (o *Orchestrator) ListRooms() []core.RoomInfo {
	return o.Rooms.List()
}

// Connect runs the first handshake phase for a bound channel.
func (o *Orchestrator) Connect(conn core.ConnID, id domain.RoomID, role domain.Role) error {
	err := o.connect(conn, id, role)
	if err != nil {
		o.Metrics.Rejected(string(domain.ReasonOf(err)))
		log.Info().Err(err).Str("module", "app.orch").Str("conn", string(conn)).Str("room", string(id)).Str("role", string(role)).Msg("connect rejected")
	}
	return err
}

func (o *Orchestrator) connect(conn core.ConnID, id domain.RoomID, role domain.Role) error {
	sid, ok := o.Registry.SessionOf(conn)
	if !ok {
		return domain.ErrNotReady
	}
	sig, _ := o.Registry.Signal(conn)
	if _, _, joined := o.Registry.RoomOf(conn); joined {
		return fmt.Errorf("channel already joined a room: %w", domain.ErrInvalidRole)
	}
	room, err := o.Rooms.Lookup(id)
	if err != nil {
		return err
	}
	if role == domain.RolePresenter || role == domain.RoleSupervisor {
		if !o.Privileges.IsPrivileged(sid, id) {
			return domain.ErrNotAuthorized
		}
	}
	if err := room.Connect(core.ConnectRequest{Conn: conn, SID: sid, Role: role, Signal: sig}); err != nil {
		return normalize(err)
	}
	o.Registry.Join(conn, id, role)
	return nil
}

// Ready runs the second handshake phase.
func (o *Orchestrator) Ready(req core.ReadyRequest) error {
	room, err := o.roomOf(req.Conn)
	if err != nil {
		return err
	}
	if err := room.Ready(req); err != nil {
		err = normalize(err)
		o.Metrics.Rejected(string(domain.ReasonOf(err)))
		return err
	}
	return nil
}

// Disconnect is called once by the transport when a channel goes away.
func (o *Orchestrator) Disconnect(conn core.ConnID) {
	o.EndAudio(conn)
	if room, err := o.roomOf(conn); err == nil {
		room.Disconnect(conn)
	}
	o.Registry.Unbind(conn)
}

func (o *Orchestrator) Attention(conn core.ConnID, s core.AttentionSample) error {
	return o.forward(conn, func(r core.RoomService) error { return r.Attention(conn, s) })
}

func (o *Orchestrator) AssignmentAck(conn core.ConnID, epoch domain.Epoch) error {
	return o.forward(conn, func(r core.RoomService) error { return r.AssignmentAck(conn, epoch) })
}

func (o *Orchestrator) RequestConnect(conn core.ConnID, req core.PeerRequest) error {
	return o.forward(conn, func(r core.RoomService) error { return r.RequestConnect(conn, req) })
}

func (o *Orchestrator) AnswerConnect(conn core.ConnID, ans core.PeerAnswer) error {
	return o.forward(conn, func(r core.RoomService) error { return r.AnswerConnect(conn, ans) })
}

func (o *Orchestrator) Candidate(conn core.ConnID, c core.PeerCandidate) error {
	return o.forward(conn, func(r core.RoomService) error { return r.Candidate(conn, c) })
}

func (o *Orchestrator) Screenshare(conn core.ConnID, screenID string, active bool) error {
	return o.forward(conn, func(r core.RoomService) error { return r.Screenshare(conn, screenID, active) })
}

func (o *Orchestrator) Chat(conn core.ConnID, text string) error {
	return o.forward(conn, func(r core.RoomService) error { return r.Chat(conn, text) })
}

func (o *Orchestrator) forward(conn core.ConnID, fn func(core.RoomService) error) error {
	room, err := o.roomOf(conn)
	if err != nil {
		return err
	}
	return normalize(fn(room))
}
