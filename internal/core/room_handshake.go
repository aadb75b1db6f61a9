package core

import (
	"fmt"

	"github.com/dkeye/Moderator/internal/app/assign"
	"github.com/dkeye/Moderator/internal/domain"
)

// Connect is the first handshake phase. The channel joins the room's
// broadcast group and receives a snapshot, but stays invisible to others.
func (r *roomImpl) Connect(req ConnectRequest) error {
	return r.call(func() error { return r.connect(req) })
}

func (r *roomImpl) connect(req ConnectRequest) error {
	if _, ok := r.members[req.Conn]; ok {
		return fmt.Errorf("connection already joined: %w", domain.ErrInvalidRole)
	}
	switch req.Role {
	case domain.RolePresenter:
		if r.room.Presenter != nil {
			return domain.ErrPresenterExists
		}
	case domain.RoleSupervisor, domain.RoleParticipant:
		if !r.room.IsOpen() {
			return domain.ErrRoomNotFound
		}
	default:
		return domain.ErrInvalidRole
	}

	ms := &memberSession{conn: req.Conn, sid: req.SID, role: req.Role, signal: req.Signal}
	r.members[req.Conn] = ms
	r.send(ms, r.snapshot(req.Role))
	r.log.Debug().Str("conn", string(req.Conn)).Str("role", string(req.Role)).Msg("connected")
	return nil
}

func (r *roomImpl) snapshot(role domain.Role) getReadyMsg {
	msg := getReadyMsg{
		Type:         "get-ready",
		Role:         role,
		RoomID:       r.room.ID,
		RoomName:     r.room.Name,
		Supervisors:  make([]supervisorView, 0, len(r.room.Supervisors)),
		Participants: make([]memberView, 0, len(r.room.Participants)),
		ScreenID:     r.screenID,
	}
	if p := r.room.Presenter; p != nil {
		msg.Presenter = &memberView{UserID: p.ID, Name: p.Name}
	}
	for _, s := range r.room.Supervisors {
		msg.Supervisors = append(msg.Supervisors, supervisorView{
			UserID:   s.ID,
			Name:     s.Name,
			Priority: s.Supervisor.Priority,
			Capacity: s.Supervisor.Capacity,
		})
	}
	for _, p := range r.room.Participants {
		msg.Participants = append(msg.Participants, memberView{UserID: p.ID, Name: p.Name})
	}
	return msg
}

// Ready is the second handshake phase. Only now is the member added to the
// room, announced, and allowed to change assignments.
func (r *roomImpl) Ready(req ReadyRequest) error {
	return r.call(func() error { return r.ready(req) })
}

func (r *roomImpl) ready(req ReadyRequest) error {
	ms, ok := r.members[req.Conn]
	if !ok || ms.ready() {
		return domain.ErrNotReady
	}
	if err := domain.ValidateUserID(req.UserID); err != nil {
		return err
	}
	name, err := domain.NormalizeName(req.Name, domain.MaxUsernameLen)
	if err != nil {
		return err
	}
	if r.room.HasMember(req.UserID) {
		return domain.ErrDuplicateUser
	}

	switch ms.role {
	case domain.RolePresenter:
		if r.room.Presenter != nil {
			return domain.ErrPresenterExists
		}
		supID := req.SupervisorID
		if supID == "" {
			supID = req.UserID
		}
		if supID != req.UserID {
			if err := domain.ValidateUserID(supID); err != nil {
				return err
			}
			if r.room.HasMember(supID) {
				return domain.ErrDuplicateUser
			}
		}
		sup, err := domain.NewSupervisor(supID, name, domain.LowestPriority, domain.Unbounded)
		if err != nil {
			return err
		}
		ms.member = domain.NewPresenter(req.UserID, name)
		ms.supervisorID = supID
		r.room.Presenter = ms.member
		r.room.AddSupervisor(sup)
		r.gates[supID] = assign.NewGate[PeerRequest]()
		r.byUser[supID] = ms
		r.open()
		r.startAttention()

	case domain.RoleSupervisor:
		sup, err := domain.NewSupervisor(req.UserID, name, req.Priority, req.Capacity)
		if err != nil {
			return err
		}
		ms.member = sup
		ms.supervisorID = sup.ID
		r.room.AddSupervisor(sup)
		r.gates[sup.ID] = assign.NewGate[PeerRequest]()

	case domain.RoleParticipant:
		ms.member = domain.NewParticipant(req.UserID, name)
		r.room.AddParticipant(ms.member)
	}
	r.byUser[req.UserID] = ms

	r.deps.Metrics.MemberJoined(string(ms.role))
	r.broadcast(memberEventMsg{Type: "member-joined", UserID: ms.member.ID, Name: name, Role: ms.role}, ms)
	r.reassign(false)

	r.log.Info().
		Str("conn", string(req.Conn)).
		Str("user", string(req.UserID)).
		Str("role", string(ms.role)).
		Msg("member ready")
	return nil
}

// open marks the room open on the first presenter and starts the periodic
// rebalance. Reopening a resumed room changes nothing.
func (r *roomImpl) open() {
	if r.room.IsOpen() {
		return
	}
	r.room.Open()
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	if r.cfg.RebalanceInterval > 0 {
		r.rebalance = r.clock.Ticker(r.cfg.RebalanceInterval)
	}
	r.log.Info().Msg("room opened")
}
