package core

import (
	"github.com/dkeye/Moderator/internal/app/assign"
	"github.com/dkeye/Moderator/internal/domain"
)

// reassign recomputes the participant to supervisor mapping under a new
// epoch. Participants whose supervisor changed are told to connect; every
// supervisor gets its full observee set.
func (r *roomImpl) reassign(byAttention bool) {
	if byAttention {
		assign.SortByAttention(r.room.Participants)
	}
	res := assign.Reassign(r.room.Supervisors, r.room.Participants)
	r.epoch = domain.NextEpoch(r.epoch, r.clock.Now())

	moved := res.Assigned()
	for _, p := range moved {
		if ms := r.byUser[p.ID]; ms != nil {
			r.send(ms, assignSupervisorMsg{
				Type:         "assign-supervisor",
				SupervisorID: p.Participant.AssignedSupervisor,
				Epoch:        r.epoch,
			})
		}
	}

	for _, s := range r.room.Supervisors {
		obs := res.Observees[s.ID]
		ids := make([]domain.UserID, 0, len(obs))
		names := make(map[domain.UserID]string, len(obs))
		for _, p := range obs {
			ids = append(ids, p.ID)
			names[p.ID] = p.Name
		}
		if g := r.gates[s.ID]; g != nil {
			g.Offer(r.epoch, ids)
		}
		if ms := r.byUser[s.ID]; ms != nil {
			r.send(ms, newAssignmentMsg{Type: "new-assignment", Participants: names, Epoch: r.epoch})
		}
	}

	r.deps.Metrics.Assigned(len(moved))
	r.log.Debug().
		Int64("epoch", int64(r.epoch)).
		Int("reassigned", len(moved)).
		Int("unassigned", len(res.Changed)-len(moved)).
		Bool("by_attention", byAttention).
		Msg("assignment recomputed")
}

// AssignmentAck moves the supervisor's gate to epoch and settles the
// connection requests that were waiting for it.
func (r *roomImpl) AssignmentAck(conn ConnID, epoch domain.Epoch) error {
	return r.call(func() error {
		ms, err := r.readyMember(conn)
		if err != nil {
			return err
		}
		g := r.gates[ms.supervisorID]
		if g == nil {
			return domain.ErrNotAuthorized
		}
		accepted, rejected, ok := g.Ack(epoch)
		if !ok {
			r.log.Debug().Str("user", string(ms.supervisorID)).Int64("epoch", int64(epoch)).Msg("ack for unknown epoch")
			return nil
		}
		for _, req := range accepted {
			r.deps.Metrics.ConnectAttempt(assign.Accept.String())
			r.relayRequest(ms, req)
		}
		for _, req := range rejected {
			r.deps.Metrics.ConnectAttempt(assign.Reject.String())
			r.log.Debug().Str("from", string(req.From)).Int64("epoch", int64(req.Epoch)).Msg("held connection request went stale")
		}
		return nil
	})
}

// RequestConnect admits a participant's offer through the target
// supervisor's gate. Stale offers are dropped without telling anyone.
func (r *roomImpl) RequestConnect(conn ConnID, pr PeerRequest) error {
	return r.call(func() error {
		ms, err := r.readyMember(conn)
		if err != nil {
			return err
		}
		if ms.role != domain.RoleParticipant {
			return domain.ErrNotAuthorized
		}
		req := assign.Request[PeerRequest]{From: ms.member.ID, Epoch: pr.Epoch, Payload: pr}
		g, sup := r.gates[pr.Supervisor], r.byUser[pr.Supervisor]
		if g == nil || sup == nil {
			r.deps.Metrics.ConnectAttempt(assign.Reject.String())
			r.log.Debug().Str("from", string(req.From)).Str("to", string(pr.Supervisor)).Msg("connection request to unknown supervisor")
			return nil
		}

		d := g.Admit(req)
		r.deps.Metrics.ConnectAttempt(d.String())
		switch d {
		case assign.Accept:
			r.relayRequest(sup, req)
		case assign.Reject:
			r.log.Debug().Str("from", string(req.From)).Int64("epoch", int64(req.Epoch)).Int64("known", int64(g.Epoch())).Msg("stale connection request")
		case assign.Hold:
			r.log.Debug().Str("from", string(req.From)).Int64("epoch", int64(req.Epoch)).Msg("connection request held")
		}
		return nil
	})
}

func (r *roomImpl) relayRequest(sup *memberSession, req assign.Request[PeerRequest]) {
	from := r.byUser[req.From]
	if from == nil {
		return
	}
	r.send(sup, connectRequestMsg{
		Type:          "connect-request",
		ParticipantID: req.From,
		Name:          from.member.Name,
		Epoch:         req.Epoch,
		SDP:           req.Payload.SDP,
	})
}

// AnswerConnect relays a supervisor's answer to a participant it currently
// observes.
func (r *roomImpl) AnswerConnect(conn ConnID, ans PeerAnswer) error {
	return r.call(func() error {
		ms, err := r.readyMember(conn)
		if err != nil {
			return err
		}
		if ms.supervisorID == "" {
			return domain.ErrNotAuthorized
		}
		p := r.room.Participant(ans.Participant)
		if p == nil || p.Participant.AssignedSupervisor != ms.supervisorID {
			r.log.Debug().Str("from", string(ms.supervisorID)).Str("to", string(ans.Participant)).Msg("answer for participant not observed")
			return nil
		}
		if target := r.byUser[p.ID]; target != nil {
			r.send(target, connectAnswerMsg{Type: "connect-answer", SupervisorID: ms.supervisorID, SDP: ans.SDP})
		}
		return nil
	})
}

// Candidate relays an ICE candidate between two ready members.
func (r *roomImpl) Candidate(conn ConnID, c PeerCandidate) error {
	return r.call(func() error {
		ms, err := r.readyMember(conn)
		if err != nil {
			return err
		}
		target := r.byUser[c.To]
		if target == nil {
			return nil
		}
		from := ms.member.ID
		if ms.supervisorID != "" && target.role == domain.RoleParticipant {
			from = ms.supervisorID
		}
		r.send(target, candidateMsg{
			Type:          "candidate",
			From:          from,
			Candidate:     c.Candidate.Candidate,
			SDPMid:        c.Candidate.SDPMid,
			SDPMLineIndex: c.Candidate.SDPMLineIndex,
		})
		return nil
	})
}
