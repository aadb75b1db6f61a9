package core

import (
	"unicode/utf8"

	"github.com/dkeye/Moderator/internal/domain"
)

// Disconnect removes whatever the channel had become in the room. It is the
// only way a member leaves.
func (r *roomImpl) Disconnect(conn ConnID) {
	_ = r.exec(func() { r.disconnect(conn) })
}

func (r *roomImpl) disconnect(conn ConnID) {
	ms, ok := r.members[conn]
	if !ok {
		return
	}
	delete(r.members, conn)
	if !ms.ready() {
		r.log.Debug().Str("conn", string(conn)).Msg("left before ready")
		return
	}
	id := ms.member.ID
	delete(r.byUser, id)
	r.deps.Metrics.MemberLeft(string(ms.role))

	switch ms.role {
	case domain.RolePresenter:
		r.room.Presenter = nil
		r.room.RemoveSupervisor(ms.supervisorID)
		delete(r.gates, ms.supervisorID)
		delete(r.byUser, ms.supervisorID)
		r.screenID = ""
		r.stopAttention()
		r.broadcast(presenterLeftMsg{Type: "presenter-left", UserID: id}, nil)
		r.reassign(false)
		r.log.Info().Str("user", string(id)).Msg("presenter left")

	case domain.RoleSupervisor:
		r.room.RemoveSupervisor(id)
		delete(r.gates, id)
		r.reassign(false)
		r.broadcast(memberEventMsg{Type: "member-left", UserID: id, Name: ms.member.Name, Role: ms.role}, nil)

	case domain.RoleParticipant:
		r.room.RemoveParticipant(id)
		for _, g := range r.gates {
			g.Drop(id)
		}
		r.reassign(false)
		r.broadcast(memberEventMsg{Type: "member-left", UserID: id, Name: ms.member.Name, Role: ms.role}, nil)
	}
	r.log.Info().Str("conn", string(conn)).Str("user", string(id)).Str("role", string(ms.role)).Msg("member left")
}

// sweep runs on the rebalance interval while the room is open.
func (r *roomImpl) sweep() {
	if r.room.IsEmpty() {
		r.collect("empty")
		return
	}
	r.reassign(true)
}

func (r *roomImpl) expirePending() {
	r.pending = nil
	if !r.room.IsOpen() {
		r.collect("never opened")
	}
}

func (r *roomImpl) startAttention() {
	if r.attention == nil && r.cfg.AttentionInterval > 0 {
		r.attention = r.clock.Ticker(r.cfg.AttentionInterval)
	}
}

func (r *roomImpl) stopAttention() {
	if r.attention != nil {
		r.attention.Stop()
		r.attention = nil
	}
}

// summarizeAttention sends the presenter the mean attention of participants
// that reported at least one sample, as a percentage.
func (r *roomImpl) summarizeAttention() {
	p := r.room.Presenter
	if p == nil {
		return
	}
	var sum float64
	n := 0
	for _, m := range r.room.Participants {
		if a := m.Participant.Attention; a.Samples > 0 {
			sum += a.Average
			n++
		}
	}
	if n == 0 {
		return
	}
	if ms := r.byUser[p.ID]; ms != nil {
		r.send(ms, attentionSummaryMsg{Type: "attention-summary", Percentage: sum / float64(n) * 100})
	}
}

func (r *roomImpl) Attention(conn ConnID, s AttentionSample) error {
	return r.call(func() error {
		ms, err := r.readyMember(conn)
		if err != nil {
			return err
		}
		if ms.role != domain.RoleParticipant || (s.UserID != "" && s.UserID != ms.member.ID) {
			return domain.ErrNotAuthorized
		}
		if !ms.member.Participant.Attention.Record(s.Timestamp, s.Level) {
			r.log.Debug().Str("user", string(ms.member.ID)).Int64("ts", s.Timestamp).Msg("out of order attention sample")
		}
		return nil
	})
}

func (r *roomImpl) Screenshare(conn ConnID, screenID string, active bool) error {
	return r.call(func() error {
		ms, err := r.readyMember(conn)
		if err != nil {
			return err
		}
		if ms.role != domain.RolePresenter {
			return domain.ErrNotAuthorized
		}
		typ := "screenshare-started"
		if active {
			r.screenID = screenID
		} else {
			typ = "screenshare-stopped"
			r.screenID = ""
		}
		r.broadcast(screenshareMsg{Type: typ, ScreenID: screenID}, ms)
		return nil
	})
}

// maxChatLen is in bytes. Longer messages are cut on a rune boundary.
const maxChatLen = 2000

func (r *roomImpl) Chat(conn ConnID, text string) error {
	return r.call(func() error {
		ms, err := r.readyMember(conn)
		if err != nil {
			return err
		}
		if text == "" {
			return nil
		}
		if len(text) > maxChatLen {
			cut := maxChatLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		r.broadcast(chatMsg{Type: "chat-message", UserID: ms.member.ID, Name: ms.member.Name, Text: text}, nil)
		return nil
	})
}
