package core

import "github.com/dkeye/Moderator/internal/domain"

// memberSession pairs a control channel with the member it became on ready.
type memberSession struct {
	conn   ConnID
	sid    SessionID
	role   domain.Role
	signal SignalConnection

	// member is nil until the ready phase succeeds.
	member *domain.Member
	// supervisorID is the identity peers connect to: the member id of a
	// supervisor, or the presenter's supervisor entry.
	supervisorID domain.UserID
}

func (m *memberSession) ready() bool { return m.member != nil }

func (m *memberSession) userID() domain.UserID {
	if m.member == nil {
		return ""
	}
	return m.member.ID
}
