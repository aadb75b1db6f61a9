package domain

import (
	"crypto/subtle"
	"slices"
)

type (
	RoomName string
	RoomID   string
)

// Room is the membership state of one session. It is not safe for concurrent
// use; the owning room loop serializes every mutation.
type Room struct {
	ID       RoomID
	Name     RoomName
	passcode string
	isOpen   bool

	Presenter    *Member
	Supervisors  []*Member // ascending priority, insertion order among equals
	Participants []*Member
}

func NewRoom(id RoomID, name RoomName, passcode string) *Room {
	return &Room{ID: id, Name: name, passcode: passcode}
}

func (r *Room) IsOpen() bool { return r.isOpen }

// Open marks the room open. There is no way back.
func (r *Room) Open() { r.isOpen = true }

func (r *Room) CheckPasscode(p string) bool {
	return subtle.ConstantTimeCompare([]byte(r.passcode), []byte(p)) == 1
}

// IsEmpty reports whether the room holds nobody and may be collected.
func (r *Room) IsEmpty() bool {
	return r.Presenter == nil && len(r.Supervisors) == 0 && len(r.Participants) == 0
}

// AddSupervisor inserts s after every supervisor whose priority is lower or
// equal, keeping the list sorted.
func (r *Room) AddSupervisor(s *Member) {
	i := len(r.Supervisors)
	for j, cur := range r.Supervisors {
		if cur.Supervisor.Priority > s.Supervisor.Priority {
			i = j
			break
		}
	}
	r.Supervisors = slices.Insert(r.Supervisors, i, s)
}

func (r *Room) RemoveSupervisor(id UserID) (*Member, bool) {
	i := slices.IndexFunc(r.Supervisors, func(m *Member) bool { return m.ID == id })
	if i < 0 {
		return nil, false
	}
	m := r.Supervisors[i]
	r.Supervisors = slices.Delete(r.Supervisors, i, i+1)
	return m, true
}

func (r *Room) Supervisor(id UserID) *Member {
	i := slices.IndexFunc(r.Supervisors, func(m *Member) bool { return m.ID == id })
	if i < 0 {
		return nil
	}
	return r.Supervisors[i]
}

func (r *Room) AddParticipant(p *Member) {
	r.Participants = append(r.Participants, p)
}

func (r *Room) RemoveParticipant(id UserID) (*Member, bool) {
	i := slices.IndexFunc(r.Participants, func(m *Member) bool { return m.ID == id })
	if i < 0 {
		return nil, false
	}
	m := r.Participants[i]
	r.Participants = slices.Delete(r.Participants, i, i+1)
	return m, true
}

func (r *Room) Participant(id UserID) *Member {
	i := slices.IndexFunc(r.Participants, func(m *Member) bool { return m.ID == id })
	if i < 0 {
		return nil
	}
	return r.Participants[i]
}

// HasMember reports whether id is taken by any role in the room. The
// presenter's own supervisor entry shares the presenter id.
func (r *Room) HasMember(id UserID) bool {
	if r.Presenter != nil && r.Presenter.ID == id {
		return true
	}
	return r.Supervisor(id) != nil || r.Participant(id) != nil
}
