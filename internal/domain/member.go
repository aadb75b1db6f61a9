package domain

import "math"

type Role string

const (
	RolePresenter   Role = "presenter"
	RoleSupervisor  Role = "supervisor"
	RoleParticipant Role = "participant"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RolePresenter, RoleSupervisor, RoleParticipant:
		return r, nil
	}
	return "", ErrInvalidRole
}

const (
	// Unbounded capacity is used for the presenter acting as a supervisor.
	Unbounded = -1
	// LowestPriority puts a supervisor behind every dedicated one.
	LowestPriority = math.MaxInt
)

// SupervisorInfo holds the fields only supervisors carry.
type SupervisorInfo struct {
	Priority int
	Capacity int
}

// Accepts reports whether a supervisor already holding n observees can take one more.
func (s *SupervisorInfo) Accepts(n int) bool {
	return s.Capacity == Unbounded || n < s.Capacity
}

// ParticipantInfo holds the fields only participants carry.
// AssignedSupervisor is mutated only by the assignment engine.
type ParticipantInfo struct {
	AssignedSupervisor UserID
	Attention          AttentionSummary
}

// Member is one connected endpoint of a room. Exactly one of the role
// sub-structures is set for supervisors and participants; presenters carry none.
type Member struct {
	ID          UserID
	Name        string
	Role        Role
	Supervisor  *SupervisorInfo
	Participant *ParticipantInfo
}

func NewPresenter(id UserID, name string) *Member {
	return &Member{ID: id, Name: name, Role: RolePresenter}
}

func NewSupervisor(id UserID, name string, priority, capacity int) (*Member, error) {
	if priority < 1 {
		return nil, ErrInvalidPriority
	}
	if capacity < 0 && capacity != Unbounded {
		return nil, ErrInvalidCapacity
	}
	return &Member{
		ID:         id,
		Name:       name,
		Role:       RoleSupervisor,
		Supervisor: &SupervisorInfo{Priority: priority, Capacity: capacity},
	}, nil
}

func NewParticipant(id UserID, name string) *Member {
	return &Member{
		ID:          id,
		Name:        name,
		Role:        RoleParticipant,
		Participant: &ParticipantInfo{},
	}
}
