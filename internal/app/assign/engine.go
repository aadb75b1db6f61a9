// Package assign distributes participants across supervisors and gates
// participant connection attempts by assignment epoch.
package assign

import (
	"slices"

	"github.com/dkeye/Moderator/internal/domain"
)

// Result is the outcome of one recomputation.
type Result struct {
	// Changed lists participants whose supervisor differs from before,
	// including those that lost their assignment.
	Changed []*domain.Member
	// Observees maps each supervisor to its participants, in assignment order.
	Observees map[domain.UserID][]*domain.Member
}

// Assigned returns the participants in Changed that now have a supervisor.
func (r Result) Assigned() []*domain.Member {
	out := make([]*domain.Member, 0, len(r.Changed))
	for _, p := range r.Changed {
		if p.Participant.AssignedSupervisor != "" {
			out = append(out, p)
		}
	}
	return out
}

// Reassign walks supervisors in their given order, each taking up to its
// capacity from the front of participants. Participants left over when every
// supervisor is full end up unassigned. The assignment field of every
// participant is updated in place.
func Reassign(supervisors, participants []*domain.Member) Result {
	res := Result{Observees: make(map[domain.UserID][]*domain.Member, len(supervisors))}

	next := 0
	for _, s := range supervisors {
		taken := res.Observees[s.ID]
		for next < len(participants) && s.Supervisor.Accepts(len(taken)) {
			taken = append(taken, participants[next])
			next++
		}
		res.Observees[s.ID] = taken
	}

	for _, s := range supervisors {
		for _, p := range res.Observees[s.ID] {
			if p.Participant.AssignedSupervisor != s.ID {
				p.Participant.AssignedSupervisor = s.ID
				res.Changed = append(res.Changed, p)
			}
		}
	}
	for _, p := range participants[next:] {
		if p.Participant.AssignedSupervisor != "" {
			p.Participant.AssignedSupervisor = ""
			res.Changed = append(res.Changed, p)
		}
	}
	return res
}

// SortByAttention orders participants by ascending attention average so the
// least attentive are served by the highest priority supervisors. Equal
// averages keep their insertion order.
func SortByAttention(participants []*domain.Member) {
	slices.SortStableFunc(participants, func(a, b *domain.Member) int {
		x, y := a.Participant.Attention.Average, b.Participant.Attention.Average
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	})
}
