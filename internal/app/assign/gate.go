package assign

import "github.com/dkeye/Moderator/internal/domain"

type Decision int

const (
	Reject Decision = iota
	Accept
	Hold
)

func (d Decision) String() string {
	switch d {
	case Accept:
		return "accepted"
	case Hold:
		return "pending"
	default:
		return "stale"
	}
}

// Request is a participant's connection attempt stamped with the epoch it
// was told to connect under.
type Request[T any] struct {
	From    domain.UserID
	Epoch   domain.Epoch
	Payload T
}

// maxOffers bounds the unacknowledged offers kept for a supervisor that
// never acks. The oldest are dropped first.
const maxOffers = 32

// maxPending bounds the held requests across all senders. Each sender keeps
// at most one, its latest.
const maxPending = 64

// members maps a participant to the epoch since which it has been in the
// supervisor's set without interruption.
type members map[domain.UserID]domain.Epoch

type offer struct {
	epoch   domain.Epoch
	members members
}

// Gate tracks the assignment epoch one supervisor has acknowledged and admits
// connection attempts against it. A participant may connect with any epoch
// at or after the one it joined the acknowledged set in; requests from a
// newer epoch wait until that epoch is acknowledged. Not safe for concurrent
// use.
type Gate[T any] struct {
	known   domain.Epoch
	members members
	// latest is the most recently offered set, acknowledged or not.
	latest  members
	offers  []offer
	pending []Request[T]
}

func NewGate[T any]() *Gate[T] {
	return &Gate[T]{members: members{}, latest: members{}}
}

// Epoch returns the last acknowledged epoch, zero before the first one.
func (g *Gate[T]) Epoch() domain.Epoch { return g.known }

// Pending returns the number of held requests.
func (g *Gate[T]) Pending() int { return len(g.pending) }

// Offer records the assignment set sent to the supervisor for epoch. It only
// takes effect once acknowledged. Participants already in the previous offer
// keep the epoch they joined at.
func (g *Gate[T]) Offer(epoch domain.Epoch, ids []domain.UserID) {
	set := make(members, len(ids))
	for _, id := range ids {
		since, ok := g.latest[id]
		if !ok {
			since = epoch
		}
		set[id] = since
	}
	g.latest = set
	g.offers = append(g.offers, offer{epoch: epoch, members: set})
	if n := len(g.offers) - maxOffers; n > 0 {
		clear(g.offers[:n])
		g.offers = g.offers[n:]
	}
}

// Ack advances the gate to an offered epoch and resolves held requests that
// are no longer newer than it. Acks for unknown or superseded epochs are
// ignored and reported with ok false.
func (g *Gate[T]) Ack(epoch domain.Epoch) (accepted, rejected []Request[T], ok bool) {
	if epoch <= g.known {
		return nil, nil, false
	}
	i := -1
	for j, o := range g.offers {
		if o.epoch == epoch {
			i = j
			break
		}
	}
	if i < 0 {
		return nil, nil, false
	}
	g.known = epoch
	g.members = g.offers[i].members
	g.offers = g.offers[i+1:]

	kept := g.pending[:0]
	for _, req := range g.pending {
		switch g.decide(req) {
		case Accept:
			accepted = append(accepted, req)
		case Reject:
			rejected = append(rejected, req)
		default:
			kept = append(kept, req)
		}
	}
	clear(g.pending[len(kept):])
	g.pending = kept
	return accepted, rejected, true
}

// Admit decides on a connection attempt. Held requests are kept by the gate
// and come back from a later Ack. A newly held request replaces any earlier
// one from the same sender.
func (g *Gate[T]) Admit(req Request[T]) Decision {
	d := g.decide(req)
	if d == Hold {
		g.Drop(req.From)
		g.pending = append(g.pending, req)
		if n := len(g.pending) - maxPending; n > 0 {
			clear(g.pending[:n])
			g.pending = g.pending[n:]
		}
	}
	return d
}

func (g *Gate[T]) decide(req Request[T]) Decision {
	switch {
	case req.Epoch == 0:
		return Reject
	case req.Epoch > g.known:
		return Hold
	}
	if since, ok := g.members[req.From]; ok && req.Epoch >= since {
		return Accept
	}
	return Reject
}

// Drop discards held requests from a participant.
func (g *Gate[T]) Drop(from domain.UserID) int {
	kept := g.pending[:0]
	for _, req := range g.pending {
		if req.From != from {
			kept = append(kept, req)
		}
	}
	n := len(g.pending) - len(kept)
	clear(g.pending[len(kept):])
	g.pending = kept
	return n
}
