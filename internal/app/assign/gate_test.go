package assign

import (
	"fmt"
	"testing"

	"github.com/dkeye/Moderator/internal/domain"
)

func req(from string, epoch domain.Epoch) Request[string] {
	return Request[string]{From: domain.UserID(from), Epoch: epoch, Payload: "sdp-" + from}
}

func TestGate_RejectsMissingEpoch(t *testing.T) {
	g := NewGate[string]()
	if d := g.Admit(req("p1", 0)); d != Reject {
		t.Fatalf("Admit epoch 0 = %v, want stale", d)
	}
	if g.Pending() != 0 {
		t.Fatalf("epoch 0 request must not be held")
	}
}

func TestGate_RoundTrip(t *testing.T) {
	g := NewGate[string]()
	g.Offer(5, []domain.UserID{"p1"})
	if _, _, ok := g.Ack(5); !ok {
		t.Fatal("Ack(5) ignored")
	}

	if d := g.Admit(req("p1", 5)); d != Accept {
		t.Errorf("listed participant: %v, want accepted", d)
	}
	if d := g.Admit(req("p2", 5)); d != Reject {
		t.Errorf("unlisted participant: %v, want stale", d)
	}
}

func TestGate_StaleAfterAdvance(t *testing.T) {
	g := NewGate[string]()
	g.Offer(5, []domain.UserID{"p1"})
	g.Ack(5)
	g.Offer(6, []domain.UserID{"p2"})
	g.Ack(6)

	if d := g.Admit(req("p1", 5)); d != Reject {
		t.Fatalf("epoch 5 after 6: %v, want stale", d)
	}
	if d := g.Admit(req("p1", 6)); d != Reject {
		t.Fatalf("p1 absent from epoch 6: %v, want stale", d)
	}
}

func TestGate_HoldsNewerUntilAck(t *testing.T) {
	g := NewGate[string]()
	g.Offer(5, []domain.UserID{"p1"})
	g.Ack(5)

	if d := g.Admit(req("p2", 7)); d != Hold {
		t.Fatalf("newer epoch: %v, want pending", d)
	}
	if d := g.Admit(req("p3", 8)); d != Hold {
		t.Fatalf("newer epoch: %v, want pending", d)
	}

	g.Offer(7, []domain.UserID{"p2"})
	g.Offer(8, []domain.UserID{"p2", "p3"})

	acc, rej, ok := g.Ack(7)
	if !ok {
		t.Fatal("Ack(7) ignored")
	}
	if len(acc) != 1 || acc[0].From != "p2" || acc[0].Payload != "sdp-p2" {
		t.Fatalf("accepted = %+v, want p2", acc)
	}
	if len(rej) != 0 || g.Pending() != 1 {
		t.Fatalf("rejected = %+v pending = %d, want none and 1", rej, g.Pending())
	}

	acc, _, _ = g.Ack(8)
	if len(acc) != 1 || acc[0].From != "p3" {
		t.Fatalf("accepted = %+v, want p3", acc)
	}
}

func TestGate_HeldRequestGoesStaleWhenEpochSkipped(t *testing.T) {
	g := NewGate[string]()
	g.Admit(req("p1", 3))
	g.Offer(3, []domain.UserID{"p1"})
	g.Offer(4, []domain.UserID{"p2"})

	acc, rej, _ := g.Ack(4)
	if len(acc) != 0 || len(rej) != 1 {
		t.Fatalf("accepted = %d rejected = %d, want 0 and 1", len(acc), len(rej))
	}
	if _, _, ok := g.Ack(3); ok {
		t.Fatal("Ack of superseded epoch must be ignored")
	}
}

func TestGate_Drop(t *testing.T) {
	g := NewGate[string]()
	g.Admit(req("p1", 9))
	g.Admit(req("p2", 9))
	g.Admit(req("p1", 10))

	if n := g.Drop("p1"); n != 1 {
		t.Fatalf("Drop(p1) = %d, want 1", n)
	}
	if g.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", g.Pending())
	}
}

func TestGate_OffersAreBounded(t *testing.T) {
	g := NewGate[string]()
	for e := domain.Epoch(1); e <= maxOffers+8; e++ {
		g.Offer(e, []domain.UserID{"p1"})
	}
	if _, _, ok := g.Ack(1); ok {
		t.Errorf("Ack of evicted offer accepted")
	}
	if _, _, ok := g.Ack(maxOffers + 8); !ok {
		t.Errorf("Ack of newest offer ignored")
	}
}

func TestGate_KeptParticipantUsesEarlierEpoch(t *testing.T) {
	g := NewGate[string]()
	g.Offer(5, []domain.UserID{"p1"})
	g.Ack(5)
	g.Offer(6, []domain.UserID{"p1", "p2"})
	g.Ack(6)

	if d := g.Admit(req("p1", 5)); d != Accept {
		t.Errorf("p1 listed since 5: %v, want accepted", d)
	}
	if d := g.Admit(req("p2", 5)); d != Reject {
		t.Errorf("p2 listed since 6 with epoch 5: %v, want stale", d)
	}
	if d := g.Admit(req("p1", 4)); d != Reject {
		t.Errorf("p1 with epoch before it joined: %v, want stale", d)
	}
}

func TestGate_RejoinRestartsEpoch(t *testing.T) {
	g := NewGate[string]()
	g.Offer(5, []domain.UserID{"p1"})
	g.Offer(6, nil)
	g.Offer(7, []domain.UserID{"p1"})
	g.Ack(7)

	if d := g.Admit(req("p1", 5)); d != Reject {
		t.Errorf("epoch from before p1 left: %v, want stale", d)
	}
	if d := g.Admit(req("p1", 7)); d != Accept {
		t.Errorf("epoch p1 rejoined at: %v, want accepted", d)
	}
}

func TestGate_HeldKeepsLatestPerSender(t *testing.T) {
	g := NewGate[string]()
	for i := 0; i < 10; i++ {
		g.Admit(Request[string]{From: "p1", Epoch: 100, Payload: fmt.Sprint("sdp-", i)})
	}
	if g.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", g.Pending())
	}

	g.Offer(100, []domain.UserID{"p1"})
	acc, _, _ := g.Ack(100)
	if len(acc) != 1 || acc[0].Payload != "sdp-9" {
		t.Fatalf("accepted = %+v, want the latest request", acc)
	}
}

func TestGate_HeldAreBounded(t *testing.T) {
	g := NewGate[string]()
	for i := 0; i < maxPending+10; i++ {
		g.Admit(req(fmt.Sprint("p", i), 100))
	}
	if g.Pending() != maxPending {
		t.Fatalf("pending = %d, want %d", g.Pending(), maxPending)
	}
	if n := g.Drop("p0"); n != 0 {
		t.Errorf("oldest request still held")
	}
	if n := g.Drop(domain.UserID(fmt.Sprint("p", maxPending+9))); n != 1 {
		t.Errorf("newest request not held")
	}
}
