package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/dkeye/Moderator/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newManager(t *testing.T, clk clock.Clock) (*RoomManager, *metrics.Metrics) {
	t.Helper()
	met := metrics.New(prometheus.NewRegistry())
	m := NewRoomManager(context.Background(), core.DefaultRoomConfig(), core.RoomDeps{Clock: clk, Metrics: met})
	t.Cleanup(m.Shutdown)
	return m, met
}

func TestRoomManager_CreateLookupDelete(t *testing.T) {
	m, _ := newManager(t, clock.NewMock())

	if _, err := m.Create("", "x"); !errors.Is(err, ErrRoomNameEmpty) {
		t.Errorf("empty name: %v", err)
	}
	if _, err := m.Create(domain.RoomName(strings.Repeat("é", domain.MaxRoomNameLen+1)), "x"); !errors.Is(err, domain.ErrUsernameTooLong) {
		t.Errorf("long name: %v, want ErrUsernameTooLong", err)
	}
	room, err := m.Create("  Biology ", "secret")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info, _ := room.Info(); info.Name != "Biology" {
		t.Errorf("name = %q, want trimmed", info.Name)
	}
	got, err := m.Lookup(room.ID())
	if err != nil || got != room {
		t.Fatalf("Lookup = %v, %v", got, err)
	}
	if list := m.List(); len(list) != 0 {
		t.Errorf("List shows unopened room: %v", list)
	}

	m.Delete(room.ID())
	if _, err := m.Lookup(room.ID()); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("Lookup after delete: %v", err)
	}
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("room loop still running after delete")
	}
}

func TestRoomManager_IDsAreUnique(t *testing.T) {
	m, _ := newManager(t, clock.NewMock())
	a, _ := m.Create("A", "p")
	b, _ := m.Create("A", "p")
	if a.ID() == b.ID() {
		t.Errorf("duplicate room id %q", a.ID())
	}
}

func TestRoomManager_ExpiredRoomLeavesRegistry(t *testing.T) {
	clk := clock.NewMock()
	m, met := newManager(t, clk)
	room, _ := m.Create("Biology", "secret")
	if _, err := room.Info(); err != nil {
		t.Fatalf("Info: %v", err)
	}

	clk.Add(time.Hour)
	select {
	case <-room.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("unopened room not expired")
	}
	if _, err := m.Lookup(room.ID()); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("Lookup after expiry: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(met.Rooms) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("rooms gauge = %v, want 0", testutil.ToFloat64(met.Rooms))
		}
		time.Sleep(time.Millisecond)
	}
}
