package app

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestPrivilegeStore_GrantIsIdempotent(t *testing.T) {
	s := NewPrivilegeStore(clock.NewMock())
	if s.IsPrivileged("sid", "r1") {
		t.Fatal("privileged before grant")
	}
	s.Grant("sid", "r1")
	s.Grant("sid", "r1")
	if !s.IsPrivileged("sid", "r1") {
		t.Errorf("not privileged after grant")
	}
	if s.IsPrivileged("sid", "r2") {
		t.Errorf("grant leaked to another room")
	}
	if s.IsPrivileged("other", "r1") {
		t.Errorf("grant leaked to another session")
	}
}

func TestPrivilegeStore_PurgeIdleSessions(t *testing.T) {
	clk := clock.NewMock()
	s := NewPrivilegeStore(clk)
	s.Grant("old", "r1")
	clk.Add(2 * time.Hour)
	s.Grant("fresh", "r1")

	if n := s.Purge(time.Hour); n != 1 {
		t.Fatalf("Purge = %d, want 1", n)
	}
	if s.IsPrivileged("old", "r1") {
		t.Errorf("expired session still privileged")
	}
	if !s.IsPrivileged("fresh", "r1") {
		t.Errorf("active session purged")
	}
}
