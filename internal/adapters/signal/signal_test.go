package signal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Moderator/internal/app"
	"github.com/dkeye/Moderator/internal/app/orch"
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
)

func newServer(t *testing.T) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	o := &orch.Orchestrator{
		Registry:   app.NewRegistry(),
		Privileges: app.NewPrivilegeStore(nil),
		Policy:     app.SimplePolicy{},
	}
	o.Rooms = app.NewRoomManager(context.Background(), core.DefaultRoomConfig(), core.RoomDeps{OnBackpressure: o.OnBackPressure})

	ctl := NewSignalWSController(o, NewRateLimiter(nil, 3, time.Minute), Options{})
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", c.Query("sid"))
		ctl.HandleSignal(context.Background(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		o.Rooms.Shutdown()
	})
	return srv, o
}

func dial(t *testing.T, srv *httptest.Server, sid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?sid=" + sid
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	if err := ws.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// expect reads until an event of type typ arrives.
func expect(t *testing.T, ws *websocket.Conn, typ string) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var m map[string]any
		if err := ws.ReadJSON(&m); err != nil {
			t.Fatalf("waiting for %q: %v", typ, err)
		}
		if m["type"] == typ {
			return m
		}
	}
}

func TestSignal_RejectsUnknownRoom(t *testing.T) {
	srv, _ := newServer(t)
	ws := dial(t, srv, "s1")

	send(t, ws, map[string]any{"type": "participant-connect", "roomId": "missing"})
	got := expect(t, ws, "rejected")
	if got["reason"] != string(domain.ReasonRoomNotFound) {
		t.Errorf("reason = %v, want room-not-found", got["reason"])
	}
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Errorf("channel still open after rejection")
	}
}

func TestSignal_HandshakeAndAssignment(t *testing.T) {
	srv, o := newServer(t)
	info, err := o.CreateRoom("host", "Biology", "secret")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	pres := dial(t, srv, "host")
	send(t, pres, map[string]any{"type": "presenter-connect", "roomId": info.ID})
	expect(t, pres, "get-ready")
	send(t, pres, map[string]any{"type": "presenter-ready", "roomId": info.ID, "userId": "pres", "displayName": "Presenter"})
	expect(t, pres, "new-assignment")

	part := dial(t, srv, "anon")
	send(t, part, map[string]any{"type": "participant-connect", "roomId": info.ID})
	snap := expect(t, part, "get-ready")
	if snap["presenter"] == nil {
		t.Errorf("snapshot without presenter: %v", snap)
	}
	send(t, part, map[string]any{"type": "participant-ready", "roomId": info.ID, "userId": "p1", "displayName": "Ann"})
	as := expect(t, part, "assign-supervisor")
	if as["supervisorId"] != "pres" {
		t.Errorf("assigned to %v, want pres", as["supervisorId"])
	}

	joined := expect(t, pres, "member-joined")
	if joined["userId"] != "p1" {
		t.Errorf("member-joined = %v", joined)
	}

	send(t, part, map[string]any{"type": "ping"})
	expect(t, part, "pong")
}

func TestSignal_ConnectRateLimited(t *testing.T) {
	srv, _ := newServer(t)
	for i := 0; i < 3; i++ {
		ws := dial(t, srv, "flood")
		send(t, ws, map[string]any{"type": "participant-connect", "roomId": "missing"})
		if got := expect(t, ws, "rejected")["reason"]; got != string(domain.ReasonRoomNotFound) {
			t.Fatalf("attempt %d: %v", i+1, got)
		}
	}
	ws := dial(t, srv, "flood")
	send(t, ws, map[string]any{"type": "participant-connect", "roomId": "missing"})
	if got := expect(t, ws, "rejected")["reason"]; got != string(reasonRateLimited) {
		t.Errorf("4th attempt reason = %v, want rate-limited", got)
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	clk := clock.NewMock()
	rl := NewRateLimiter(clk, 2, time.Minute)
	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two attempts denied")
	}
	if rl.Allow("a") {
		t.Errorf("third attempt allowed")
	}
	if !rl.Allow("b") {
		t.Errorf("limit shared across sessions")
	}
	clk.Add(time.Minute + time.Second)
	if !rl.Allow("a") {
		t.Errorf("attempt after window denied")
	}
}

func TestRateLimiter_ForgetsIdleSessions(t *testing.T) {
	clk := clock.NewMock()
	rl := NewRateLimiter(clk, 2, time.Minute)
	for _, sid := range []core.SessionID{"a", "b", "c"} {
		rl.Allow(sid)
	}
	if n := rl.sessions(); n != 3 {
		t.Fatalf("sessions = %d, want 3", n)
	}

	clk.Add(2 * time.Minute)
	rl.Allow("d")
	if n := rl.sessions(); n != 1 {
		t.Errorf("sessions after window = %d, want 1", n)
	}
}

func TestCheckSDP(t *testing.T) {
	valid := "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n"
	if err := checkSDP(webrtc.SDPTypeOffer, valid); err != nil {
		t.Errorf("valid sdp: %v", err)
	}
	if err := checkSDP(webrtc.SDPTypeOffer, "not an sdp"); err == nil {
		t.Errorf("garbage accepted")
	}
}
