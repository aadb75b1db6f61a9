// Package signal is the websocket transport of the control channel.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Moderator/internal/app/orch"
	"github.com/dkeye/Moderator/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *RateLimiter
	Opts    Options
}

func NewSignalWSController(o *orch.Orchestrator, limiter *RateLimiter, opts Options) *SignalWSController {
	return &SignalWSController{Orch: o, Limiter: limiter, Opts: opts.withDefaults()}
}

// WsSignalConn queues frames for the write pump. Close only stops the queue;
// the write pump flushes what is left and closes the socket.
type WsSignalConn struct {
	id   core.ConnID
	sid  core.SessionID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		id:   core.ConnID(uuid.NewString()),
		sid:  sid,
		conn: ws,
		send: make(chan core.Frame, ctl.Opts.SendBuffer),
	}
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(conn.id, sid, conn, cancel)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("conn", string(conn.id)).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
