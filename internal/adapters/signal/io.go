package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Moderator/internal/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ping := time.NewTicker(ctl.Opts.PingPeriod)
	defer func() {
		ping.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		cancel()
		ctl.Orch.Disconnect(c.id)
		c.Close()
	}()

	pongWait := ctl.Opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if kind == websocket.BinaryMessage {
			ctl.handleAudioChunk(c, data)
			continue
		}
		ctl.handleSignal(ctx, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, c *WsSignalConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "presenter-connect":
		ctl.handleConnect(c, domain.RolePresenter, data)
	case "supervisor-connect":
		ctl.handleConnect(c, domain.RoleSupervisor, data)
	case "participant-connect":
		ctl.handleConnect(c, domain.RoleParticipant, data)
	case "presenter-ready", "supervisor-ready", "participant-ready":
		ctl.handleReady(c, data)
	case "attention-sample":
		ctl.handleAttention(c, data)
	case "assignment-ack":
		ctl.handleAssignmentAck(c, data)
	case "connect-request":
		ctl.handleConnectRequest(c, data)
	case "connect-answer":
		ctl.handleConnectAnswer(c, data)
	case "candidate":
		ctl.handleCandidate(c, data)
	case "screenshare-started":
		ctl.handleScreenshare(c, data, true)
	case "screenshare-stopped":
		ctl.handleScreenshare(c, data, false)
	case "chat-message":
		ctl.handleChat(c, data)
	case "start-audio-stream":
		ctl.handleStartAudio(ctx, c)
	case "end-audio-stream":
		ctl.Orch.EndAudio(c.id)
	case "ping":
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

// decode unmarshals an event and validates its binding tags.
func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	return binding.Validator.ValidateStruct(v)
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("sendJSON dropped")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, msg string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": msg,
	})
}

// reject tells the client why its handshake failed and ends the channel.
func (ctl *SignalWSController) reject(c *WsSignalConn, reason domain.RejectReason) {
	ctl.sendJSON(c, struct {
		Type   string              `json:"type"`
		Reason domain.RejectReason `json:"reason"`
	}{"rejected", reason})
	c.Close()
}
