package signal

import (
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handlePing(c *WsSignalConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.sendJSON(c, resp)
}

func (ctl *SignalWSController) handleAttention(c *WsSignalConn, data []byte) {
	var p struct {
		UserID    domain.UserID `json:"userId"`
		Timestamp int64         `json:"timestamp" binding:"required"`
		Level     int           `json:"level"`
	}
	if err := decode(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	level, err := domain.ParseAttentionLevel(p.Level)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	err = ctl.Orch.Attention(c.id, core.AttentionSample{UserID: p.UserID, Timestamp: p.Timestamp, Level: level})
	if err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *SignalWSController) handleAssignmentAck(c *WsSignalConn, data []byte) {
	var p struct {
		Epoch domain.Epoch `json:"epoch" binding:"required"`
	}
	if err := decode(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := ctl.Orch.AssignmentAck(c.id, p.Epoch); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *SignalWSController) handleScreenshare(c *WsSignalConn, data []byte, active bool) {
	var p struct {
		ScreenID string `json:"screenId" binding:"required"`
	}
	if err := decode(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := ctl.Orch.Screenshare(c.id, p.ScreenID, active); err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(c.id)).Bool("active", active).Msg("screenshare")
}

func (ctl *SignalWSController) handleChat(c *WsSignalConn, data []byte) {
	var p struct {
		Text string `json:"text" binding:"required"`
	}
	if err := decode(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := ctl.Orch.Chat(c.id, p.Text); err != nil {
		ctl.sendError(c, err.Error())
	}
}
