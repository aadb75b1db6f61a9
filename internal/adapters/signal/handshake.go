package signal

import (
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/rs/zerolog/log"
)

const reasonRateLimited domain.RejectReason = "rate-limited"

func (ctl *SignalWSController) handleConnect(
	c *WsSignalConn,
	role domain.Role,
	data []byte,
) {
	if ctl.Limiter != nil && !ctl.Limiter.Allow(c.sid) {
		log.Warn().Str("module", "signal").Str("sid", string(c.sid)).Msg("connect rate limited")
		ctl.reject(c, reasonRateLimited)
		return
	}
	var p struct {
		RoomID domain.RoomID `json:"roomId" binding:"required"`
	}
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad connect payload")
		ctl.reject(c, domain.ReasonBadRequest)
		return
	}

	if err := ctl.Orch.Connect(c.id, p.RoomID, role); err != nil {
		ctl.reject(c, domain.ReasonOf(err))
		return
	}
	log.Info().Str("module", "signal").Str("conn", string(c.id)).Str("room", string(p.RoomID)).Str("role", string(role)).Msg("connect")
}

func (ctl *SignalWSController) handleReady(c *WsSignalConn, data []byte) {
	var p struct {
		UserID       domain.UserID `json:"userId" binding:"required"`
		Name         string        `json:"displayName"`
		SupervisorID domain.UserID `json:"supervisorId"`
		Priority     int           `json:"priority"`
		Capacity     int           `json:"capacity"`
	}
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad ready payload")
		ctl.reject(c, domain.ReasonBadRequest)
		return
	}
	name := p.Name
	if name == "" {
		name = string(p.UserID)
	}

	err := ctl.Orch.Ready(core.ReadyRequest{
		Conn:         c.id,
		UserID:       p.UserID,
		Name:         name,
		SupervisorID: p.SupervisorID,
		Priority:     p.Priority,
		Capacity:     p.Capacity,
	})
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("ready rejected")
		ctl.reject(c, domain.ReasonOf(err))
	}
}
