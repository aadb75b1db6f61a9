package signal

import (
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// checkSDP rejects descriptions that do not parse. The coordinator relays
// them and never negotiates itself.
func checkSDP(kind webrtc.SDPType, raw string) error {
	sd := webrtc.SessionDescription{Type: kind, SDP: raw}
	_, err := sd.Unmarshal()
	return err
}

func (ctl *SignalWSController) handleConnectRequest(c *WsSignalConn, data []byte) {
	var p struct {
		SupervisorID domain.UserID `json:"supervisorId" binding:"required"`
		Epoch        domain.Epoch  `json:"epoch"`
		SDP          string        `json:"sdp" binding:"required"`
	}
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad connect-request payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := checkSDP(webrtc.SDPTypeOffer, p.SDP); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("malformed offer")
		ctl.sendError(c, "bad_sdp")
		return
	}
	err := ctl.Orch.RequestConnect(c.id, core.PeerRequest{Supervisor: p.SupervisorID, Epoch: p.Epoch, SDP: p.SDP})
	if err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *SignalWSController) handleConnectAnswer(c *WsSignalConn, data []byte) {
	var p struct {
		ParticipantID domain.UserID `json:"participantId" binding:"required"`
		SDP           string        `json:"sdp" binding:"required"`
	}
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad connect-answer payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := checkSDP(webrtc.SDPTypeAnswer, p.SDP); err != nil {
		ctl.sendError(c, "bad_sdp")
		return
	}
	if err := ctl.Orch.AnswerConnect(c.id, core.PeerAnswer{Participant: p.ParticipantID, SDP: p.SDP}); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *SignalWSController) handleCandidate(c *WsSignalConn, data []byte) {
	var p struct {
		To domain.UserID `json:"to" binding:"required"`
		webrtc.ICECandidateInit
	}
	if err := decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}
	if err := ctl.Orch.Candidate(c.id, core.PeerCandidate{To: p.To, Candidate: p.ICECandidateInit}); err != nil {
		ctl.sendError(c, err.Error())
	}
}
