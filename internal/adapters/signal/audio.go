package signal

import (
	"context"

	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleStartAudio(ctx context.Context, c *WsSignalConn) {
	if err := ctl.Orch.StartAudio(ctx, c.id); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("start audio")
		ctl.sendJSON(c, map[string]any{
			"type":    "transcription-error",
			"message": err.Error(),
		})
	}
}

// handleAudioChunk forwards one binary PCM frame to the channel's feed.
func (ctl *SignalWSController) handleAudioChunk(c *WsSignalConn, data []byte) {
	if err := ctl.Orch.AudioChunk(c.id, data); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("audio chunk dropped")
	}
}
