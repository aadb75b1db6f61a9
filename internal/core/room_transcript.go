package core

import (
	"context"

	"github.com/dkeye/Moderator/internal/app/transcribe"
	"github.com/dkeye/Moderator/internal/domain"
)

func (r *roomImpl) Speaker(conn ConnID) (domain.UserID, error) {
	var id domain.UserID
	err := r.call(func() error {
		ms, err := r.readyMember(conn)
		if err != nil {
			return err
		}
		id = ms.member.ID
		return nil
	})
	return id, err
}

// Transcript feeds a finalized result into the room's paragraph segmenter
// and publishes it.
func (r *roomImpl) Transcript(speaker domain.UserID, text string) {
	r.post(func() {
		epoch := r.segmenter.Add(speaker, text)
		r.broadcast(transcriptParagraphMsg{
			Type:           "transcript-paragraph",
			Text:           text,
			UserID:         speaker,
			ParagraphEpoch: epoch,
		}, nil)
	})
}

func (r *roomImpl) SpeakerEnded(speaker domain.UserID) {
	r.post(func() {
		if r.segmenter.LastSpeaker() == speaker {
			r.segmenter.Flush()
		}
	})
}

func (r *roomImpl) TranscriptionFailed(conn ConnID, err error) {
	r.post(func() {
		if ms, ok := r.members[conn]; ok {
			r.send(ms, transcriptionErrorMsg{Type: "transcription-error", Message: err.Error()})
		}
	})
}

// paragraphClosed summarizes a closed paragraph off the room goroutine and
// publishes the result back through it.
func (r *roomImpl) paragraphClosed(p transcribe.Paragraph) {
	r.deps.Metrics.ParagraphClosed()
	r.tasks.Go(func() {
		ctx, cancel := context.WithTimeout(r.ctx, r.cfg.SummaryTimeout)
		defer cancel()

		sum := transcribe.SummarizeOrEcho(ctx, r.deps.Summarizer, p)
		if r.deps.Archive != nil {
			if err := r.deps.Archive.Store(ctx, r.room.ID, p, sum); err != nil {
				r.log.Warn().Err(err).Int64("paragraph", p.Epoch).Msg("archive paragraph")
			}
		}
		r.post(func() {
			r.broadcast(transcriptSummaryMsg{
				Type:           "transcript-summary",
				Summary:        sum.Text,
				Confidence:     sum.Confidence,
				UserID:         p.Speaker,
				ParagraphEpoch: p.Epoch,
			}, nil)
		})
	})
}
