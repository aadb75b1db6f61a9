package transcribe

import (
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Moderator/internal/domain"
)

// Segmenter groups finalized results into paragraphs. A paragraph closes when
// another speaker starts or when nothing was finalized for the silence window.
//
// The segmenter is not safe for concurrent use. Timer firings are handed to
// post so that they run on the owner's goroutine.
type Segmenter struct {
	clock   clock.Clock
	silence time.Duration
	post    func(func())
	onClose func(Paragraph)

	cur       *Paragraph
	parts     []string
	lastEpoch int64
	timer     *clock.Timer
	gen       uint64
}

func NewSegmenter(clk clock.Clock, silence time.Duration, post func(func()), onClose func(Paragraph)) *Segmenter {
	return &Segmenter{clock: clk, silence: silence, post: post, onClose: onClose}
}

// LastSpeaker returns the speaker of the open paragraph, if any.
func (s *Segmenter) LastSpeaker() domain.UserID {
	if s.cur == nil {
		return ""
	}
	return s.cur.Speaker
}

// Add appends a finalized result and returns the epoch of the paragraph it
// landed in.
func (s *Segmenter) Add(speaker domain.UserID, text string) int64 {
	if s.cur != nil && s.cur.Speaker != speaker {
		s.Flush()
	}
	if s.cur == nil {
		epoch := s.clock.Now().UnixMilli()
		if epoch <= s.lastEpoch {
			epoch = s.lastEpoch + 1
		}
		s.lastEpoch = epoch
		s.cur = &Paragraph{Speaker: speaker, Epoch: epoch}
		s.parts = s.parts[:0]
	}
	s.parts = append(s.parts, strings.TrimSpace(text))
	s.arm()
	return s.cur.Epoch
}

// Flush closes the open paragraph, if any.
func (s *Segmenter) Flush() {
	s.disarm()
	if s.cur == nil {
		return
	}
	p := *s.cur
	p.Text = strings.Join(s.parts, " ")
	s.cur = nil
	s.parts = s.parts[:0]
	if s.onClose != nil {
		s.onClose(p)
	}
}

// Stop cancels the silence timer and discards the open paragraph.
func (s *Segmenter) Stop() {
	s.disarm()
	s.cur = nil
}

func (s *Segmenter) arm() {
	s.disarm()
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.silence, func() {
		s.post(func() {
			if gen == s.gen {
				s.Flush()
			}
		})
	})
}

func (s *Segmenter) disarm() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
