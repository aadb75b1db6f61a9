package transcribe

//go:generate mockgen -source=summarizer.go -destination=mock_summarizer_test.go -package=transcribe

import (
	"context"
	"time"

	"github.com/dkeye/Moderator/internal/domain"
	"github.com/rs/zerolog/log"
)

// Paragraph is a contiguous span of finalized text from one speaker.
// Epoch is the start time in milliseconds and identifies the paragraph.
type Paragraph struct {
	Speaker domain.UserID
	Text    string
	Epoch   int64
}

type Summary struct {
	Text       string
	Confidence float64
}

type Summarizer interface {
	Summarize(ctx context.Context, p Paragraph) (Summary, error)
}

// Archive stores closed paragraphs with their summaries.
type Archive interface {
	Store(ctx context.Context, room domain.RoomID, p Paragraph, s Summary) error
}

// Entry is an archived paragraph with its summary.
type Entry struct {
	Speaker    domain.UserID `json:"speaker"`
	Epoch      int64         `json:"paragraphEpoch"`
	Text       string        `json:"text"`
	Summary    string        `json:"summary"`
	Confidence float64       `json:"confidence"`
	StoredAt   time.Time     `json:"storedAt"`
}

// History reads a room's archived paragraphs back in order.
type History interface {
	History(ctx context.Context, room domain.RoomID) ([]Entry, error)
}

// EchoSummarizer returns the paragraph itself with zero confidence.
type EchoSummarizer struct{}

func (EchoSummarizer) Summarize(_ context.Context, p Paragraph) (Summary, error) {
	return Summary{Text: p.Text}, nil
}

// SummarizeOrEcho asks s for a summary and echoes the paragraph on failure.
func SummarizeOrEcho(ctx context.Context, s Summarizer, p Paragraph) Summary {
	if s == nil {
		return Summary{Text: p.Text}
	}
	sum, err := s.Summarize(ctx, p)
	if err != nil {
		log.Warn().Err(err).Str("module", "transcribe").Str("user", string(p.Speaker)).Int64("paragraph", p.Epoch).Msg("summarizer unavailable, echoing paragraph")
		return Summary{Text: p.Text}
	}
	return sum
}
