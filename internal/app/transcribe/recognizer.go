// Package transcribe keeps a speaker's transcript continuous across forced
// restarts of the upstream recognition stream and cuts it into paragraphs.
package transcribe

//go:generate mockgen -source=recognizer.go -destination=mocks_test.go -package=transcribe

import (
	"context"
	"errors"
	"time"
)

// ErrStreamLimit marks the upstream error class that is recovered by
// restarting the stream.
var ErrStreamLimit = errors.New("upstream stream limit exceeded")

var ErrFeedClosed = errors.New("feed closed")

type StreamConfig struct {
	SampleRate int
	Language   string
}

// Result is one recognition result. EndTime is measured in the audio time of
// the stream that produced it.
type Result struct {
	Text    string
	IsFinal bool
	EndTime time.Duration
}

// Stream is one upstream recognition session.
// Results is closed when the session ends; Err then reports why.
type Stream interface {
	Send(chunk []byte) error
	Results() <-chan Result
	Err() error
	Close() error
}

type Recognizer interface {
	Open(ctx context.Context, cfg StreamConfig) (Stream, error)
}

// chunkDuration returns the play time of PCM16 mono audio.
func chunkDuration(n, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(2*sampleRate)
}
