package transcribe

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

type FeedConfig struct {
	StreamingLimit time.Duration
	SampleRate     int
	Language       string
}

// FeedHandlers receive the output of a feed. They are called from the feed's
// goroutine and must not block.
type FeedHandlers struct {
	// OnFinal gets every finalized result with its offset from the start of
	// the feed.
	OnFinal func(text string, offset time.Duration)
	// OnError gets the upstream failure that ended the feed.
	OnError func(err error)
	// OnRestart is told why the upstream stream was rotated.
	OnRestart func(cause string)
}

type chunk struct {
	data []byte
	end  time.Duration // in the audio time of the stream it was sent to
}

// Feed streams one speaker's audio to the recognizer and rotates the upstream
// stream before it hits its duration limit. Audio that the previous stream
// had not finalized is sent again at the start of the next one.
type Feed struct {
	cfg      FeedConfig
	clock    clock.Clock
	rec      Recognizer
	handlers FeedHandlers
	log      zerolog.Logger

	audio  chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Owned by run.
	stream              Stream
	results             <-chan Result
	timer               *clock.Timer
	restartCounter      int
	bufferedChunks      []chunk
	previousCycleChunks []chunk
	bridgingOffset      time.Duration
	finalRequestEndTime time.Duration
	lastFinalResultEnd  time.Duration
	cycleAudio          time.Duration
	cycleBase           time.Duration
}

func NewFeed(cfg FeedConfig, clk clock.Clock, rec Recognizer, h FeedHandlers, logger zerolog.Logger) *Feed {
	if clk == nil {
		clk = clock.New()
	}
	return &Feed{
		cfg:      cfg,
		clock:    clk,
		rec:      rec,
		handlers: h,
		log:      logger,
		audio:    make(chan []byte, 64),
		done:     make(chan struct{}),
	}
}

// Start opens the first upstream stream in the background.
func (f *Feed) Start(ctx context.Context) {
	f.ctx, f.cancel = context.WithCancel(ctx)
	go f.run()
}

// Write queues a chunk of PCM16 mono audio.
func (f *Feed) Write(data []byte) error {
	select {
	case <-f.done:
		return ErrFeedClosed
	default:
	}
	select {
	case f.audio <- data:
		return nil
	case <-f.done:
		return ErrFeedClosed
	}
}

// Close stops the feed and waits for its goroutine.
func (f *Feed) Close() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}

// Done is closed when the feed has stopped.
func (f *Feed) Done() <-chan struct{} { return f.done }

func (f *Feed) run() {
	defer close(f.done)
	defer func() {
		if f.timer != nil {
			f.timer.Stop()
		}
		if f.stream != nil {
			_ = f.stream.Close()
		}
	}()

	if err := f.open(); err != nil {
		f.fail(err)
		return
	}
	f.timer = f.clock.Timer(f.cfg.StreamingLimit)

	for {
		select {
		case <-f.ctx.Done():
			f.log.Debug().Int("restarts", f.restartCounter).Msg("feed stopped")
			return

		case data := <-f.audio:
			f.cycleAudio += chunkDuration(len(data), f.cfg.SampleRate)
			f.bufferedChunks = append(f.bufferedChunks, chunk{data: data, end: f.cycleAudio})
			if err := f.stream.Send(data); err != nil {
				// The results channel closes next and carries the cause.
				f.log.Debug().Err(err).Msg("send to upstream failed")
			}

		case res, ok := <-f.results:
			if !ok {
				err := f.stream.Err()
				switch {
				case err == nil:
					err = f.restart("eof")
				case errors.Is(err, ErrStreamLimit):
					err = f.restart("limit-error")
				}
				if err != nil {
					f.fail(err)
					return
				}
				continue
			}
			if !res.IsFinal {
				continue
			}
			f.lastFinalResultEnd = res.EndTime
			if f.handlers.OnFinal != nil {
				f.handlers.OnFinal(res.Text, f.cycleBase+res.EndTime-f.bridgingOffset)
			}

		case <-f.timer.C:
			if err := f.restart("timer"); err != nil {
				f.fail(err)
				return
			}
		}
	}
}

func (f *Feed) open() error {
	s, err := f.rec.Open(f.ctx, StreamConfig{SampleRate: f.cfg.SampleRate, Language: f.cfg.Language})
	if err != nil {
		return err
	}
	f.stream = s
	f.results = s.Results()
	return nil
}

// restart rotates the upstream stream. Chunks of the ending cycle that end
// after the last finalized result are sent again first; they are not
// buffered, so a later restart never sends them a second time.
func (f *Feed) restart(cause string) error {
	_ = f.stream.Close()
	f.stream = nil

	f.restartCounter++
	f.finalRequestEndTime = f.lastFinalResultEnd
	f.cycleBase += f.cycleAudio - f.bridgingOffset
	f.previousCycleChunks = f.bufferedChunks
	f.bufferedChunks = nil

	var resend []chunk
	for i, c := range f.previousCycleChunks {
		if c.end > f.finalRequestEndTime {
			resend = f.previousCycleChunks[i:]
			break
		}
	}

	if err := f.open(); err != nil {
		return err
	}
	f.timer.Reset(f.cfg.StreamingLimit)

	f.bridgingOffset = 0
	for _, c := range resend {
		f.bridgingOffset += chunkDuration(len(c.data), f.cfg.SampleRate)
		if err := f.stream.Send(c.data); err != nil {
			f.log.Debug().Err(err).Msg("resend to upstream failed")
		}
	}
	f.cycleAudio = f.bridgingOffset
	f.lastFinalResultEnd = 0

	f.log.Info().
		Str("cause", cause).
		Int("restarts", f.restartCounter).
		Int("resent_chunks", len(resend)).
		Dur("bridging_offset", f.bridgingOffset).
		Msg("upstream stream restarted")
	if f.handlers.OnRestart != nil {
		f.handlers.OnRestart(cause)
	}
	return nil
}

func (f *Feed) fail(err error) {
	f.log.Error().Err(err).Int("restarts", f.restartCounter).Msg("transcription feed failed")
	if f.handlers.OnError != nil {
		f.handlers.OnError(err)
	}
}
