// Package transcriber adapts Amazon Transcribe Streaming to the recognizer
// used by transcription feeds.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming/types"
	"github.com/dkeye/Moderator/internal/app/transcribe"
	"github.com/rs/zerolog/log"
)

type AWSRecognizer struct {
	client *transcribestreaming.Client
}

func NewAWSRecognizer(cfg aws.Config) *AWSRecognizer {
	return &AWSRecognizer{client: transcribestreaming.NewFromConfig(cfg)}
}

// LoadAWSRecognizer builds a recognizer from the default credential chain.
func LoadAWSRecognizer(ctx context.Context, region string) (*AWSRecognizer, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewAWSRecognizer(cfg), nil
}

func (r *AWSRecognizer) Open(ctx context.Context, sc transcribe.StreamConfig) (transcribe.Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	resp, err := r.client.StartStreamTranscription(streamCtx, &transcribestreaming.StartStreamTranscriptionInput{
		LanguageCode:         types.LanguageCode(sc.Language),
		MediaEncoding:        types.MediaEncodingPcm,
		MediaSampleRateHertz: aws.Int32(int32(sc.SampleRate)),
	})
	if err != nil {
		cancel()
		return nil, mapErr(err)
	}
	log.Debug().Str("module", "transcriber").Str("session", aws.ToString(resp.SessionId)).Msg("upstream stream started")

	s := &awsStream{
		ctx:     streamCtx,
		cancel:  cancel,
		es:      resp.GetStream(),
		results: make(chan transcribe.Result, 32),
	}
	go s.receive()
	return s, nil
}

type awsStream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	es      *transcribestreaming.StartStreamTranscriptionEventStream
	results chan transcribe.Result

	once sync.Once
	err  error // set before results is closed
}

func (s *awsStream) Send(b []byte) error {
	return s.es.Send(s.ctx, &types.AudioStreamMemberAudioEvent{
		Value: types.AudioEvent{AudioChunk: b},
	})
}

func (s *awsStream) Results() <-chan transcribe.Result { return s.results }

func (s *awsStream) Err() error { return s.err }

func (s *awsStream) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.es.Close()
	})
	return err
}

func (s *awsStream) receive() {
	defer close(s.results)
	for ev := range s.es.Events() {
		te, ok := ev.(*types.TranscriptResultStreamMemberTranscriptEvent)
		if !ok || te.Value.Transcript == nil {
			continue
		}
		for _, res := range te.Value.Transcript.Results {
			out, ok := toResult(res)
			if !ok {
				continue
			}
			select {
			case s.results <- out:
			case <-s.ctx.Done():
				return
			}
		}
	}
	if s.ctx.Err() == nil {
		s.err = mapErr(s.es.Err())
	}
}

func toResult(res types.Result) (transcribe.Result, bool) {
	if len(res.Alternatives) == 0 {
		return transcribe.Result{}, false
	}
	text := aws.ToString(res.Alternatives[0].Transcript)
	if text == "" {
		return transcribe.Result{}, false
	}
	return transcribe.Result{
		Text:    text,
		IsFinal: !res.IsPartial,
		EndTime: time.Duration(res.EndTime * float64(time.Second)),
	}, true
}

// mapErr marks the upstream duration limit as recoverable.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var lim *types.LimitExceededException
	if errors.As(err, &lim) {
		return fmt.Errorf("%w: %s", transcribe.ErrStreamLimit, lim.ErrorMessage())
	}
	return err
}
