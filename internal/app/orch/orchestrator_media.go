package orch

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/Moderator/internal/app/transcribe"
	"github.com/dkeye/Moderator/internal/core"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrTranscriptionDisabled = errors.New("transcription disabled")
	ErrHistoryDisabled       = errors.New("paragraph archive disabled")
)

type activeFeed struct {
	feed    *transcribe.Feed
	room    core.RoomService
	speaker domain.UserID
}

// StartAudio opens a transcription feed for a ready member. A feed already
// running on the channel is replaced.
func (o *Orchestrator) StartAudio(ctx context.Context, conn core.ConnID) error {
	if o.Recognizer == nil {
		return ErrTranscriptionDisabled
	}
	room, err := o.roomOf(conn)
	if err != nil {
		return err
	}
	speaker, err := room.Speaker(conn)
	if err != nil {
		return normalize(err)
	}
	o.EndAudio(conn)

	logger := log.With().Str("module", "transcribe").Str("room", string(room.ID())).Str("conn", string(conn)).Str("user", string(speaker)).Logger()
	var feed *transcribe.Feed
	feed = transcribe.NewFeed(o.Feed, o.Clock, o.Recognizer, transcribe.FeedHandlers{
		OnFinal: func(text string, offset time.Duration) {
			logger.Debug().Dur("offset", offset).Msg("final result")
			room.Transcript(speaker, text)
		},
		OnError: func(err error) {
			room.TranscriptionFailed(conn, err)
			o.forgetFeed(conn, feed)
		},
		OnRestart: func(cause string) {
			o.Metrics.StreamRestarted(cause)
		},
	}, logger)

	o.mu.Lock()
	if o.feeds == nil {
		o.feeds = make(map[core.ConnID]*activeFeed)
	}
	o.feeds[conn] = &activeFeed{feed: feed, room: room, speaker: speaker}
	o.mu.Unlock()

	feed.Start(ctx)
	logger.Info().Msg("audio stream started")
	return nil
}

func (o *Orchestrator) AudioChunk(conn core.ConnID, data []byte) error {
	o.mu.Lock()
	af := o.feeds[conn]
	o.mu.Unlock()
	if af == nil {
		return transcribe.ErrFeedClosed
	}
	return af.feed.Write(data)
}

// EndAudio stops the channel's feed, if any, and waits for it. The
// speaker's open paragraph is closed once the last results are in.
func (o *Orchestrator) EndAudio(conn core.ConnID) {
	o.mu.Lock()
	af := o.feeds[conn]
	delete(o.feeds, conn)
	o.mu.Unlock()
	if af == nil {
		return
	}
	af.feed.Close()
	af.room.SpeakerEnded(af.speaker)
	log.Info().Str("module", "transcribe").Str("conn", string(conn)).Msg("audio stream ended")
}

func (o *Orchestrator) forgetFeed(conn core.ConnID, feed *transcribe.Feed) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if af := o.feeds[conn]; af != nil && af.feed == feed {
		delete(o.feeds, conn)
	}
}

// Paragraphs returns a room's archived paragraphs to a privileged session.
func (o *Orchestrator) Paragraphs(ctx context.Context, sid core.SessionID, room domain.RoomID) ([]transcribe.Entry, error) {
	if !o.Privileges.IsPrivileged(sid, room) {
		return nil, domain.ErrNotAuthorized
	}
	if o.History == nil {
		return nil, ErrHistoryDisabled
	}
	return o.History.History(ctx, room)
}
