package core

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/Moderator/internal/app/transcribe"
	"github.com/dkeye/Moderator/internal/domain"
	"github.com/dkeye/Moderator/internal/metrics"
	"github.com/pion/webrtc/v4"
)

// RoomService is the core-facing API of a room.
// Calls are serialized on the room's own goroutine; once that goroutine has
// stopped they fail with ErrRoomClosed.
type RoomService interface {
	ID() domain.RoomID
	Run()
	Stop()
	Done() <-chan struct{}

	Info() (RoomInfo, error)
	// Authorize checks a supervisor passcode against an open room.
	Authorize(passcode string) error

	Connect(req ConnectRequest) error
	Ready(req ReadyRequest) error
	Disconnect(conn ConnID)

	Attention(conn ConnID, s AttentionSample) error
	AssignmentAck(conn ConnID, epoch domain.Epoch) error
	RequestConnect(conn ConnID, req PeerRequest) error
	AnswerConnect(conn ConnID, ans PeerAnswer) error
	Candidate(conn ConnID, c PeerCandidate) error
	Screenshare(conn ConnID, screenID string, active bool) error
	Chat(conn ConnID, text string) error

	// Speaker returns the user id of a ready member, for transcription.
	Speaker(conn ConnID) (domain.UserID, error)
	Transcript(speaker domain.UserID, text string)
	// SpeakerEnded closes speaker's open paragraph, if it has one.
	SpeakerEnded(speaker domain.UserID)
	TranscriptionFailed(conn ConnID, err error)
}

type ConnectRequest struct {
	Conn   ConnID
	SID    SessionID
	Role   domain.Role
	Signal SignalConnection
}

type ReadyRequest struct {
	Conn   ConnID
	UserID domain.UserID
	Name   string
	// SupervisorID is the presenter's identity as a supervisor. Defaults to UserID.
	SupervisorID domain.UserID
	Priority     int
	Capacity     int
}

type AttentionSample struct {
	UserID    domain.UserID
	Timestamp int64
	Level     domain.AttentionLevel
}

// PeerRequest is a participant's offer to its supervisor.
type PeerRequest struct {
	Supervisor domain.UserID
	Epoch      domain.Epoch
	SDP        string
}

type PeerAnswer struct {
	Participant domain.UserID
	SDP         string
}

type PeerCandidate struct {
	To        domain.UserID
	Candidate webrtc.ICECandidateInit
}

type RoomInfo struct {
	ID           domain.RoomID   `json:"roomId"`
	Name         domain.RoomName `json:"name"`
	IsOpen       bool            `json:"isOpen"`
	Presenter    int             `json:"presenter"`
	Supervisors  int             `json:"supervisors"`
	Participants int             `json:"participants"`
}

type RoomConfig struct {
	RebalanceInterval time.Duration
	AttentionInterval time.Duration
	ParagraphSilence  time.Duration
	PendingTTL        time.Duration
	SummaryTimeout    time.Duration
}

func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		RebalanceInterval: 60 * time.Second,
		AttentionInterval: 10 * time.Second,
		ParagraphSilence:  10 * time.Second,
		PendingTTL:        time.Hour,
		SummaryTimeout:    10 * time.Second,
	}
}

// RoomDeps are the collaborators of a room. Everything but Clock may be nil.
type RoomDeps struct {
	Clock      clock.Clock
	Summarizer transcribe.Summarizer
	Archive    transcribe.Archive
	Metrics    *metrics.Metrics
	// OnBackpressure is called from the room goroutine when a send to conn
	// fails. It must not call back into the room synchronously.
	OnBackpressure func(room domain.RoomID, conn ConnID)
	// OnEmpty is called from the room goroutine when the room deletes itself.
	OnEmpty func(room domain.RoomID)
}
