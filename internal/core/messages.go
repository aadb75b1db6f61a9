package core

import "github.com/dkeye/Moderator/internal/domain"

// Outbound control events. Every message carries its event name in Type.

type memberView struct {
	UserID domain.UserID `json:"userId"`
	Name   string        `json:"displayName"`
}

type supervisorView struct {
	UserID   domain.UserID `json:"userId"`
	Name     string        `json:"displayName"`
	Priority int           `json:"priority"`
	Capacity int           `json:"capacity"`
}

type getReadyMsg struct {
	Type         string           `json:"type"`
	Role         domain.Role      `json:"role"`
	RoomID       domain.RoomID    `json:"roomId"`
	RoomName     domain.RoomName  `json:"roomName"`
	Presenter    *memberView      `json:"presenter,omitempty"`
	Supervisors  []supervisorView `json:"supervisors"`
	Participants []memberView     `json:"participants"`
	ScreenID     string           `json:"screenId,omitempty"`
}

type memberEventMsg struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	Name   string        `json:"displayName"`
	Role   domain.Role   `json:"role"`
}

type presenterLeftMsg struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
}

type assignSupervisorMsg struct {
	Type         string        `json:"type"`
	SupervisorID domain.UserID `json:"supervisorId"`
	Epoch        domain.Epoch  `json:"epoch"`
}

type newAssignmentMsg struct {
	Type         string                   `json:"type"`
	Participants map[domain.UserID]string `json:"participants"`
	Epoch        domain.Epoch             `json:"epoch"`
}

type connectRequestMsg struct {
	Type          string        `json:"type"`
	ParticipantID domain.UserID `json:"participantId"`
	Name          string        `json:"displayName"`
	Epoch         domain.Epoch  `json:"epoch"`
	SDP           string        `json:"sdp"`
}

type connectAnswerMsg struct {
	Type         string        `json:"type"`
	SupervisorID domain.UserID `json:"supervisorId"`
	SDP          string        `json:"sdp"`
}

type candidateMsg struct {
	Type          string        `json:"type"`
	From          domain.UserID `json:"from"`
	Candidate     string        `json:"candidate"`
	SDPMid        *string       `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16       `json:"sdpMLineIndex,omitempty"`
}

type attentionSummaryMsg struct {
	Type       string  `json:"type"`
	Percentage float64 `json:"percentage"`
}

type screenshareMsg struct {
	Type     string `json:"type"`
	ScreenID string `json:"screenId"`
}

type chatMsg struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"userId"`
	Name   string        `json:"displayName"`
	Text   string        `json:"text"`
}

type transcriptParagraphMsg struct {
	Type           string        `json:"type"`
	Text           string        `json:"text"`
	UserID         domain.UserID `json:"userId"`
	ParagraphEpoch int64         `json:"paragraphEpoch"`
}

type transcriptSummaryMsg struct {
	Type           string        `json:"type"`
	Summary        string        `json:"summary"`
	Confidence     float64       `json:"confidence"`
	UserID         domain.UserID `json:"userId"`
	ParagraphEpoch int64         `json:"paragraphEpoch"`
}

type transcriptionErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
