package domain

import "errors"

var (
	ErrNotAuthorized   = errors.New("not authorized for room")
	ErrRoomNotFound    = errors.New("room not found")
	ErrPresenterExists = errors.New("presenter already exists")
	ErrDuplicateUser   = errors.New("user id already present in room")
	ErrInvalidRole     = errors.New("invalid role")
	ErrNotReady        = errors.New("handshake not completed")
	ErrUsernameEmpty   = errors.New("name empty")
	ErrUsernameTooLong = errors.New("name too long")
	ErrUserIDEmpty     = errors.New("user id empty")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrInvalidCapacity = errors.New("capacity must not be negative")
	ErrInvalidPriority = errors.New("priority must be positive")
	ErrInvalidLevel    = errors.New("attention level must be 0, 5 or 10")
)

// RejectReason is the opaque code sent to a client whose handshake failed.
type RejectReason string

const (
	ReasonNotAuthorized   RejectReason = "not-authorized"
	ReasonRoomNotFound    RejectReason = "room-not-found"
	ReasonPresenterExists RejectReason = "presenter-exists"
	ReasonDuplicateUser   RejectReason = "duplicate-user"
	ReasonBadRequest      RejectReason = "bad-request"
)

func ReasonOf(err error) RejectReason {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return ReasonNotAuthorized
	case errors.Is(err, ErrRoomNotFound):
		return ReasonRoomNotFound
	case errors.Is(err, ErrPresenterExists):
		return ReasonPresenterExists
	case errors.Is(err, ErrDuplicateUser):
		return ReasonDuplicateUser
	default:
		return ReasonBadRequest
	}
}
