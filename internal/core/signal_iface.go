package core

// Frame is one encoded control message.
type Frame []byte

// SessionID is the browser session's client token. Privilege grants are
// keyed by it.
type SessionID string

// ConnID identifies one control channel. A browser session may hold several.
type ConnID string

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
