package core

// Frame is a marshaled JSON payload delivered over a signal connection.
type Frame []byte

// SessionID is a client-chosen identity string. It correlates a participant
// across reconnects within one browser context; it carries no authority.
type SessionID string

// RoomID identifies a room. Globally unique while the room is live.
type RoomID string

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
