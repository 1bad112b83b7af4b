package app

import (
	"time"

	"github.com/vividbreeze/planning-poker/internal/core"
	"github.com/vividbreeze/planning-poker/internal/domain"
)

// Outbound wire events. Every payload carries a "type" discriminator; the
// full-snapshot contract is RoomStateEvent.

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RoomStateEvent is the full snapshot: participant list stripped of connection
// handles, vote list empty unless revealed. AdminToken is populated only on
// the copy sent to a caller who just proved or was granted admin authority;
// it is never broadcast.
type RoomStateEvent struct {
	Type string `json:"type"`
	domain.RoomState
	AdminToken string `json:"adminToken,omitempty"`
}

type ParticipantEvent struct {
	Type        string                `json:"type"`
	Participant domain.ParticipantDTO `json:"participant"`
}

type ParticipantLeftEvent struct {
	Type      string         `json:"type"`
	SessionID core.SessionID `json:"sessionId"`
}

// VoteCastEvent announces vote presence only, never the value.
type VoteCastEvent struct {
	Type      string         `json:"type"`
	SessionID core.SessionID `json:"sessionId"`
	HasVoted  bool           `json:"hasVoted"`
}

type VotesRevealedEvent struct {
	Type    string                     `json:"type"`
	Votes   map[core.SessionID]float64 `json:"votes"`
	Average *float64                   `json:"average,omitempty"`
}

type VotesResetEvent struct {
	Type string `json:"type"`
}

type SettingsUpdatedEvent struct {
	Type     string          `json:"type"`
	Settings domain.Settings `json:"settings"`
}

type TimerStartedEvent struct {
	Type            string    `json:"type"`
	StartedAt       time.Time `json:"startedAt"`
	DurationSeconds int       `json:"durationSeconds"`
}

type TimerStoppedEvent struct {
	Type string `json:"type"`
}

type AdminPresenceEvent struct {
	Type      string         `json:"type"`
	SessionID core.SessionID `json:"sessionId"`
}

type RoomClosedEvent struct {
	Type string `json:"type"`
}
