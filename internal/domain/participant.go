package domain

import (
	"strings"

	"github.com/vividbreeze/planning-poker/internal/core"
)

// MaxNameLength caps participant display names.
const MaxNameLength = 20

// Participant is one identity inside a room. Identity survives disconnects:
// only Conn and IsConnected change when the socket drops.
type Participant struct {
	SessionID   core.SessionID `json:"sessionId"`
	Name        string         `json:"name"`
	IsAdmin     bool           `json:"isAdmin"`
	IsConnected bool           `json:"isConnected"`
	HasVoted    bool           `json:"hasVoted"`

	// Conn is the live transport endpoint. Never persisted.
	Conn core.SignalConnection `json:"-"`
}

// CleanName trims and truncates a display name to MaxNameLength runes.
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > MaxNameLength {
		return string(runes[:MaxNameLength])
	}
	return name
}

// ParticipantDTO is the wire view of a participant, transport fields stripped.
type ParticipantDTO struct {
	SessionID   core.SessionID `json:"sessionId"`
	Name        string         `json:"name"`
	IsAdmin     bool           `json:"isAdmin"`
	IsConnected bool           `json:"isConnected"`
	HasVoted    bool           `json:"hasVoted"`
}

func (p *Participant) DTO() ParticipantDTO {
	return ParticipantDTO{
		SessionID:   p.SessionID,
		Name:        p.Name,
		IsAdmin:     p.IsAdmin,
		IsConnected: p.IsConnected,
		HasVoted:    p.HasVoted,
	}
}
