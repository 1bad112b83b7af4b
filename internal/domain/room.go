package domain

import (
	"math"
	"time"

	"github.com/vividbreeze/planning-poker/internal/core"
)

// Room is the central aggregate: one estimation session.
//
// The JSON shape of Room is the persisted record layout. Connection handles
// carry json:"-" and come back nil after a load; everything else round-trips.
type Room struct {
	ID             core.RoomID                     `json:"roomId"`
	AdminToken     string                          `json:"adminToken"`
	AdminSessionID core.SessionID                  `json:"adminSessionId"`
	Settings       Settings                        `json:"settings"`
	Participants   map[core.SessionID]*Participant `json:"participants"`
	Votes          map[core.SessionID]float64      `json:"votes"`
	IsRevealed     bool                            `json:"isRevealed"`
	TimerStartedAt *time.Time                      `json:"timerStartedAt,omitempty"`
	CreatedAt      time.Time                       `json:"createdAt"`
	LastAccessedAt time.Time                       `json:"lastAccessedAt"`
}

func NewRoom(id core.RoomID, adminToken string, adminSessionID core.SessionID, now time.Time) *Room {
	return &Room{
		ID:             id,
		AdminToken:     adminToken,
		AdminSessionID: adminSessionID,
		Settings:       DefaultSettings(),
		Participants:   make(map[core.SessionID]*Participant),
		Votes:          make(map[core.SessionID]float64),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

// HasAdmin reports whether an admin is present: some participant must be
// admin-flagged AND connected. A room with a disconnected admin counts as
// adminless for new-join admission.
func (r *Room) HasAdmin() bool {
	for _, p := range r.Participants {
		if p.IsAdmin && p.IsConnected {
			return true
		}
	}
	return false
}

// CastVote upserts a vote. Valid only while not revealed and only for a known
// session; late or unknown votes are silently dropped, never queued.
func (r *Room) CastVote(sid core.SessionID, value float64) bool {
	if r.IsRevealed {
		return false
	}
	p, ok := r.Participants[sid]
	if !ok {
		return false
	}
	r.Votes[sid] = value
	p.HasVoted = true
	return true
}

// DeleteEstimate removes one vote and clears the hasVoted flag. Legal in
// either state. Reports whether anything changed.
func (r *Room) DeleteEstimate(sid core.SessionID) bool {
	p, hasParticipant := r.Participants[sid]
	_, hasVote := r.Votes[sid]
	if !hasVote && (!hasParticipant || !p.HasVoted) {
		return false
	}
	delete(r.Votes, sid)
	if hasParticipant {
		p.HasVoted = false
	}
	return true
}

// Reveal transitions Open -> Revealed.
func (r *Room) Reveal() {
	r.IsRevealed = true
}

// Reset returns the room to Open: all votes, hasVoted flags and the timer are
// cleared.
func (r *Room) Reset() {
	r.Votes = make(map[core.SessionID]float64)
	for _, p := range r.Participants {
		p.HasVoted = false
	}
	r.IsRevealed = false
	r.TimerStartedAt = nil
}

// ApplySettings merges the patch. If the selectable estimate options changed,
// every previously cast value may be invalid, so the room is reset in the
// same mutation. Returns whether the options changed.
func (r *Room) ApplySettings(p SettingsPatch) bool {
	merged, optionsChanged := r.Settings.Merge(p)
	r.Settings = merged
	if optionsChanged {
		r.Reset()
	}
	return optionsChanged
}

// StartTimer records the absolute start instant. Elapsed time is always
// derived from it, never accumulated, so broadcast delay cannot drift it.
func (r *Room) StartTimer(now time.Time) {
	t := now
	r.TimerStartedAt = &t
}

// StopTimer clears the timer. Reports whether a timer was running.
func (r *Room) StopTimer() bool {
	if r.TimerStartedAt == nil {
		return false
	}
	r.TimerStartedAt = nil
	return true
}

// RemoveParticipant drops the row and any vote it cast.
func (r *Room) RemoveParticipant(sid core.SessionID) bool {
	if _, ok := r.Participants[sid]; !ok {
		return false
	}
	delete(r.Participants, sid)
	delete(r.Votes, sid)
	return true
}

// PurgeDisconnected removes every disconnected participant row except keep.
// Returns the removed session ids. Used on admin reconnect so the participant
// set cannot grow without bound across repeated reconnects.
func (r *Room) PurgeDisconnected(keep core.SessionID) []core.SessionID {
	var removed []core.SessionID
	for sid, p := range r.Participants {
		if sid == keep || p.IsConnected {
			continue
		}
		removed = append(removed, sid)
	}
	for _, sid := range removed {
		delete(r.Participants, sid)
		delete(r.Votes, sid)
	}
	return removed
}

// Average is the mean of all cast votes rounded to the nearest configured
// estimate option, ties rounding up. ok is false when no votes were cast.
func (r *Room) Average() (raw float64, nearest float64, ok bool) {
	if len(r.Votes) == 0 || len(r.Settings.EstimateOptions) == 0 {
		return 0, 0, false
	}
	var sum float64
	for _, v := range r.Votes {
		sum += v
	}
	raw = sum / float64(len(r.Votes))

	nearest = r.Settings.EstimateOptions[0]
	best := math.Inf(1)
	for _, opt := range r.Settings.EstimateOptions {
		d := math.Abs(opt - raw)
		// On a tie the larger option wins.
		if d < best || (d == best && opt > nearest) {
			best = d
			nearest = opt
		}
	}
	return raw, nearest, true
}

// RoomState is the full snapshot sent to clients. Vote values are present only
// when revealed; before that only vote presence (hasVoted) is visible.
type RoomState struct {
	RoomID         core.RoomID                `json:"roomId"`
	Settings       Settings                   `json:"settings"`
	Participants   []ParticipantDTO           `json:"participants"`
	Votes          map[core.SessionID]float64 `json:"votes"`
	IsRevealed     bool                       `json:"isRevealed"`
	TimerStartedAt *time.Time                 `json:"timerStartedAt,omitempty"`
}

func (r *Room) State() RoomState {
	parts := make([]ParticipantDTO, 0, len(r.Participants))
	for _, p := range r.Participants {
		parts = append(parts, p.DTO())
	}
	votes := make(map[core.SessionID]float64)
	if r.IsRevealed {
		for sid, v := range r.Votes {
			votes[sid] = v
		}
	}
	return RoomState{
		RoomID:         r.ID,
		Settings:       r.Settings,
		Participants:   parts,
		Votes:          votes,
		IsRevealed:     r.IsRevealed,
		TimerStartedAt: r.TimerStartedAt,
	}
}
