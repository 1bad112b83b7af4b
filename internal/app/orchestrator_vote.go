package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vividbreeze/planning-poker/internal/core"
	"github.com/vividbreeze/planning-poker/internal/domain"
	"github.com/vividbreeze/planning-poker/internal/registry"
)

// roomForConn resolves the acting connection to its room, with the room lock
// held. quiet suppresses the not-found error for events that silently no-op.
func (o *Orchestrator) roomForConn(ctx context.Context, conn core.SignalConnection, quiet bool) (*domain.Room, ConnEntry, func(), bool) {
	entry, ok := o.Conns.Lookup(conn)
	if !ok {
		if !quiet {
			o.sendError(conn, msgRoomNotFound)
		}
		return nil, ConnEntry{}, nil, false
	}

	unlock := o.lockRoom(entry.RoomID)
	room, err := o.Rooms.GetRoom(ctx, entry.RoomID)
	if err != nil {
		unlock()
		if errors.Is(err, registry.ErrRoomNotFound) {
			if !quiet {
				o.sendError(conn, msgRoomNotFound)
			}
			return nil, ConnEntry{}, nil, false
		}
		log.Error().Err(err).Str("module", "app").Str("room_id", string(entry.RoomID)).Msg("load room")
		o.sendError(conn, msgInternal)
		return nil, ConnEntry{}, nil, false
	}
	return room, entry, unlock, true
}

func (o *Orchestrator) persist(ctx context.Context, conn core.SignalConnection, room *domain.Room) bool {
	if err := o.Rooms.SaveRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(room.ID)).Msg("persist room")
		o.sendError(conn, msgInternal)
		return false
	}
	return true
}

// Vote upserts the caller's hidden vote. Late votes (room already revealed)
// and votes from unknown sessions are dropped without an error.
func (o *Orchestrator) Vote(ctx context.Context, conn core.SignalConnection, value float64) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, true)
	if !ok {
		return
	}
	defer unlock()

	if !room.CastVote(entry.SessionID, value) {
		return
	}
	if !o.persist(ctx, conn, room) {
		return
	}
	o.broadcast(room.ID, VoteCastEvent{Type: "vote-cast", SessionID: entry.SessionID, HasVoted: true})
}

// Reveal exposes all vote values to the room.
func (o *Orchestrator) Reveal(ctx context.Context, conn core.SignalConnection, adminToken string) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, false)
	if !ok {
		return
	}
	defer unlock()

	if !canReveal(room, entry.SessionID, adminToken) {
		o.sendError(conn, msgNotAuthorized)
		return
	}
	if room.IsRevealed {
		return
	}
	room.Reveal()
	if !o.persist(ctx, conn, room) {
		return
	}

	ev := VotesRevealedEvent{Type: "votes-revealed", Votes: room.State().Votes}
	if room.Settings.ShowAverage {
		if _, nearest, ok := room.Average(); ok {
			ev.Average = &nearest
		}
	}
	o.broadcast(room.ID, ev)
}

// Reset returns the room to open voting: votes, hasVoted flags and the timer
// are cleared.
func (o *Orchestrator) Reset(ctx context.Context, conn core.SignalConnection, adminToken string) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, false)
	if !ok {
		return
	}
	defer unlock()

	if !canClearEstimates(room, entry.SessionID, adminToken) {
		o.sendError(conn, msgNotAuthorized)
		return
	}
	room.Reset()
	if !o.persist(ctx, conn, room) {
		return
	}
	o.broadcast(room.ID, VotesResetEvent{Type: "votes-reset"})
}

// DeleteEstimate removes one vote. Own estimates are always deletable;
// deleting a non-existent estimate is a silent no-op.
func (o *Orchestrator) DeleteEstimate(ctx context.Context, conn core.SignalConnection, target core.SessionID, adminToken string) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, false)
	if !ok {
		return
	}
	defer unlock()

	if !canDeleteEstimate(room, entry.SessionID, adminToken, target) {
		o.sendError(conn, msgNotAuthorized)
		return
	}
	if !room.DeleteEstimate(target) {
		return
	}
	if !o.persist(ctx, conn, room) {
		return
	}
	o.broadcast(room.ID, VoteCastEvent{Type: "vote-cast", SessionID: target, HasVoted: false})
}

// ClearUser removes a participant row entirely, vote included.
func (o *Orchestrator) ClearUser(ctx context.Context, conn core.SignalConnection, target core.SessionID, adminToken string) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, false)
	if !ok {
		return
	}
	defer unlock()

	if !canClearUsers(room, entry.SessionID, adminToken) {
		o.sendError(conn, msgNotAuthorized)
		return
	}
	if !room.RemoveParticipant(target) {
		return
	}
	if !o.persist(ctx, conn, room) {
		return
	}
	o.broadcast(room.ID, ParticipantLeftEvent{Type: "participant-left", SessionID: target})
	o.Conns.UnbindSession(room.ID, target)
}

// ClearAllParticipants removes every non-admin row. Admin-token authority
// only; this is not one of the delegable rights.
func (o *Orchestrator) ClearAllParticipants(ctx context.Context, conn core.SignalConnection, adminToken string) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, false)
	if !ok {
		return
	}
	defer unlock()

	if !actorIsAdmin(room, entry.SessionID, adminToken) {
		o.sendError(conn, msgNotAuthorized)
		return
	}

	var removed []core.SessionID
	for sid, p := range room.Participants {
		if !p.IsAdmin {
			removed = append(removed, sid)
		}
	}
	if len(removed) == 0 {
		return
	}
	for _, sid := range removed {
		room.RemoveParticipant(sid)
	}
	if !o.persist(ctx, conn, room) {
		return
	}
	for _, sid := range removed {
		o.broadcast(room.ID, ParticipantLeftEvent{Type: "participant-left", SessionID: sid})
		o.Conns.UnbindSession(room.ID, sid)
	}
	o.broadcast(room.ID, RoomStateEvent{Type: "room-state", RoomState: room.State()})
	log.Info().Str("module", "app").Str("room_id", string(room.ID)).Int("removed", len(removed)).Msg("participants cleared")
}
