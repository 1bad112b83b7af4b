package app

import (
	"context"

	"github.com/vividbreeze/planning-poker/internal/core"
	"github.com/vividbreeze/planning-poker/internal/domain"
)

// UpdateSettings applies a partial settings patch. Admin-token authority
// only: settings changes are never delegable. When the estimate options
// change, all votes are cleared atomically with the settings update, since
// previously cast values may no longer be selectable.
func (o *Orchestrator) UpdateSettings(ctx context.Context, conn core.SignalConnection, patch domain.SettingsPatch, adminToken string) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, false)
	if !ok {
		return
	}
	defer unlock()

	if !actorIsAdmin(room, entry.SessionID, adminToken) {
		o.sendError(conn, msgNotAuthorized)
		return
	}

	optionsChanged := room.ApplySettings(patch)
	if !o.persist(ctx, conn, room) {
		return
	}
	o.broadcast(room.ID, SettingsUpdatedEvent{Type: "settings-updated", Settings: room.Settings})
	if optionsChanged {
		o.broadcast(room.ID, VotesResetEvent{Type: "votes-reset"})
	}
}

// StartTimer records the absolute start instant; clients derive elapsed time
// from it. Admin only, like all timer control.
func (o *Orchestrator) StartTimer(ctx context.Context, conn core.SignalConnection, adminToken string) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, false)
	if !ok {
		return
	}
	defer unlock()

	if !actorIsAdmin(room, entry.SessionID, adminToken) {
		o.sendError(conn, msgNotAuthorized)
		return
	}

	room.StartTimer(o.Clock.Now())
	if !o.persist(ctx, conn, room) {
		return
	}
	o.broadcast(room.ID, TimerStartedEvent{
		Type:            "timer-started",
		StartedAt:       *room.TimerStartedAt,
		DurationSeconds: room.Settings.TimerDurationSeconds,
	})
}

// StopTimer clears the timer. Stopping an already-stopped timer is a silent
// no-op: no broadcast, no error.
func (o *Orchestrator) StopTimer(ctx context.Context, conn core.SignalConnection, adminToken string) {
	room, entry, unlock, ok := o.roomForConn(ctx, conn, false)
	if !ok {
		return
	}
	defer unlock()

	if !actorIsAdmin(room, entry.SessionID, adminToken) {
		o.sendError(conn, msgNotAuthorized)
		return
	}

	if !room.StopTimer() {
		return
	}
	if !o.persist(ctx, conn, room) {
		return
	}
	o.broadcast(room.ID, TimerStoppedEvent{Type: "timer-stopped"})
}
