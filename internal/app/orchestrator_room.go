package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vividbreeze/planning-poker/internal/core"
	"github.com/vividbreeze/planning-poker/internal/domain"
	"github.com/vividbreeze/planning-poker/internal/registry"
)

// JoinParams carries the identity-bearing fields of a join event. AdminToken
// is the optional bearer credential; SessionID is connection affinity only.
type JoinParams struct {
	RoomID     core.RoomID
	SessionID  core.SessionID
	Name       string
	AdminToken string
}

// CreateRoom allocates a fresh identifier and joins the caller as admin.
func (o *Orchestrator) CreateRoom(ctx context.Context, conn core.SignalConnection, sid core.SessionID, name string) {
	room, err := o.Rooms.CreateRoom(ctx, sid)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Msg("create room")
		o.sendError(conn, msgInternal)
		return
	}
	o.seatAdmin(ctx, conn, room, sid, name)
}

// EnsureRoom backs the admin-link flow: visiting an unclaimed identifier
// claims it; a live identifier returns its snapshot; a reserved identifier is
// silently resolved by issuing a fresh one instead of surfacing a conflict.
func (o *Orchestrator) EnsureRoom(ctx context.Context, conn core.SignalConnection, sid core.SessionID, roomID core.RoomID, name string) {
	unlock := o.lockRoom(roomID)
	room, err := o.Rooms.GetRoom(ctx, roomID)
	if err == nil {
		unlock()
		o.send(conn, RoomStateEvent{Type: "room-state", RoomState: room.State()})
		return
	}
	if !errors.Is(err, registry.ErrRoomNotFound) {
		unlock()
		log.Error().Err(err).Str("module", "app").Str("room_id", string(roomID)).Msg("ensure room load")
		o.sendError(conn, msgInternal)
		return
	}

	room, err = o.Rooms.CreateRoomWithID(ctx, roomID, sid)
	unlock()
	if errors.Is(err, registry.ErrRoomExists) {
		// Reserved after a deletion: a stale link must not land in an
		// unrelated new room under the same id.
		o.CreateRoom(ctx, conn, sid, name)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(roomID)).Msg("ensure room create")
		o.sendError(conn, msgInternal)
		return
	}
	o.seatAdmin(ctx, conn, room, sid, name)
}

// CheckRoom answers whether an identifier is live, without joining.
func (o *Orchestrator) CheckRoom(ctx context.Context, conn core.SignalConnection, roomID core.RoomID) {
	room, err := o.Rooms.GetRoom(ctx, roomID)
	if errors.Is(err, registry.ErrRoomNotFound) {
		o.sendError(conn, msgRoomNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(roomID)).Msg("check room")
		o.sendError(conn, msgInternal)
		return
	}
	o.send(conn, RoomStateEvent{Type: "room-state", RoomState: room.State()})
}

// seatAdmin inserts the creator's admin row into a freshly created room and
// replies with the snapshot carrying the admin token.
func (o *Orchestrator) seatAdmin(ctx context.Context, conn core.SignalConnection, room *domain.Room, sid core.SessionID, name string) {
	unlock := o.lockRoom(room.ID)
	defer unlock()

	cleaned := domain.CleanName(name)
	if cleaned == "" {
		cleaned = "Admin"
	}
	room.AdminSessionID = sid
	room.Participants[sid] = &domain.Participant{
		SessionID:   sid,
		Name:        cleaned,
		IsAdmin:     true,
		IsConnected: true,
		Conn:        conn,
	}
	if err := o.Rooms.SaveRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(room.ID)).Msg("seat admin save")
		o.sendError(conn, msgInternal)
		return
	}
	o.Conns.Bind(conn, room.ID, sid)
	o.send(conn, RoomStateEvent{Type: "room-state", RoomState: room.State(), AdminToken: room.AdminToken})
	log.Info().Str("module", "app").Str("room_id", string(room.ID)).Str("sid", string(sid)).Msg("admin seated")
}

// JoinAsAdmin requires the bearer token up front; a mismatch is an authority
// failure, never a silent downgrade to a regular join.
func (o *Orchestrator) JoinAsAdmin(ctx context.Context, conn core.SignalConnection, p JoinParams) {
	if p.AdminToken == "" {
		o.sendError(conn, msgNotAuthorized)
		return
	}
	o.JoinRoom(ctx, conn, p)
}

// JoinRoom handles every join: first connect, reconnect by session id, and
// admin reconnect by token. One consistent rule decides admin identity: a
// token match alone proves it, in both the existing-participant and the
// new-participant branch.
func (o *Orchestrator) JoinRoom(ctx context.Context, conn core.SignalConnection, p JoinParams) {
	unlock := o.lockRoom(p.RoomID)
	defer unlock()

	room, err := o.Rooms.GetRoom(ctx, p.RoomID)
	if errors.Is(err, registry.ErrRoomNotFound) {
		o.sendError(conn, msgRoomNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(p.RoomID)).Msg("join load")
		o.sendError(conn, msgInternal)
		return
	}

	isAdminCred := p.AdminToken != "" && p.AdminToken == room.AdminToken
	if p.AdminToken != "" && !isAdminCred {
		o.sendError(conn, msgNotAuthorized)
		return
	}

	name := domain.CleanName(p.Name)
	existing, isReconnect := room.Participants[p.SessionID]

	switch {
	case isReconnect:
		o.rejoinExisting(ctx, conn, room, existing, name, isAdminCred)
	case isAdminCred:
		o.adminTakeover(ctx, conn, room, p.SessionID, name)
	default:
		o.joinFresh(ctx, conn, room, p.SessionID, name)
	}
}

// rejoinExisting restores a known session in place.
func (o *Orchestrator) rejoinExisting(ctx context.Context, conn core.SignalConnection, room *domain.Room, p *domain.Participant, name string, isAdminCred bool) {
	p.IsConnected = true
	p.Conn = conn
	if name != "" {
		p.Name = name
	}

	adminReturn := p.IsAdmin || isAdminCred
	var purged []core.SessionID
	if adminReturn {
		p.IsAdmin = true
		room.AdminSessionID = p.SessionID
		purged = o.reclaimAdmin(room, p.SessionID)
	}

	if err := o.Rooms.SaveRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(room.ID)).Msg("rejoin save")
		o.sendError(conn, msgInternal)
		return
	}
	o.Conns.Bind(conn, room.ID, p.SessionID)

	state := RoomStateEvent{Type: "room-state", RoomState: room.State()}
	if adminReturn {
		state.AdminToken = room.AdminToken
	}
	o.send(conn, state)

	if adminReturn {
		o.cancelGrace(room.ID)
		o.announceAdminReturn(room, p.SessionID, purged)
	} else {
		o.broadcast(room.ID, ParticipantEvent{Type: "participant-updated", Participant: p.DTO()})
	}
}

// adminTakeover promotes a brand-new session that proved the bearer token:
// new tab, new browser, or a stale admin row. Admin identity can never be
// locked out of its own room, so neither the participant cap nor the
// no-admin gate applies here.
func (o *Orchestrator) adminTakeover(ctx context.Context, conn core.SignalConnection, room *domain.Room, sid core.SessionID, name string) {
	if name == "" {
		if old, ok := room.Participants[room.AdminSessionID]; ok {
			name = old.Name
		} else {
			name = "Admin"
		}
	}
	room.Participants[sid] = &domain.Participant{
		SessionID:   sid,
		Name:        name,
		IsAdmin:     true,
		IsConnected: true,
		Conn:        conn,
	}
	room.AdminSessionID = sid
	purged := o.reclaimAdmin(room, sid)

	if err := o.Rooms.SaveRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(room.ID)).Msg("admin takeover save")
		o.sendError(conn, msgInternal)
		return
	}
	o.Conns.Bind(conn, room.ID, sid)
	o.send(conn, RoomStateEvent{Type: "room-state", RoomState: room.State(), AdminToken: room.AdminToken})

	o.cancelGrace(room.ID)
	o.announceAdminReturn(room, sid, purged)
}

// reclaimAdmin makes keep the only admin row and batch-purges all stale
// disconnected rows. The batched cleanup on every admin reconnect is what
// keeps the participant set from growing unboundedly.
func (o *Orchestrator) reclaimAdmin(room *domain.Room, keep core.SessionID) []core.SessionID {
	var removed []core.SessionID
	for sid, q := range room.Participants {
		if sid == keep || !q.IsAdmin {
			continue
		}
		if q.IsConnected {
			// The bearer token wins; the old session stays as a regular
			// participant.
			q.IsAdmin = false
			continue
		}
		removed = append(removed, sid)
	}
	for _, sid := range removed {
		room.RemoveParticipant(sid)
	}
	removed = append(removed, room.PurgeDisconnected(keep)...)
	return removed
}

func (o *Orchestrator) announceAdminReturn(room *domain.Room, sid core.SessionID, purged []core.SessionID) {
	for _, gone := range purged {
		o.Conns.UnbindSession(room.ID, gone)
	}
	o.broadcast(room.ID, AdminPresenceEvent{Type: "admin-reconnected", SessionID: sid})
	// Resync everyone after the batched cleanup.
	o.broadcast(room.ID, RoomStateEvent{Type: "room-state", RoomState: room.State()})
	log.Info().Str("module", "app").Str("room_id", string(room.ID)).Str("sid", string(sid)).Int("purged", len(purged)).Msg("admin restored")
}

// joinFresh admits a brand-new regular participant: rejected while no admin
// is present and once the participant cap is reached.
func (o *Orchestrator) joinFresh(ctx context.Context, conn core.SignalConnection, room *domain.Room, sid core.SessionID, name string) {
	if !room.HasAdmin() {
		o.sendError(conn, msgNoAdmin)
		return
	}
	if len(room.Participants) >= o.MaxParticipants {
		o.sendError(conn, o.roomFullMessage())
		return
	}
	if name == "" {
		name = "Guest"
	}
	p := &domain.Participant{
		SessionID:   sid,
		Name:        name,
		IsConnected: true,
		Conn:        conn,
	}
	room.Participants[sid] = p

	if err := o.Rooms.SaveRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(room.ID)).Msg("join save")
		o.sendError(conn, msgInternal)
		return
	}
	o.Conns.Bind(conn, room.ID, sid)
	o.send(conn, RoomStateEvent{Type: "room-state", RoomState: room.State()})
	o.broadcast(room.ID, ParticipantEvent{Type: "participant-joined", Participant: p.DTO()})
	log.Info().Str("module", "app").Str("room_id", string(room.ID)).Str("sid", string(sid)).Msg("participant joined")
}

// OnDisconnect runs when a socket drops. Identity persists: the row stays,
// only presence changes. If the admin dropped, the room enters the grace
// window and everyone is told to show a waiting state.
//
// A socket superseded by a reconnect was already evicted from the connection
// registry by Bind, so its close resolves to no entry here and never touches
// the live session.
func (o *Orchestrator) OnDisconnect(ctx context.Context, conn core.SignalConnection) {
	entry, ok := o.Conns.Unbind(conn)
	if !ok {
		return
	}

	unlock := o.lockRoom(entry.RoomID)
	defer unlock()

	room, err := o.Rooms.GetRoom(ctx, entry.RoomID)
	if err != nil {
		// Room already gone: nothing to mark.
		return
	}
	p, ok := room.Participants[entry.SessionID]
	if !ok {
		return
	}
	p.IsConnected = false
	p.Conn = nil

	if err := o.Rooms.SaveRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(room.ID)).Msg("disconnect save")
		return
	}

	o.broadcast(room.ID, ParticipantEvent{Type: "participant-updated", Participant: p.DTO()})
	if p.IsAdmin {
		o.broadcast(room.ID, AdminPresenceEvent{Type: "admin-disconnected", SessionID: p.SessionID})
		o.scheduleGrace(room.ID)
	}
	log.Info().Str("module", "app").Str("room_id", string(room.ID)).Str("sid", string(entry.SessionID)).Bool("was_admin", p.IsAdmin).Msg("participant disconnected")
}

// onGraceExpired fires when the admin stayed away past the grace period. It
// is idempotent against rooms that were deleted or reclaimed in the meantime.
func (o *Orchestrator) onGraceExpired(roomID core.RoomID) {
	ctx := context.Background()

	unlock := o.lockRoom(roomID)
	defer unlock()

	o.graceMu.Lock()
	delete(o.grace, roomID)
	o.graceMu.Unlock()

	room, err := o.Rooms.GetRoom(ctx, roomID)
	if errors.Is(err, registry.ErrRoomNotFound) {
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(roomID)).Msg("grace expiry load")
		return
	}
	if room.HasAdmin() {
		// Stale task: the admin came back.
		return
	}

	o.broadcast(roomID, RoomClosedEvent{Type: "room-closed"})
	if err := o.Rooms.DeleteRoom(ctx, roomID); err != nil {
		log.Error().Err(err).Str("module", "app").Str("room_id", string(roomID)).Msg("grace expiry delete")
		return
	}
	o.Conns.UnbindRoom(roomID)
	log.Info().Str("module", "app").Str("room_id", string(roomID)).Msg("room closed after admin grace")
}
