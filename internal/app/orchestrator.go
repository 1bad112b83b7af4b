package app

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/vividbreeze/planning-poker/internal/core"
	"github.com/vividbreeze/planning-poker/internal/registry"
)

const (
	msgNotAuthorized = "Not authorized"
	msgRoomNotFound  = "Room not found"
	msgNoAdmin       = "No admin present"
	msgInternal      = "Internal error"
)

// Orchestrator is the room protocol handler: it validates inbound events
// against the authority model and the voting state machine, mutates the room
// record, persists it, and broadcasts the resulting deltas.
//
// A per-room mutex is held across load-mutate-persist, so every event sees a
// fully mutated, persisted room; events on different rooms interleave freely.
type Orchestrator struct {
	Rooms *registry.Registry
	Conns *ConnRegistry
	Clock clockwork.Clock

	MaxParticipants int
	AdminGrace      time.Duration

	locksMu sync.Mutex
	locks   map[core.RoomID]*roomLock

	graceMu sync.Mutex
	grace   map[core.RoomID]clockwork.Timer
}

// roomLock is one keyed mutex with a waiter count, so the map entry can be
// dropped exactly when the last holder releases it.
type roomLock struct {
	mu   sync.Mutex
	refs int
}

func NewOrchestrator(rooms *registry.Registry, conns *ConnRegistry, clock clockwork.Clock, maxParticipants int, adminGrace time.Duration) *Orchestrator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		Rooms:           rooms,
		Conns:           conns,
		Clock:           clock,
		MaxParticipants: maxParticipants,
		AdminGrace:      adminGrace,
		locks:           make(map[core.RoomID]*roomLock),
		grace:           make(map[core.RoomID]clockwork.Timer),
	}
}

// lockRoom serializes handlers per room. The returned release func drops the
// map entry once no handler holds or awaits the lock, so closed rooms do not
// leak mutexes and a late waiter can never mint a second mutex for the same id.
func (o *Orchestrator) lockRoom(id core.RoomID) func() {
	o.locksMu.Lock()
	l, ok := o.locks[id]
	if !ok {
		l = &roomLock{}
		o.locks[id] = l
	}
	l.refs++
	o.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		o.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(o.locks, id)
		}
		o.locksMu.Unlock()
	}
}

func (o *Orchestrator) send(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Msg("send marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "app").Msg("send dropped")
	}
}

// broadcast fans an event out to every connection joined to the room.
// Delivery is at-least-once best effort; slow consumers drop frames.
func (o *Orchestrator) broadcast(roomID core.RoomID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app").Msg("broadcast marshal")
		return
	}
	sent, dropped := 0, 0
	for _, e := range o.Conns.ConnsInRoom(roomID) {
		if err := e.Conn.TrySend(b); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app").Str("room_id", string(roomID)).Int("sent", sent).Int("dropped", dropped).Msg("broadcast")
}

// sendError reports a failure to the originating connection only. Authority
// and validation failures never reach other participants.
func (o *Orchestrator) sendError(conn core.SignalConnection, msg string) {
	o.send(conn, ErrorEvent{Type: "error", Message: msg})
}

func (o *Orchestrator) roomFullMessage() string {
	return fmt.Sprintf("Room is full (max %d participants)", o.MaxParticipants)
}

// scheduleGrace arms the admin-absence timer for a room, replacing any
// pending one. The task is keyed by room id so a reconnect cancels exactly
// the pending task, not merely a flag.
func (o *Orchestrator) scheduleGrace(roomID core.RoomID) {
	o.graceMu.Lock()
	defer o.graceMu.Unlock()
	if t, ok := o.grace[roomID]; ok {
		t.Stop()
	}
	o.grace[roomID] = o.Clock.AfterFunc(o.AdminGrace, func() {
		o.onGraceExpired(roomID)
	})
	log.Info().Str("module", "app").Str("room_id", string(roomID)).Dur("grace", o.AdminGrace).Msg("admin grace timer armed")
}

func (o *Orchestrator) cancelGrace(roomID core.RoomID) {
	o.graceMu.Lock()
	defer o.graceMu.Unlock()
	if t, ok := o.grace[roomID]; ok {
		t.Stop()
		delete(o.grace, roomID)
		log.Info().Str("module", "app").Str("room_id", string(roomID)).Msg("admin grace timer canceled")
	}
}
