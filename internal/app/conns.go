package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vividbreeze/planning-poker/internal/core"
)

// ConnEntry is the process-local binding of one live connection.
type ConnEntry struct {
	RoomID    core.RoomID
	SessionID core.SessionID
	Conn      core.SignalConnection
}

// ConnRegistry maps live connection handles to (room, session). Purely
// ephemeral disconnect bookkeeping: it is rebuilt from nothing on restart and
// never persisted.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[core.SignalConnection]*ConnEntry
}

func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{
		conns: make(map[core.SignalConnection]*ConnEntry),
	}
}

// Bind registers conn as the live connection for (roomID, sid). Any prior
// binding for the same session in the same room is evicted, so a superseded
// socket closing later finds no entry and cannot mark the session offline.
func (r *ConnRegistry) Bind(conn core.SignalConnection, roomID core.RoomID, sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for old, e := range r.conns {
		if old != conn && e.RoomID == roomID && e.SessionID == sid {
			delete(r.conns, old)
		}
	}
	r.conns[conn] = &ConnEntry{RoomID: roomID, SessionID: sid, Conn: conn}
	log.Debug().Str("module", "app.conns").Str("room_id", string(roomID)).Str("sid", string(sid)).Msg("bound connection")
}

func (r *ConnRegistry) Lookup(conn core.SignalConnection) (ConnEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[conn]; ok {
		return *e, true
	}
	return ConnEntry{}, false
}

func (r *ConnRegistry) Unbind(conn core.SignalConnection) (ConnEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[conn]
	if !ok {
		return ConnEntry{}, false
	}
	delete(r.conns, conn)
	log.Debug().Str("module", "app.conns").Str("room_id", string(e.RoomID)).Str("sid", string(e.SessionID)).Msg("unbound connection")
	return *e, true
}

// UnbindSession drops the binding for one session in a room, returning its
// connection if there was one.
func (r *ConnRegistry) UnbindSession(roomID core.RoomID, sid core.SessionID) (core.SignalConnection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for conn, e := range r.conns {
		if e.RoomID == roomID && e.SessionID == sid {
			delete(r.conns, conn)
			return conn, true
		}
	}
	return nil, false
}

// UnbindRoom drops every binding for a room. Used when a room closes.
func (r *ConnRegistry) UnbindRoom(roomID core.RoomID) []ConnEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ConnEntry
	for conn, e := range r.conns {
		if e.RoomID == roomID {
			out = append(out, *e)
			delete(r.conns, conn)
		}
	}
	return out
}

func (r *ConnRegistry) ConnsInRoom(roomID core.RoomID) []ConnEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnEntry, 0, len(r.conns))
	for _, e := range r.conns {
		if e.RoomID == roomID {
			out = append(out, *e)
		}
	}
	return out
}
