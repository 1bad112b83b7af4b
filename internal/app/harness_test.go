package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/vividbreeze/planning-poker/internal/core"
	"github.com/vividbreeze/planning-poker/internal/domain"
	"github.com/vividbreeze/planning-poker/internal/registry"
	"github.com/vividbreeze/planning-poker/internal/store"
)

const testGrace = 60 * time.Second

// fakeConn records every frame the orchestrator sends to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func newFakeConn() *fakeConn { return &fakeConn{} }

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make(core.Frame, len(f))
	copy(cp, f)
	c.frames = append(c.frames, cp)
	return nil
}

func (c *fakeConn) Close() {}

// events decodes all recorded frames.
func (c *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) eventsOfType(t *testing.T, typ string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ev := range c.events(t) {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (c *fakeConn) lastOfType(t *testing.T, typ string) map[string]any {
	t.Helper()
	evs := c.eventsOfType(t, typ)
	require.NotEmpty(t, evs, "no %q event recorded", typ)
	return evs[len(evs)-1]
}

func (c *fakeConn) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

type testEnv struct {
	orch  *Orchestrator
	clock *clockwork.FakeClock
	reg   *registry.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := clockwork.NewFakeClock()
	mem := store.NewMemory(clock)
	reg := registry.New(mem, clock, 720*time.Hour, 48*time.Hour)
	orch := NewOrchestrator(reg, NewConnRegistry(), clock, 10, testGrace)
	return &testEnv{orch: orch, clock: clock, reg: reg}
}

// createRoom creates a room through the protocol and returns its id and
// admin token as the client would learn them.
func (e *testEnv) createRoom(t *testing.T, conn *fakeConn, sid core.SessionID, name string) (core.RoomID, string) {
	t.Helper()
	e.orch.CreateRoom(context.Background(), conn, sid, name)
	state := conn.lastOfType(t, "room-state")
	roomID, _ := state["roomId"].(string)
	token, _ := state["adminToken"].(string)
	require.NotEmpty(t, roomID)
	require.NotEmpty(t, token)
	return core.RoomID(roomID), token
}

func (e *testEnv) join(t *testing.T, conn *fakeConn, roomID core.RoomID, sid core.SessionID, name string) {
	t.Helper()
	e.orch.JoinRoom(context.Background(), conn, JoinParams{RoomID: roomID, SessionID: sid, Name: name})
}

func settingsPatch(t *testing.T, raw string) domain.SettingsPatch {
	t.Helper()
	var p domain.SettingsPatch
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}
