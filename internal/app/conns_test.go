package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnRegistry_BindLookupUnbind(t *testing.T) {
	r := NewConnRegistry()
	conn := newFakeConn()

	_, ok := r.Lookup(conn)
	assert.False(t, ok)

	r.Bind(conn, "room-1", "sid-1")

	e, ok := r.Lookup(conn)
	require.True(t, ok)
	assert.Equal(t, "room-1", string(e.RoomID))
	assert.Equal(t, "sid-1", string(e.SessionID))

	e, ok = r.Unbind(conn)
	require.True(t, ok)
	assert.Equal(t, "sid-1", string(e.SessionID))

	_, ok = r.Unbind(conn)
	assert.False(t, ok)
}

func TestConnRegistry_BindEvictsSupersededConn(t *testing.T) {
	r := NewConnRegistry()
	old, fresh := newFakeConn(), newFakeConn()

	r.Bind(old, "room-1", "sid-a")
	r.Bind(fresh, "room-1", "sid-a")

	_, ok := r.Lookup(old)
	assert.False(t, ok, "superseded socket must lose its binding")

	e, ok := r.Lookup(fresh)
	require.True(t, ok)
	assert.Equal(t, "sid-a", string(e.SessionID))
	assert.Len(t, r.ConnsInRoom("room-1"), 1)

	// Same session in a different room keeps its binding.
	other := newFakeConn()
	r.Bind(other, "room-2", "sid-a")
	_, ok = r.Lookup(fresh)
	assert.True(t, ok)
}

func TestConnRegistry_ConnsInRoom(t *testing.T) {
	r := NewConnRegistry()
	a, b, c := newFakeConn(), newFakeConn(), newFakeConn()
	r.Bind(a, "room-1", "sid-a")
	r.Bind(b, "room-1", "sid-b")
	r.Bind(c, "room-2", "sid-c")

	assert.Len(t, r.ConnsInRoom("room-1"), 2)
	assert.Len(t, r.ConnsInRoom("room-2"), 1)
	assert.Empty(t, r.ConnsInRoom("room-3"))
}

func TestConnRegistry_UnbindSession(t *testing.T) {
	r := NewConnRegistry()
	a := newFakeConn()
	r.Bind(a, "room-1", "sid-a")

	conn, ok := r.UnbindSession("room-1", "sid-a")
	require.True(t, ok)
	assert.Equal(t, a, conn)

	_, ok = r.UnbindSession("room-1", "sid-a")
	assert.False(t, ok)
}

func TestConnRegistry_UnbindRoom(t *testing.T) {
	r := NewConnRegistry()
	a, b := newFakeConn(), newFakeConn()
	r.Bind(a, "room-1", "sid-a")
	r.Bind(b, "room-1", "sid-b")

	entries := r.UnbindRoom("room-1")
	assert.Len(t, entries, 2)
	assert.Empty(t, r.ConnsInRoom("room-1"))
}
