package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vividbreeze/planning-poker/internal/domain"
	"github.com/vividbreeze/planning-poker/internal/store"
)

const (
	testRoomTTL        = 720 * time.Hour
	testReservationTTL = 48 * time.Hour
)

func newTestRegistry(t *testing.T) (*Registry, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	return New(store.NewMemory(clock), clock, testRoomTTL, testReservationTTL), clock
}

func TestNewRoomID_AlphabetAndLength(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := newRoomID()
		require.NoError(t, err)
		assert.Len(t, id, 12)
		for _, c := range id {
			assert.True(t, strings.ContainsRune(roomIDAlphabet, c), "unexpected symbol %q in %s", c, id)
		}
	}
}

func TestRoomIDAlphabet_ExcludesAmbiguous(t *testing.T) {
	assert.Len(t, roomIDAlphabet, 32)
	for _, c := range "lo01" {
		assert.NotContains(t, roomIDAlphabet, string(c))
	}
}

func TestNewAdminToken(t *testing.T) {
	a, err := NewAdminToken()
	require.NoError(t, err)
	b, err := NewAdminToken()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	room, err := r.CreateRoom(ctx, "admin-sid")
	require.NoError(t, err)
	assert.NotEmpty(t, room.AdminToken)
	assert.Equal(t, "admin-sid", string(room.AdminSessionID))
	assert.Equal(t, domain.DefaultEstimateOptions, room.Settings.EstimateOptions)

	got, err := r.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
	assert.Equal(t, room.AdminToken, got.AdminToken)
}

func TestRegistry_CreateRoomWithID_RejectsLiveID(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	room, err := r.CreateRoom(ctx, "admin-sid")
	require.NoError(t, err)

	_, err = r.CreateRoomWithID(ctx, room.ID, "other-sid")
	assert.ErrorIs(t, err, ErrRoomExists)
}

func TestRegistry_DeleteReservesID(t *testing.T) {
	r, clock := newTestRegistry(t)
	ctx := context.Background()

	room, err := r.CreateRoom(ctx, "admin-sid")
	require.NoError(t, err)

	require.NoError(t, r.DeleteRoom(ctx, room.ID))

	_, err = r.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// The identifier stays unusable, even for an explicit create request.
	_, err = r.CreateRoomWithID(ctx, room.ID, "new-sid")
	assert.ErrorIs(t, err, ErrRoomExists)

	// After the reservation window the id is free again.
	clock.Advance(testReservationTTL + time.Minute)
	_, err = r.CreateRoomWithID(ctx, room.ID, "new-sid")
	assert.NoError(t, err)
}

func TestRegistry_GetRefreshesTTL(t *testing.T) {
	r, clock := newTestRegistry(t)
	ctx := context.Background()

	room, err := r.CreateRoom(ctx, "admin-sid")
	require.NoError(t, err)

	// Keep touching the room just inside the window; it must stay alive far
	// past the original fixed deadline.
	for i := 0; i < 3; i++ {
		clock.Advance(testRoomTTL - time.Hour)
		_, err = r.GetRoom(ctx, room.ID)
		require.NoError(t, err, "iteration %d", i)
	}

	// Untouched past the window, the record expires.
	clock.Advance(testRoomTTL + time.Hour)
	_, err = r.GetRoom(ctx, room.ID)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistry_RoomHasAdmin(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	room, err := r.CreateRoom(ctx, "admin-sid")
	require.NoError(t, err)

	has, err := r.RoomHasAdmin(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, has, "no participant rows yet")

	room.Participants["admin-sid"] = &domain.Participant{
		SessionID: "admin-sid", Name: "Alice", IsAdmin: true, IsConnected: true,
	}
	require.NoError(t, r.SaveRoom(ctx, room))

	has, err = r.RoomHasAdmin(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, has)

	room.Participants["admin-sid"].IsConnected = false
	require.NoError(t, r.SaveRoom(ctx, room))

	has, err = r.RoomHasAdmin(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, has, "disconnected admin means adminless")
}

func TestRegistry_SaveRoundTripsParticipants(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	room, err := r.CreateRoom(ctx, "admin-sid")
	require.NoError(t, err)
	room.Participants["admin-sid"] = &domain.Participant{
		SessionID: "admin-sid", Name: "Alice", IsAdmin: true, IsConnected: true,
	}
	room.CastVote("admin-sid", 5)
	require.NoError(t, r.SaveRoom(ctx, room))

	got, err := r.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Contains(t, got.Participants, room.AdminSessionID)
	assert.True(t, got.Participants["admin-sid"].IsConnected)
	assert.Nil(t, got.Participants["admin-sid"].Conn)
	assert.Equal(t, 5.0, got.Votes["admin-sid"])
}
