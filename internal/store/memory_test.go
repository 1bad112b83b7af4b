package store

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetDelete(t *testing.T) {
	s := NewMemory(nil)
	ctx := context.Background()

	_, err := s.GetRoom(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetRoom(ctx, "abc", []byte(`{"roomId":"abc"}`), 0))
	data, err := s.GetRoom(ctx, "abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"roomId":"abc"}`, string(data))

	require.NoError(t, s.DeleteRoom(ctx, "abc"))
	_, err = s.GetRoom(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemory(clock)
	ctx := context.Background()

	require.NoError(t, s.SetRoom(ctx, "abc", []byte("x"), time.Hour))

	clock.Advance(59 * time.Minute)
	_, err := s.GetRoom(ctx, "abc")
	assert.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = s.GetRoom(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_RefreshTTLSlidesWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemory(clock)
	ctx := context.Background()

	require.NoError(t, s.SetRoom(ctx, "abc", []byte("x"), time.Hour))

	clock.Advance(50 * time.Minute)
	require.NoError(t, s.RefreshTTL(ctx, "abc", time.Hour))

	clock.Advance(50 * time.Minute)
	_, err := s.GetRoom(ctx, "abc")
	assert.NoError(t, err, "refresh must have restarted the window")
}

func TestMemory_Reservations(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemory(clock)
	ctx := context.Background()

	ok, err := s.IsReserved(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Reserve(ctx, "abc", 48*time.Hour))

	ok, _ = s.IsReserved(ctx, "abc")
	assert.True(t, ok)

	clock.Advance(48*time.Hour + time.Second)
	ok, _ = s.IsReserved(ctx, "abc")
	assert.False(t, ok, "reservation expires after its ttl")
}

func TestMemory_SweepIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemory(clock)
	ctx := context.Background()

	require.NoError(t, s.SetRoom(ctx, "abc", []byte("x"), time.Minute))
	clock.Advance(2 * time.Minute)

	s.sweep()
	s.sweep()

	_, err := s.GetRoom(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}
