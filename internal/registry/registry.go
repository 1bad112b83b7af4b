// Package registry allocates collision-free room identifiers and moves room
// records through the durable store. It is the sole writer of room records;
// everything above it works on in-memory copies.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/vividbreeze/planning-poker/internal/core"
	"github.com/vividbreeze/planning-poker/internal/domain"
	"github.com/vividbreeze/planning-poker/internal/store"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists means the requested identifier is live or reserved.
	// Callers resolve it by generating a fresh identifier instead.
	ErrRoomExists = errors.New("room id already live or reserved")
)

const createRetries = 10

type Registry struct {
	store          store.Store
	clock          clockwork.Clock
	roomTTL        time.Duration
	reservationTTL time.Duration
}

func New(s store.Store, clock clockwork.Clock, roomTTL, reservationTTL time.Duration) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		store:          s,
		clock:          clock,
		roomTTL:        roomTTL,
		reservationTTL: reservationTTL,
	}
}

// CreateRoom allocates a fresh identifier and creates the room with the given
// session as admin. Retries generation until the store confirms the id is
// neither live nor reserved.
func (r *Registry) CreateRoom(ctx context.Context, adminSessionID core.SessionID) (*domain.Room, error) {
	for i := 0; i < createRetries; i++ {
		id, err := newRoomID()
		if err != nil {
			return nil, err
		}
		room, err := r.CreateRoomWithID(ctx, core.RoomID(id), adminSessionID)
		if errors.Is(err, ErrRoomExists) {
			log.Debug().Str("module", "registry").Str("room_id", id).Msg("id collision, retrying")
			continue
		}
		return room, err
	}
	return nil, fmt.Errorf("create room: exhausted %d id attempts", createRetries)
}

// CreateRoomWithID creates a room under the exact identifier a participant
// followed a link to. Fails with ErrRoomExists when the identifier is live or
// still reserved after a deletion.
func (r *Registry) CreateRoomWithID(ctx context.Context, id core.RoomID, adminSessionID core.SessionID) (*domain.Room, error) {
	reserved, err := r.store.IsReserved(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if reserved {
		return nil, ErrRoomExists
	}
	if _, err := r.store.GetRoom(ctx, string(id)); err == nil {
		return nil, ErrRoomExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	token, err := NewAdminToken()
	if err != nil {
		return nil, err
	}
	room := domain.NewRoom(id, token, adminSessionID, r.clock.Now())
	if err := r.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	log.Info().Str("module", "registry").Str("room_id", string(id)).Msg("room created")
	return room, nil
}

// GetRoom loads a room and slides its expiry window: rooms are kept alive by
// access, not by a fixed calendar date.
func (r *Registry) GetRoom(ctx context.Context, id core.RoomID) (*domain.Room, error) {
	data, err := r.store.GetRoom(ctx, string(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", id, err)
	}
	if room.Participants == nil {
		room.Participants = make(map[core.SessionID]*domain.Participant)
	}
	if room.Votes == nil {
		room.Votes = make(map[core.SessionID]float64)
	}

	if err := r.store.RefreshTTL(ctx, string(id), r.roomTTL); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Registry) SaveRoom(ctx context.Context, room *domain.Room) error {
	room.LastAccessedAt = r.clock.Now()
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}
	return r.store.SetRoom(ctx, string(room.ID), data, r.roomTTL)
}

// DeleteRoom removes the live record and converts the identifier into a
// reservation. The reservation is written first so the window between the two
// operations fails closed: the id is never briefly reusable.
func (r *Registry) DeleteRoom(ctx context.Context, id core.RoomID) error {
	if err := r.store.Reserve(ctx, string(id), r.reservationTTL); err != nil {
		return err
	}
	if err := r.store.DeleteRoom(ctx, string(id)); err != nil {
		return err
	}
	log.Info().Str("module", "registry").Str("room_id", string(id)).Msg("room deleted, id reserved")
	return nil
}

// RoomHasAdmin reports whether some participant is simultaneously
// admin-flagged and connected.
func (r *Registry) RoomHasAdmin(ctx context.Context, id core.RoomID) (bool, error) {
	room, err := r.GetRoom(ctx, id)
	if err != nil {
		return false, err
	}
	return room.HasAdmin(), nil
}
