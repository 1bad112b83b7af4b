// Package store is the durable room persistence layer: key-value records with
// per-key expiry, one serialized room per identifier plus valueless
// "identifier reserved" markers. No business logic lives here.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("room record not found")

// Store is the injected persistence abstraction. The redis backend is the
// production one; the in-memory backend serves tests and single-binary runs.
type Store interface {
	// GetRoom returns the serialized room record or ErrNotFound.
	GetRoom(ctx context.Context, id string) ([]byte, error)
	// SetRoom writes the record with the given expiry.
	SetRoom(ctx context.Context, id string, data []byte, ttl time.Duration) error
	// DeleteRoom removes the live record. Missing records are not an error.
	DeleteRoom(ctx context.Context, id string) error
	// RefreshTTL slides the record's expiry window. Missing records are not
	// an error: the caller already holds the loaded record.
	RefreshTTL(ctx context.Context, id string, ttl time.Duration) error

	// Reserve writes the valueless reservation marker for id.
	Reserve(ctx context.Context, id string, ttl time.Duration) error
	// IsReserved reports whether a reservation marker exists for id.
	IsReserved(ctx context.Context, id string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}
