package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process Store with clock-driven expiry. It backs tests and
// single-binary development runs; nothing here survives a restart.
type Memory struct {
	clock clockwork.Clock

	mu       sync.Mutex
	rooms    map[string]memEntry
	reserved map[string]memEntry
}

func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		clock:    clock,
		rooms:    make(map[string]memEntry),
		reserved: make(map[string]memEntry),
	}
}

// StartJanitor sweeps expired entries periodically until ctx is done. The
// sweep is idempotent; lazy expiry on access keeps correctness without it.
func (s *Memory) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := s.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				s.sweep()
			}
		}
	}()
}

func (s *Memory) sweep() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.rooms {
		if e.expired(now) {
			delete(s.rooms, id)
		}
	}
	for id, e := range s.reserved {
		if e.expired(now) {
			delete(s.reserved, id)
		}
	}
}

func (s *Memory) GetRoom(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rooms[id]
	if !ok || e.expired(s.clock.Now()) {
		delete(s.rooms, id)
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (s *Memory) SetRoom(_ context.Context, id string, data []byte, ttl time.Duration) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[id] = memEntry{data: cp, expiresAt: s.deadline(ttl)}
	return nil
}

func (s *Memory) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Memory) RefreshTTL(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rooms[id]
	if !ok || e.expired(s.clock.Now()) {
		return nil
	}
	e.expiresAt = s.deadline(ttl)
	s.rooms[id] = e
	return nil
}

func (s *Memory) Reserve(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved[id] = memEntry{expiresAt: s.deadline(ttl)}
	return nil
}

func (s *Memory) IsReserved(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.reserved[id]
	if !ok {
		return false, nil
	}
	if e.expired(s.clock.Now()) {
		delete(s.reserved, id)
		return false, nil
	}
	return true, nil
}

func (s *Memory) Ping(context.Context) error { return nil }

func (s *Memory) Close() error { return nil }

func (s *Memory) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(ttl)
}
