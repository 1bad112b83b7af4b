package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix     = "room:"
	reservedKeyPrefix = "reserved:"
)

type Redis struct {
	rdb *redis.Client
}

func NewRedis(addr, password string, db int) *Redis {
	return &Redis{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func roomKey(id string) string     { return roomKeyPrefix + id }
func reservedKey(id string) string { return reservedKeyPrefix + id }

func (s *Redis) GetRoom(ctx context.Context, id string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", id, err)
	}
	return data, nil
}

func (s *Redis) SetRoom(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, roomKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("set room %s: %w", id, err)
	}
	return nil
}

func (s *Redis) DeleteRoom(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, roomKey(id)).Err(); err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	return nil
}

func (s *Redis) RefreshTTL(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.rdb.Expire(ctx, roomKey(id), ttl).Err(); err != nil {
		return fmt.Errorf("refresh ttl %s: %w", id, err)
	}
	return nil
}

func (s *Redis) Reserve(ctx context.Context, id string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, reservedKey(id), 1, ttl).Err(); err != nil {
		return fmt.Errorf("reserve %s: %w", id, err)
	}
	return nil
}

func (s *Redis) IsReserved(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, reservedKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check reservation %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Redis) Close() error {
	return s.rdb.Close()
}
