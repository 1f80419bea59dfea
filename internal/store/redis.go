package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/eldtechnologies/roomboard/internal/session"
)

// RedisStore persists visitor sessions in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// sessionKey returns the hash key holding a session's scalar fields.
func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// sessionRoomsKey returns the set key holding a session's unlocked rooms.
func sessionRoomsKey(id string) string {
	return fmt.Sprintf("session:%s:rooms", id)
}

// LoadSession reads a session; it returns nil, nil when the session is unknown or expired.
func (s *RedisStore) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	pipe := s.client.Pipeline()
	fieldsCmd := pipe.HGetAll(ctx, sessionKey(id))
	roomsCmd := pipe.SMembers(ctx, sessionRoomsKey(id))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	fields := fieldsCmd.Val()
	if len(fields) == 0 {
		return nil, nil
	}

	return session.Restore(id, fields["admin"] == "1", roomsCmd.Val()), nil
}

// SaveSession writes the admin flag, adds the unlocked rooms to the stored
// set and refreshes both TTLs. Rooms are never removed here.
func (s *RedisStore) SaveSession(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	key := sessionKey(sess.ID)
	roomsKey := sessionRoomsKey(sess.ID)
	admin := "0"
	if sess.IsAdmin() {
		admin = "1"
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "admin", admin, "updated_at", time.Now().Unix())
		pipe.Expire(ctx, key, ttl)
		if rooms := sess.Rooms(); len(rooms) > 0 {
			pipe.SAdd(ctx, roomsKey, lo.ToAnySlice(rooms)...)
		}
		pipe.Expire(ctx, roomsKey, ttl)
		return nil
	})
	return err
}

// DeleteSession removes a session.
func (s *RedisStore) DeleteSession(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id), sessionRoomsKey(id)).Err()
}
