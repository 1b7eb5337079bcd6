package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/jonathan/interview-coach/internal/types"
)

// NewRedisPool dials url lazily; connections idle for over a minute are
// pinged before reuse.
func NewRedisPool(url string, maxIdle int) *redis.Pool {
	if maxIdle <= 0 {
		maxIdle = 8
	}
	return &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, url)
		},
		TestOnBorrow: func(c redis.Conn, lastUsed time.Time) error {
			if time.Since(lastUsed) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// RedisStore keeps each session as one JSON value under history:<id>.
// Replace uses WATCH/MULTI/EXEC so a concurrent writer aborts the transaction.
type RedisStore struct {
	pool *redis.Pool
	ttl  time.Duration
}

// NewRedisStore wraps pool. ttl <= 0 uses DefaultTTL.
func NewRedisStore(pool *redis.Pool, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{pool: pool, ttl: ttl}
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Do("PING"); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *RedisStore) Close() error {
	return r.pool.Close()
}

// Create implements Store with SET NX.
func (r *RedisStore) Create(ctx context.Context, s *types.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	_, err = redis.String(conn.Do("SET", Key(s.ID), payload, "EX", r.ttlSeconds(), "NX"))
	if errors.Is(err, redis.ErrNil) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get implements Store.
func (r *RedisStore) Get(ctx context.Context, id string) (*types.Session, error) {
	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("GET", Key(id)))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return decodeSession(data)
}

// Replace implements Store.
func (r *RedisStore) Replace(ctx context.Context, s *types.Session, expectedVersion int64) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	conn, err := r.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get redis connection: %w", err)
	}
	defer conn.Close()

	key := Key(s.ID)
	if _, err := conn.Do("WATCH", key); err != nil {
		return fmt.Errorf("failed to watch session: %w", err)
	}

	data, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		_, _ = conn.Do("UNWATCH")
		if errors.Is(err, redis.ErrNil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read session: %w", err)
	}
	current, err := decodeSession(data)
	if err != nil {
		_, _ = conn.Do("UNWATCH")
		return err
	}
	if current.Version != expectedVersion {
		_, _ = conn.Do("UNWATCH")
		return ErrVersionConflict
	}

	if err := conn.Send("MULTI"); err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := conn.Send("SET", key, payload, "EX", r.ttlSeconds()); err != nil {
		return fmt.Errorf("failed to queue session write: %w", err)
	}
	reply, err := conn.Do("EXEC")
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if reply == nil {
		// EXEC returns nil when the watched key changed
		return ErrVersionConflict
	}
	return nil
}

func (r *RedisStore) ttlSeconds() int64 {
	return int64(r.ttl / time.Second)
}

func decodeSession(data []byte) (*types.Session, error) {
	var s types.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}
