package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis is a Cache backed by a redis server. Conn is shared with the event bus.
type Redis struct {
	Conn *redis.Client
}

// Connect dials addr and pings it.
func Connect(ctx context.Context, addr string) (*Redis, error) {
	conn := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Info().Str("addr", addr).Msg("connected to redis")
	return &Redis{Conn: conn}, nil
}

func (r *Redis) Close() error { return r.Conn.Close() }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.Conn.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := r.Conn.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Invalidate scans instead of KEYS so a large keyspace does not block the server.
func (r *Redis) Invalidate(ctx context.Context, docID string) error {
	iter := r.Conn.Scan(ctx, 0, docPattern(docID), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", docID, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.Conn.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	log.Debug().Str("documentId", docID).Int("keys", len(keys)).Msg("export cache invalidated")
	return nil
}
