package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tracker/internal/store"
)

// Redis keeps the list as one JSON value so several store processes share it.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ ListCache = (*Redis)(nil)

// NewRedis connects to rawURL (redis:// or rediss://) and pings it.
func NewRedis(ctx context.Context, rawURL string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Redis{client: client, key: ListKey, ttl: ttl}, nil
}

func (r *Redis) GetList(ctx context.Context) ([]store.Record, bool, error) {
	cached, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var recs []store.Record
	if err := json.Unmarshal(cached, &recs); err != nil {
		return nil, false, fmt.Errorf("decode cached list: %w", err)
	}
	return recs, true, nil
}

func (r *Redis) SetList(ctx context.Context, recs []store.Record) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
