package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPersister keeps each cart as a JSON blob under cart-storage:<key>.
// ttl only garbage-collects abandoned slots; expiry of a cart is decided
// by its activity time, not by Redis.
type RedisPersister struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPersister(client *redis.Client, ttl time.Duration) *RedisPersister {
	return &RedisPersister{client: client, ttl: ttl}
}

func (p *RedisPersister) Load(ctx context.Context, key string) (State, error) {
	data, err := p.client.Get(ctx, storageKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrStateNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("redis get failed: %w", err)
	}

	state, err := Decode(data)
	if err != nil {
		return State{}, fmt.Errorf("decode cart state failed: %w", err)
	}
	return state, nil
}

func (p *RedisPersister) Save(ctx context.Context, key string, state State) error {
	data, err := Encode(state)
	if err != nil {
		return fmt.Errorf("encode cart state failed: %w", err)
	}
	if err := p.client.Set(ctx, storageKey(key), data, p.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func storageKey(key string) string {
	return fmt.Sprintf("%s:%s", StorageKeyPrefix, key)
}
