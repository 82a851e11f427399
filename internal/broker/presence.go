package broker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-redis/redis/v8"
)

// Presence counts connected sockets per event.
type Presence interface {
	Join(ctx context.Context, eventCode string) (int64, error)
	Leave(ctx context.Context, eventCode string) (int64, error)
	Count(ctx context.Context, eventCode string) (int64, error)
}

func presenceKey(eventCode string) string {
	return "presence:" + strings.ToUpper(eventCode)
}

type MemoryPresence struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{counts: make(map[string]int64)}
}

func (p *MemoryPresence) Join(_ context.Context, eventCode string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := presenceKey(eventCode)
	p.counts[key]++
	return p.counts[key], nil
}

func (p *MemoryPresence) Leave(_ context.Context, eventCode string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := presenceKey(eventCode)
	if p.counts[key] <= 1 {
		delete(p.counts, key)
		return 0, nil
	}
	p.counts[key]--
	return p.counts[key], nil
}

func (p *MemoryPresence) Count(_ context.Context, eventCode string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[presenceKey(eventCode)], nil
}

type RedisPresence struct {
	client *redis.Client
}

func NewRedisPresence(ctx context.Context, addr, password string) (*RedisPresence, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisPresence{client: client}, nil
}

func (p *RedisPresence) Join(ctx context.Context, eventCode string) (int64, error) {
	return p.client.Incr(ctx, presenceKey(eventCode)).Result()
}

func (p *RedisPresence) Leave(ctx context.Context, eventCode string) (int64, error) {
	count, err := p.client.Decr(ctx, presenceKey(eventCode)).Result()
	if err != nil {
		return 0, err
	}
	if count <= 0 {
		if err := p.client.Del(ctx, presenceKey(eventCode)).Err(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return count, nil
}

func (p *RedisPresence) Count(ctx context.Context, eventCode string) (int64, error) {
	count, err := p.client.Get(ctx, presenceKey(eventCode)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

func (p *RedisPresence) Close() error {
	return p.client.Close()
}
