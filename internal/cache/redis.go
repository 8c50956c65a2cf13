// Package cache publishes committed actions to a Redis list consumed by the historian.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jengryg/doppelkopf-srv-sub002/internal/engine"
	"github.com/redis/go-redis/v9"
)

// Connect creates a client for addr and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionQueue implements engine.ActionLog on top of a Redis list.
type ActionQueue struct {
	rdb   *redis.Client
	queue string
}

func NewActionQueue(rdb *redis.Client, queue string) *ActionQueue {
	return &ActionQueue{rdb: rdb, queue: queue}
}

// Publish serializes rec to JSON and appends it to the queue.
func (q *ActionQueue) Publish(ctx context.Context, rec engine.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.queue, err)
	}
	return nil
}
