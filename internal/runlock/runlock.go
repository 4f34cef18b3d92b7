// Package runlock prevents overlapping ingestion runs across replicas using
// a Redis SET NX lease. Without a Redis URL the lock degrades to a no-op so
// single-instance deployments need no extra infrastructure.
package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/venuz/ingest/internal/logger"
)

const (
	lockKey = "venuz:ingest:run-lock"

	// DefaultLease bounds how long a crashed run can block the next one.
	DefaultLease = 20 * time.Minute
)

// ErrHeld is returned when another run holds the lock.
var ErrHeld = fmt.Errorf("ingestion run already in progress")

// Lock is the run-exclusion surface the orchestrator trigger uses.
type Lock interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// RedisLock implements Lock over a Redis lease.
type RedisLock struct {
	client *redis.Client
	lease  time.Duration
	log    logger.Logger
}

// New connects to redisURL and verifies the connection. An empty URL returns
// a no-op lock.
func New(ctx context.Context, redisURL string, log logger.Logger) (Lock, error) {
	if redisURL == "" {
		log.Info("no redis url configured, run lock disabled")
		return NopLock{}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisLock{client: client, lease: DefaultLease, log: log}, nil
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *redis.Client, lease time.Duration, log logger.Logger) *RedisLock {
	return &RedisLock{client: client, lease: lease, log: log}
}

// Acquire takes the lease or returns ErrHeld. The returned release func is
// safe to call even after the lease expired.
func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	ok, err := l.client.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), l.lease).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}

	release := func() {
		if err := l.client.Del(context.Background(), lockKey).Err(); err != nil {
			l.log.Warn("failed to release run lock, lease will expire", logger.Error(err))
		}
	}
	return release, nil
}

// NopLock always grants the lock.
type NopLock struct{}

func (NopLock) Acquire(context.Context) (func(), error) {
	return func() {}, nil
}
