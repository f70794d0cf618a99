// Package cache connects to the Redis instance holding browser sessions.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options selects the Redis server and database.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New creates a Redis client and checks that the server answers.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// Checker reports Redis reachability to health probes.
type Checker struct {
	client *redis.Client
}

// NewChecker wraps client.
func NewChecker(client *redis.Client) Checker {
	return Checker{client: client}
}

// Ping issues a PING.
func (c Checker) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("platform/cache: no client")
	}
	return c.client.Ping(ctx).Err()
}
