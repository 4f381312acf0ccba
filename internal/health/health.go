// Package health aggregates readiness checks over the service's backing
// stores. Each dependency implements Checker; the aggregate result drives
// the readiness endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// checkTimeout bounds each individual dependency probe.
const checkTimeout = 2 * time.Second

// Checker probes a single dependency.
type Checker interface {
	// Name identifies the dependency in status output.
	Name() string

	// Check returns nil when the dependency is reachable.
	Check(ctx context.Context) error
}

// Result is the outcome of one dependency probe.
type Result struct {
	Name  string
	Error error
}

// Healthy reports whether the probe succeeded.
func (r Result) Healthy() bool {
	return r.Error == nil
}

// Registry holds the configured checkers and runs them together.
type Registry struct {
	checkers []Checker
}

// NewRegistry creates a registry over the given checkers.
func NewRegistry(checkers ...Checker) *Registry {
	return &Registry{checkers: checkers}
}

// Check runs all checkers concurrently and returns their results in
// registration order.
func (r *Registry) Check(ctx context.Context) []Result {
	results := make([]Result, len(r.checkers))

	var wg sync.WaitGroup
	for i, checker := range r.checkers {
		wg.Add(1)
		go func(i int, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			results[i] = Result{Name: checker.Name(), Error: checker.Check(checkCtx)}
		}(i, checker)
	}
	wg.Wait()

	return results
}

// Ready reports whether every dependency probe succeeded.
func (r *Registry) Ready(ctx context.Context) bool {
	for _, result := range r.Check(ctx) {
		if !result.Healthy() {
			return false
		}
	}
	return true
}

// PostgresChecker probes the PostgreSQL connection pool.
type PostgresChecker struct {
	pool *pgxpool.Pool
}

// NewPostgresChecker creates a checker over the given pool.
func NewPostgresChecker(pool *pgxpool.Pool) *PostgresChecker {
	return &PostgresChecker{pool: pool}
}

// Name identifies the dependency.
func (c *PostgresChecker) Name() string { return "postgres" }

// Check pings the pool.
func (c *PostgresChecker) Check(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// RedisChecker probes the Redis connection.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a checker over the given client.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name identifies the dependency.
func (c *RedisChecker) Name() string { return "redis" }

// Check pings the server.
func (c *RedisChecker) Check(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
