// Package cache holds the redis-backed read cache for the stock report.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	applog "larder/internal/log"
)

const (
	StockReportKey  = "inventory:stock-report"
	generationKey   = StockReportKey + ":generation"
	DefaultTTL      = 5 * time.Minute
	operationBudget = 500 * time.Millisecond
)

// RedisConfig mirrors the connection settings read from the environment.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient opens a pooled client. It does not ping; the first cache
// call surfaces connectivity problems as a miss.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   1,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// storeIfCurrent writes the report only while the generation still matches
// the one read before the report was built.
var storeIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[2]) or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// ReportCache stores one JSON document per report. T is the row type.
//
// Every Invalidate bumps a generation counter. Store only writes when the
// generation is unchanged since the Load that missed, so a report built from
// rows read before a mutation never replaces the invalidation.
type ReportCache[T any] struct {
	client redis.Cmdable
	key    string
	genKey string
	ttl    time.Duration
}

// NewReportCache returns a cache under StockReportKey. A non-positive ttl uses DefaultTTL.
func NewReportCache[T any](client redis.Cmdable, ttl time.Duration) *ReportCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReportCache[T]{client: client, key: StockReportKey, genKey: generationKey, ttl: ttl}
}

// Load returns the cached rows. On a miss it returns the generation to hand
// back to Store. Any redis failure is reported as a miss with a negative
// generation, which Store ignores.
func (c *ReportCache[T]) Load(ctx context.Context) ([]T, int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, operationBudget)
	defer cancel()

	raw, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var rows []T
		if err := json.Unmarshal(raw, &rows); err != nil {
			applog.Debug(ctx, "stock report cache entry unreadable", "key", c.key, "error", err)
			break
		}
		return rows, 0, true
	case !errors.Is(err, redis.Nil):
		applog.Debug(ctx, "stock report cache read failed", "key", c.key, "error", err)
		return nil, -1, false
	}

	generation, err := c.client.Get(ctx, c.genKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, 0, false
	case err != nil:
		applog.Debug(ctx, "stock report generation read failed", "key", c.genKey, "error", err)
		return nil, -1, false
	}
	return nil, generation, false
}

// Store saves rows for the configured ttl unless the report was invalidated
// after the Load that returned generation.
func (c *ReportCache[T]) Store(ctx context.Context, generation int64, rows []T) error {
	if generation < 0 {
		return nil
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode stock report: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, operationBudget)
	defer cancel()
	stored, err := storeIfCurrent.Run(ctx, c.client,
		[]string{c.key, c.genKey},
		generation, raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if stored == 0 {
		applog.Debug(ctx, "stock report superseded before caching", "generation", generation)
	}
	return nil
}

// Invalidate drops the cached report and advances the generation.
func (c *ReportCache[T]) Invalidate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, operationBudget)
	defer cancel()
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	return err
}
