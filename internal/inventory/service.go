// Package inventory is the stock ledger and order fulfillment engine. Every
// balance change goes through Ledger inside a single database transaction per
// operation.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"

	applog "larder/internal/log"
	"larder/internal/metrics"
	"larder/internal/notify"
)

// ReversalPolicy selects which composition an order reversal restores.
type ReversalPolicy string

const (
	// ReverseFromSnapshot replays the consumption recorded at placement.
	ReverseFromSnapshot ReversalPolicy = "snapshot"
	// ReverseFromCurrentRecipe re-resolves the recipe at reversal time.
	ReverseFromCurrentRecipe ReversalPolicy = "current"
)

const (
	defaultMaxRetries    = 3
	defaultNotifyTimeout = 2 * time.Second
)

// Notifier receives best-effort events after committed operations.
type Notifier interface {
	Notify(ctx context.Context, event notify.Event) error
}

// ReportCache is an optional read cache for StockReport. Load reports a
// generation on a miss; Store must drop rows whose generation was superseded
// by an Invalidate in between.
type ReportCache interface {
	Load(ctx context.Context) (rows []StockLevel, generation int64, ok bool)
	Store(ctx context.Context, generation int64, rows []StockLevel) error
	Invalidate(ctx context.Context) error
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	MaxRetries     int
	ReversalPolicy ReversalPolicy
	NotifyTimeout  time.Duration
	Notifier       Notifier
	Cache          ReportCache
}

// Service exposes the inventory operations to callers.
type Service struct {
	db     *gorm.DB
	ledger Ledger
	opts   Options
}

// NewService wires the engine over db.
func NewService(db *gorm.DB, opts Options) *Service {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.ReversalPolicy == "" {
		opts.ReversalPolicy = ReverseFromSnapshot
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard{}
	}

	return &Service{db: db, opts: opts}
}

// ParseReversalPolicy validates a configured policy name.
func ParseReversalPolicy(value string) (ReversalPolicy, error) {
	switch ReversalPolicy(value) {
	case "", ReverseFromSnapshot:
		return ReverseFromSnapshot, nil
	case ReverseFromCurrentRecipe:
		return ReverseFromCurrentRecipe, nil
	default:
		return "", invalidf("unknown reversal policy %q", value)
	}
}

// transact runs fn in one database transaction, retrying it when the ledger
// loses an optimistic version race.
func (s *Service) transact(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 100 * time.Millisecond

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := s.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrConcurrentUpdate) {
			metrics.LedgerConflicts.Inc()
			applog.Debug(ctx, "ledger conflict, retrying", "operation", op, "attempt", attempt)
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.opts.MaxRetries)), ctx))
}

// stockChanged runs after every committed balance mutation.
func (s *Service) stockChanged(ctx context.Context) {
	if s.opts.Cache == nil {
		return
	}
	// committed mutations invalidate even when the caller has gone away
	ctx = context.WithoutCancel(ctx)
	if err := s.opts.Cache.Invalidate(ctx); err != nil {
		applog.Warn(ctx, "stock report cache invalidation failed", "error", err)
	}
}

func (s *Service) publish(ctx context.Context, event notify.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
	defer cancel()

	if err := s.opts.Notifier.Notify(ctx, event); err != nil {
		metrics.NotificationFailures.Inc()
		applog.Warn(ctx, "event notification failed", "type", event.Type, "key", event.Key, "error", err)
	}
}

// Ping verifies the underlying database connection.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database connection pool.
func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
