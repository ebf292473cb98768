package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"larder/internal/cache"
	"larder/internal/config"
	"larder/internal/db"
	"larder/internal/db/mock"
	"larder/internal/inventory"
	applog "larder/internal/log"
	"larder/internal/notify"
	"larder/internal/server"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		return sigCh, func() { signal.Stop(sigCh) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	defer applog.Sync()

	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	var database *gorm.DB
	if cfg.Database.UseMock || cfg.Database.URL == "" {
		applog.Info(ctx, "using seeded in-memory database")
		database, err = newMockDatabaseFunc(ctx)
	} else {
		database, err = configureDatabase(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	policy, err := inventory.ParseReversalPolicy(cfg.Ledger.ReversalPolicy)
	if err != nil {
		applog.Error(ctx, "invalid ledger configuration", "error", err)
		return 1
	}

	notifier, closeNotifier, err := buildNotifier(ctx, cfg.Kafka)
	if err != nil {
		applog.Error(ctx, "failed to configure notifier", "error", err)
		return 1
	}
	defer closeNotifier()

	opts := inventory.Options{
		MaxRetries:     cfg.Ledger.RetryLimit(),
		ReversalPolicy: policy,
		NotifyTimeout:  cfg.Ledger.NotifyTimeout,
		Notifier:       notifier,
	}
	if cfg.Redis.Addr != "" {
		client := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		opts.Cache = cache.NewReportCache[inventory.StockLevel](client, cfg.Redis.TTL)
		applog.Info(ctx, "stock report cache enabled", "addr", cfg.Redis.Addr)
	}

	srv, err := newServerFunc(server.Config{
		Addr:          cfg.Server.Addr,
		Service:       inventory.NewService(database, opts),
		ExposeMetrics: cfg.Server.MetricsEnabled,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr)
		errCh <- srv.Start()
	}()

	sigCh, stop := subscribeShutdownSig()
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-sigCh:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down http server")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server encountered an error", "error", err)
		return 1
	}
	return 0
}

// buildNotifier publishes order events to Kafka when brokers are configured
// and falls back to the structured log otherwise.
func buildNotifier(ctx context.Context, cfg config.KafkaConfig) (inventory.Notifier, func(), error) {
	if len(cfg.Brokers) == 0 {
		applog.Info(ctx, "kafka brokers not configured, order events are logged only")
		return notify.LogSink{}, func() {}, nil
	}
	sink, err := notify.NewKafkaSink(notify.KafkaConfig{Brokers: cfg.Brokers, Topic: cfg.InvoiceTopic})
	if err != nil {
		return nil, nil, err
	}
	return sink, func() {
		if err := sink.Close(); err != nil {
			applog.Warn(ctx, "failed to close kafka sink", "error", err)
		}
	}, nil
}
