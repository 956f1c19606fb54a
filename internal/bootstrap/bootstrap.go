// Package bootstrap wires configuration into a ready ledger: logger, storage
// adapter, notifier and store.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tix-voucher/internal/config"
	"tix-voucher/internal/logger"
	"tix-voucher/internal/notify"
	"tix-voucher/internal/storage"
	"tix-voucher/internal/storage/db"
	"tix-voucher/internal/storage/file"
	redisstore "tix-voucher/internal/storage/redis"
	"tix-voucher/internal/tickets/ledger"
)

// Drivers lists the accepted STORAGE_DRIVER values.
var Drivers = []string{"memory", "file", "redis", "sqlite", "postgres"}

func noopClose() error { return nil }

// NewLogger builds the process logger from cfg. terminal may be nil.
func NewLogger(cfg config.LogConfig, filePrefix string, terminal io.Writer) (*logger.Logger, error) {
	return logger.NewLogger(logger.Options{
		Dir:        cfg.Dir,
		FilePrefix: filePrefix,
		Level:      logger.ParseLevel(cfg.Level),
		Color:      cfg.Color,
		Terminal:   terminal,
	})
}

// OpenAdapter connects the adapter named by driver. The returned func releases it.
func OpenAdapter(ctx context.Context, driver string, cfg config.StorageConfig, log *logger.Logger) (storage.Adapter, func() error, error) {
	switch driver {
	case "memory":
		log.Warn("STORAGE", "Using in-memory storage; data is lost on exit")
		return storage.NewMemory(), noopClose, nil

	case "file":
		store, err := file.New(cfg.Path, cfg.KeyPrefix)
		if err != nil {
			return nil, nil, err
		}
		log.Info("STORAGE", fmt.Sprintf("Using file storage in %s", cfg.Path))
		return store, noopClose, nil

	case "redis":
		client, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("STORAGE", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.RedisAddr, cfg.RedisDB))
		return redisstore.NewRedis(client, cfg.KeyPrefix, log), client.Close, nil

	case "sqlite", "postgres":
		store, err := db.Open(ctx, driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info("STORAGE", fmt.Sprintf("✅ %s connection successful", driver))
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q (want one of %v)", driver, Drivers)
	}
}

// Runtime is everything a command needs to operate on the ledger.
type Runtime struct {
	Config   *config.Config
	Logger   *logger.Logger
	Notifier *notify.Notifier
	Adapter  storage.Adapter
	Ledger   *ledger.Store

	closeAdapter func() error
}

// Open connects the configured adapter and loads the ledger from it.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	adapter, closeAdapter, err := OpenAdapter(ctx, cfg.Storage.Driver, cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	notifier := notify.New(cfg.Notify.DismissAfter)
	store, err := ledger.Open(ctx, adapter,
		ledger.WithLimits(ledger.Limits{Min: cfg.Ledger.MinBatch, Max: cfg.Ledger.MaxBatch}),
		ledger.WithNotifier(notifier),
		ledger.WithLogger(log),
	)
	if err != nil {
		closeAdapter()
		return nil, err
	}

	return &Runtime{
		Config:       cfg,
		Logger:       log,
		Notifier:     notifier,
		Adapter:      adapter,
		Ledger:       store,
		closeAdapter: closeAdapter,
	}, nil
}

// Close stops the notifier and releases the adapter.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	r.Notifier.Close()
	if err := r.closeAdapter(); err != nil && !errors.Is(err, storage.ErrClosed) {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
