package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/cart"
	"github.com/fjod/go_shop/internal/config"
	"github.com/fjod/go_shop/internal/events"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	db      *mongo.Database
	closers []func(context.Context) error
}

type publisher interface {
	service.OrderPublisher
	Close() error
}

func newApp(ctx context.Context, opts *RootOptions, out io.Writer) (*app, error) {
	cfg := config.Load()
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log := logger.New(out, level)
	slog.SetDefault(log)

	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, err
	}
	log.Info("connected to MongoDB", "database", cfg.MongoDBName)

	a := &app{cfg: cfg, log: log, db: db}
	a.onClose(func(ctx context.Context) error {
		return db.Client().Disconnect(ctx)
	})
	return a, nil
}

func (a *app) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
}

// cartStore builds the snapshot store selected by STORE_BACKEND.
func (a *app) cartStore(ctx context.Context, carts repository.CartRepository) (cart.Store, error) {
	switch a.cfg.StoreBackend {
	case config.StoreMemory:
		a.log.Warn("cart snapshots are kept in memory and lost on restart")
		return cart.NewMemoryStore(), nil
	case config.StoreMongo:
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.cfg.StoreBackend)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.onClose(func(context.Context) error { return rdb.Close() })
	a.log.Info("connected to Redis", "addr", a.cfg.RedisAddr)

	snapshots := service.NewSnapshotStore(carts, cache.NewRedisCache(rdb), a.log)
	return cart.NewBreakerStore(snapshots, a.log), nil
}

func (a *app) publisher() publisher {
	if len(a.cfg.KafkaBrokers) == 0 {
		a.log.Info("no Kafka brokers configured, order events are not published")
		return events.NoopPublisher{Log: a.log}
	}
	p := events.NewKafkaPublisher(a.cfg.KafkaBrokers...)
	a.onClose(func(context.Context) error { return p.Close() })
	return p
}
