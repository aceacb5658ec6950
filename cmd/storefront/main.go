package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uwenvati/omotailor/internal/cart"
	"github.com/uwenvati/omotailor/internal/catalog"
	"github.com/uwenvati/omotailor/internal/checkout"
	"github.com/uwenvati/omotailor/internal/config"
	"github.com/uwenvati/omotailor/internal/events"
	h "github.com/uwenvati/omotailor/internal/http"
	"github.com/uwenvati/omotailor/internal/logger"
	"github.com/uwenvati/omotailor/internal/orders"
	"github.com/uwenvati/omotailor/internal/session"
	"github.com/uwenvati/omotailor/internal/storage"
	"github.com/uwenvati/omotailor/internal/waitlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	if err := run(cfg, zl); err != nil {
		zl.Fatal("storefront stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx := context.Background()
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				zl.Warn("failed to close resource", zap.Error(err))
			}
		}
	}()

	st, closer, err := openStorage(ctx, cfg, zl)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	repo, closer, err := openOrders(ctx, cfg, st, zl)
	if err != nil {
		return err
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(zl, cfg.KafkaBrokers...)
		closers = append(closers, kp)
		publisher = kp
		zl.Info("publishing order events to kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	promos, err := cfg.Promos()
	if err != nil {
		return fmt.Errorf("promo table: %w", err)
	}
	products, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	sessions := session.NewRegistry(st, cfg.SessionIdleTTL, zl, cart.WithPromoTable(promos), cart.WithPolicy(cfg.Policy))
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx, cfg.SessionSweepInterval)

	service := checkout.NewService(repo, publisher, zl)

	router := h.NewRouter(h.RouterConfig{
		Products:       h.NewProductHandler(products, cfg.RequestTimeout, zl),
		Cart:           h.NewCartHandler(sessions, products, cfg.Policy, cfg.RequestTimeout, zl),
		Checkout:       h.NewCheckoutHandler(sessions, service, cfg.RequestTimeout, zl),
		Waitlist:       h.NewWaitlistHandler(waitlist.NewList(st, zl), cfg.RequestTimeout, zl),
		Logger:         zl,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zl.Info("storefront listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	zl.Info("shutting down storefront")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	zl.Info("storefront stopped")
	return nil
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func openStorage(ctx context.Context, cfg *config.Config, zl *zap.Logger) (storage.Storage, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		client, err := storage.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		zl.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		return storage.NewRedis(client, "omotailor:", cfg.RedisTTL), client, nil

	case config.StorageMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		disconnect := closeFunc(func() error { return db.Client().Disconnect(context.Background()) })
		st := storage.NewMongo(db, "kv")
		if err := st.CreateIndexes(ctx, cfg.MongoTTL); err != nil {
			disconnect.Close()
			return nil, nil, err
		}
		zl.Info("connected to mongodb", zap.String("database", cfg.MongoDBName))
		return st, disconnect, nil

	default:
		zl.Warn("using in-memory storage; carts and orders are lost on restart")
		return storage.NewMemory(), nil, nil
	}
}

func openOrders(ctx context.Context, cfg *config.Config, st storage.Storage, zl *zap.Logger) (orders.Repository, io.Closer, error) {
	if cfg.OrdersBackend != config.OrdersPostgres {
		return orders.NewKVRepository(st), nil, nil
	}

	repo, err := orders.NewPostgresRepository(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := repo.RunMigrations(); err != nil {
		repo.Close()
		return nil, nil, err
	}
	zl.Info("connected to postgres", zap.String("host", cfg.Postgres.Host))
	return repo, repo, nil
}
