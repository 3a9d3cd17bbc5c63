package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/partscart/internal/cart"
	"github.com/nikolayk812/partscart/internal/config"
	"github.com/nikolayk812/partscart/internal/guest"
	"github.com/nikolayk812/partscart/internal/httpapi"
	"github.com/nikolayk812/partscart/internal/identity"
	"github.com/nikolayk812/partscart/internal/port"
	"github.com/nikolayk812/partscart/internal/repository"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := run(log); err != nil {
		log.WithError(err).Fatal("cartd stopped")
	}
}

func run(log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	log.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("pgxpool.New: %w", err)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = pool.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("pool.Ping: %w", err)
	}

	guestStorage, closeGuests, err := newGuestStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeGuests()

	policy, err := cart.PolicyByName(cfg.ReconcilePolicy)
	if err != nil {
		return fmt.Errorf("cart.PolicyByName: %w", err)
	}

	manager := cart.NewManager(
		repository.NewCart(pool),
		repository.NewGuardedCatalog(repository.NewCatalog(pool), log),
		identity.NewJWTProvider([]byte(cfg.JWTSecret)),
		guestStorage,
		log,
		cart.Options{
			Timeout:               cfg.OpTimeout,
			Currency:              cfg.CurrencyUnit(),
			FreeShippingThreshold: cfg.FreeShipping(),
			Reconcile:             policy,
		},
	)
	unsubscribe := manager.Subscribe(func() {
		log.Debug("cart changed")
	})
	defer unsubscribe()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewServer(manager, log, httpapi.Options{GuestTTL: cfg.GuestTTL, SecureCookie: cfg.SecureCookie}).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("cartd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("srv.Shutdown: %w", err)
	}

	return nil
}

func newGuestStorage(ctx context.Context, cfg config.Config, log *logrus.Logger) (port.GuestStorage, func(), error) {
	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR is empty, guest carts are kept in memory")
		return guest.NewMemoryStorage(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("rdb.Ping: %w", err)
	}

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			log.WithError(err).Warn("rdb.Close failed")
		}
	}

	return guest.NewRedisStorage(rdb, cfg.GuestTTL), closeFn, nil
}
