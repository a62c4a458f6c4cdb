package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/servimarket/session-service/internal/api"
	"github.com/servimarket/session-service/internal/api/handler"
	"github.com/servimarket/session-service/internal/core/ports"
	"github.com/servimarket/session-service/internal/core/service"
	"github.com/servimarket/session-service/internal/infrastructure/db/mongo"
	"github.com/servimarket/session-service/internal/infrastructure/db/redis"
	"github.com/servimarket/session-service/internal/infrastructure/memory"
	"github.com/servimarket/session-service/internal/infrastructure/queue"
	"github.com/servimarket/session-service/internal/pkg/config"
	"github.com/servimarket/session-service/pkg/logger"
)

const serviceName = "session-service"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet; fall back to a plain JSON one.
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	readiness := map[string]handler.Pinger{}

	catalog, closeCatalog, err := openCatalog(ctx, cfg, log, readiness)
	if err != nil {
		return err
	}
	defer closeCatalog()

	slot, closeSlot, err := openSlot(ctx, cfg, readiness)
	if err != nil {
		return err
	}
	defer closeSlot()

	// The queue outlives request contexts; it stops once the server is down.
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	q := queue.New(cfg.Session.QueueBuffer, logger.Component("queue"))
	q.Start(queueCtx)

	store := service.NewSessionStore(
		catalog,
		slot,
		q,
		service.NewCredentialVerifier(cfg.Session.DemoPassword, cfg.Session.BcryptCost),
		service.SessionOptions{Delay: cfg.Session.Delay},
		logger.Component("session"),
	)

	if identity := store.RestoreSession(ctx); identity != nil {
		log.Info().Str("email", identity.Email).Str("role", identity.Role.String()).Msg("session restored")
	}

	e := api.NewRouter(api.Deps{
		Session:   store,
		Tokens:    service.NewJWTIssuer(cfg.JWTSecret, cfg.Session.TokenTTL),
		Catalog:   catalog,
		JWTSecret: cfg.JWTSecret,
		Readiness: readiness,
		Log:       logger.Component("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("catalog", cfg.Session.CatalogBackend).
			Str("slot", cfg.Session.SlotBackend).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func openCatalog(ctx context.Context, cfg *config.Config, log zerolog.Logger, readiness map[string]handler.Pinger) (ports.IdentityCatalog, func(), error) {
	if cfg.Session.CatalogBackend != config.BackendMongo {
		return memory.NewSeededCatalog(), func() {}, nil
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}

	repo := mongo.NewIdentityRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	if cfg.Mongo.Seed {
		if err := repo.Seed(ctx, memory.DemoAccounts()); err != nil {
			closeFn()
			return nil, nil, err
		}
		log.Info().Msg("demo identities seeded")
	}

	readiness["mongodb"] = handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	return repo, closeFn, nil
}

func openSlot(ctx context.Context, cfg *config.Config, readiness map[string]handler.Pinger) (ports.SessionSlot, func(), error) {
	if cfg.Session.SlotBackend != config.BackendRedis {
		return memory.NewSlot(), func() {}, nil
	}

	client, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, nil, err
	}

	readiness["redis"] = handler.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	return redis.NewSessionSlot(client, cfg.Session.SlotKey, cfg.Session.SlotTTL), func() { _ = client.Close() }, nil
}
