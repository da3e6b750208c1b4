package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"necessities/swap/internal/app"
	"necessities/swap/internal/cache"
	"necessities/swap/internal/config"
	"necessities/swap/internal/events"
	"necessities/swap/internal/handlers"
	"necessities/swap/internal/jobs"
	"necessities/swap/internal/log"
	"necessities/swap/internal/queue"
	"necessities/swap/internal/repository"
	"necessities/swap/internal/security"
	"necessities/swap/internal/server"
	"necessities/swap/internal/storage"
	"necessities/swap/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open document store")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	var photos *storage.ObjectStore
	if cfg.Storage.Enabled {
		photos, err = storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := photos.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
	}

	publisher := events.NewStreamPublisher(redisClient, cfg.Worker.Stream)
	hasher := security.NewHasher(security.DefaultParams)

	handlerSet := handlers.NewHandlerSet(logger, cfg, store, redisClient, photos, publisher, hasher)
	sessionStore := cache.NewRedisStore(redisClient, cfg.Session.MaxAge, []byte(cfg.Session.Secret))
	engine := server.NewEngine(cfg, logger, sessionStore, handlerSet)
	httpServer := server.NewHTTPServer(cfg, logger, engine)

	scheduler := jobs.NewScheduler(cfg.Jobs.BacklogSchedule, repository.NewItemRepository(store.Items), publisher, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	// An embedded redis is unreachable from cmd/worker, so events are
	// consumed here instead.
	if redisClient.Embedded() {
		consumer := queue.NewConsumer(redisClient, queue.Options{
			Stream:        cfg.Worker.Stream,
			Group:         cfg.Worker.Group,
			Consumer:      "api",
			ClaimInterval: cfg.Worker.ClaimInterval,
		}, logger, tasks.NewProcessor(logger))
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("in-process consumer stopped")
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	shutdown(logger, httpServer, scheduler, store, redisClient)
}

func shutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, store *repository.Store, redisClient *cache.Redis) {
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop(shutdownCtx)

	store.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
