package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"joints/internal/config"
	"joints/internal/observability"
	"joints/internal/repositories"
	"joints/internal/services"
	"joints/internal/store"
	"joints/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.Log.WithError(err).Fatal("failed to load configuration")
	}
	observability.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	ctx := context.Background()

	// --- Storage ---
	st, err := store.Open(cfg)
	if err != nil {
		observability.Log.WithError(err).Fatal("failed to open store")
	}

	locker, redisClient, err := store.OpenLocker(ctx, cfg)
	if err != nil {
		observability.Log.WithError(err).Fatal("failed to set up collection locks")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	userRepo := repositories.NewStoreUserRepository(st, locker)
	postRepo := repositories.NewStorePostRepository(st, locker)

	// --- Events (optional) ---
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			observability.Log.WithError(err).Fatal("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		publisher = mqClient

		if err := mqClient.ConsumeEvents(rabbitmq.LogEvent); err != nil {
			observability.Log.WithError(err).Error("failed to start RabbitMQ consumer")
		}
	}

	app, _ := NewApp(Dependencies{
		Users:     userRepo,
		Posts:     postRepo,
		Publisher: publisher,
		JWTSecret: cfg.JWTSecret,
		PageSize:  cfg.PageSize,
		AccessLog: true,
	})

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		observability.Log.WithField("port", cfg.Port).WithField("store", cfg.StoreDriver).Info("starting server")
		if err := app.Listen(cfg.Port); err != nil {
			observability.Log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	observability.Log.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		observability.Log.WithError(err).Error("error during Fiber shutdown")
	}
	observability.Log.Info("server gracefully stopped")
}
