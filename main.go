package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"querystack/internal/ai"
	"querystack/internal/auth"
	"querystack/internal/cache"
	"querystack/internal/config"
	"querystack/internal/database"
	"querystack/internal/events"
	"querystack/internal/logger"
	"querystack/internal/repositories"
	"querystack/internal/storage"
	"querystack/pkg/rabbitmq"
)

const invalidationQueue = "querystack.cache-invalidation"

func main() {
	if err := run(); err != nil {
		log.Fatalf("querystack: %v", err)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		return err
	}

	zlog, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	// --- Database ---
	gormLevel := gormlogger.Warn
	if cfg.Env == "production" {
		gormLevel = gormlogger.Error
	}
	pool := database.New(database.Config{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseDSN,
		MaxOpenConns: cfg.DBMaxOpenConns,
		LogLevel:     gormLevel,
	}, zlog)
	defer pool.Close()
	store := repositories.NewGORMStore(pool)

	// --- Read cache (optional) ---
	var readCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(context.Background(), cfg.RedisURL)
		if err != nil {
			zlog.Warn("redis unavailable, running without read cache", zap.Error(err))
		} else {
			defer rc.Close()
			readCache = rc
		}
	}

	// --- Domain events (optional) ---
	var publisher events.Publisher = events.Nop{}
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, zlog)
		if err != nil {
			zlog.Warn("rabbitmq unavailable, domain events disabled", zap.Error(err))
		} else {
			defer mqClient.Close()
			publisher = events.NewBrokerPublisher(mqClient)
			startInvalidation(mqClient, readCache, zlog)
		}
	}

	uploads, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL, cfg.UploadMaxBytes)
	if err != nil {
		return fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	app := newApp(appDeps{
		Store:     store,
		Tokens:    auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Cache:     readCache,
		Publisher: publisher,
		Generator: ai.NewClient(ai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.AIModel,
			Timeout: cfg.AITimeout,
		}),
		Uploads:   uploads,
		UploadURL: cfg.UploadBaseURL,
		CacheTTL:  cfg.CacheTTL,
		Logger:    zlog,
	})

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("starting server", zap.String("addr", cfg.AppPort))
		serveErr <- app.Listen(cfg.AppPort)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	zlog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("error during fiber shutdown", zap.Error(err))
	}
	zlog.Info("server gracefully stopped")
	return nil
}

// startInvalidation drops cached reads for every question, answer and vote
// event seen on the exchange, including those published by other instances.
func startInvalidation(mq *rabbitmq.Client, c cache.Cache, zlog *zap.Logger) {
	invalidator := events.NewInvalidator(c, zlog)
	bindings := []string{"question.*", "answer.*", "vote.*"}
	err := mq.Consume(invalidationQueue, bindings, func(msg amqp.Delivery) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return invalidator.Handle(ctx, msg.Body)
	})
	if err != nil {
		zlog.Warn("failed to start cache invalidation consumer", zap.Error(err))
	}
}
