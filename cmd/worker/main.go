package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"teacherdesk/internal/config"
	"teacherdesk/internal/logging"
	"teacherdesk/internal/notify"
	"teacherdesk/internal/queue"
	"teacherdesk/internal/store"
)

// Worker drains notifications published by the gateway and the CLI, logs
// them and, when DATABASE_URL is set, archives them in Postgres.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.IsProduction())

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker failed", "err", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(cfg config.App, logger *slog.Logger) error {
	if cfg.NotifyBackend != "redis" {
		return errors.New("worker needs NOTIFY_BACKEND=redis")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		logger.Warn("redis not reachable yet, will keep retrying", "addr", cfg.RedisAddr)
	}

	deliver := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.DatabaseURL != "" {
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		archive := notify.NewArchive(db.Client)
		if err := archive.EnsureSchema(ctx); err != nil {
			return err
		}
		deliver = append(deliver, archive)
		logger.Info("archiving notifications to postgres")
	}

	q := queue.NewRedisQueue(redisClient.Client, cfg.NotifyQueueKey)
	logger.Info("worker started, waiting for notifications", "key", cfg.NotifyQueueKey)
	return notify.Drain(ctx, q, deliver, logger)
}
