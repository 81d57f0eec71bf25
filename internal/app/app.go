// Package app wires configuration into ready-to-use stores.
package app

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"teacherdesk/internal/apiclient"
	"teacherdesk/internal/config"
	"teacherdesk/internal/notify"
	"teacherdesk/internal/queue"
	"teacherdesk/internal/store"
	"teacherdesk/internal/student"
	"teacherdesk/internal/todo"
	"teacherdesk/internal/worklog"
)

// recentNotifications bounds the notifications kept for the view.
const recentNotifications = 100

// App holds the stores and the infrastructure behind them.
type App struct {
	Config   config.App
	Logger   *slog.Logger
	API      *apiclient.Client
	Students *student.Store
	ToDos    *todo.Store
	WorkLogs *worklog.Store

	// Recent collects notifications raised in this process.
	Recent *notify.Recorder
	// Queue is nil with the log backend.
	Queue queue.Queue
	// Redis is nil unless the redis backend is configured.
	Redis *store.Redis
}

// Build creates the API client, the notifier for cfg.NotifyBackend and
// the three stores. Metrics are registered on reg when it is not nil.
func Build(cfg config.App, logger *slog.Logger, reg prometheus.Registerer) *App {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []apiclient.Option{
		apiclient.WithLogger(logger),
		apiclient.WithTimeout(cfg.APITimeout),
	}
	if reg != nil {
		opts = append(opts, apiclient.WithMetrics(apiclient.NewMetrics(reg)))
	}
	api := apiclient.New(cfg.APIBaseURL, opts...)

	a := &App{
		Config: cfg,
		Logger: logger,
		API:    api,
		Recent: &notify.Recorder{Limit: recentNotifications},
	}

	var delivery notify.Notifier
	switch cfg.NotifyBackend {
	case "redis":
		a.Redis = store.NewRedis(cfg.RedisAddr)
		a.Queue = queue.NewRedisQueue(a.Redis.Client, cfg.NotifyQueueKey)
		delivery = notify.NewQueueNotifier(a.Queue)
	case "memory":
		a.Queue = queue.NewInMemory(64)
		delivery = notify.NewQueueNotifier(a.Queue)
	default:
		delivery = notify.NewLogNotifier(logger)
	}

	a.Students = student.NewStore(api, logger)
	a.ToDos = todo.NewStore(api, notify.Multi{a.Recent, delivery}, logger)
	a.WorkLogs = worklog.NewStore(api, logger)
	return a
}

// DrainLocal delivers queued notifications to the log when the queue
// lives in this process. It returns immediately for other backends.
func (a *App) DrainLocal(ctx context.Context) error {
	if a.Config.NotifyBackend != "memory" {
		return nil
	}
	return notify.Drain(ctx, a.Queue, notify.NewLogNotifier(a.Logger), a.Logger)
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	return a.Redis.Close()
}
