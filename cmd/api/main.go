package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"teacherdesk/internal/app"
	"teacherdesk/internal/config"
	"teacherdesk/internal/gateway"
	"teacherdesk/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("http server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.App, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := app.Build(cfg, logger, reg)
	defer a.Close()

	if cfg.JWTSigningKey == "" {
		logger.Warn("JWT_SIGNING_KEY not set, /v1 is open")
	}

	go func() {
		if err := a.DrainLocal(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("local notification drain stopped", "err", err)
		}
	}()

	// Failures are logged by the stores.
	_, _ = a.Students.FetchAll(ctx)
	_, _ = a.ToDos.FetchAll(ctx)
	_, _ = a.WorkLogs.FetchAll(ctx)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: gateway.NewRouter(a, gateway.Options{
			SigningKey:      cfg.JWTSigningKey,
			Issuer:          cfg.JWTIssuer,
			RateLimitPerMin: cfg.RateLimitPerMin,
			Gatherer:        reg,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("starting server", "port", cfg.HTTPPort, "backend", cfg.APIBaseURL, "notify", cfg.NotifyBackend)
	err := gateway.Serve(ctx, srv, 10*time.Second)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	logger.Info("server exited")
	return err
}
