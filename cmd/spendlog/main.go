package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"spendlog/internal/cli"
	apphttp "spendlog/internal/http"
	applog "spendlog/internal/log"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting spendlog",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", cfg.AMQPURL != "",
		"log_level", cfg.LogLevel)

	res := cli.InitBackend(context.Background(), logger, cfg, false)

	srv := apphttp.NewServer(":"+cfg.Port, res.Service, apphttp.Options{
		DefaultPageSize:    cfg.DefaultPageSize,
		MaxPageSize:        cfg.MaxPageSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 20

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", applog.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", applog.FieldError, err)
			res.Cleanup()
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
