package main

import (
	"context"
	"os"

	"spendlog/internal/cli"
	applog "spendlog/internal/log"
	"spendlog/internal/sheets"
	"spendlog/internal/sheets/google"
	"spendlog/internal/sheets/memory"
	"spendlog/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration invalid",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	res := cli.InitBackend(context.Background(), logger, cfg, true)

	var mirror sheets.ExpenseMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			res.Cleanup()
			os.Exit(1)
		}
		mirror = client
	} else {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring into memory only")
		mirror = memory.New()
	}

	w := worker.NewMirrorWorker(res.Store, mirror, logger)

	var scheduler *worker.Scheduler
	if cfg.ReconcileSchedule != "" {
		s, err := worker.NewScheduler(cfg.ReconcileSchedule, w.Reconcile, logger)
		if err != nil {
			logger.Error("Invalid reconcile schedule", applog.FieldError, err)
			res.Cleanup()
			os.Exit(1)
		}
		scheduler = s
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if scheduler != nil {
			if err := scheduler.Stop(ctx); err != nil {
				logger.Error("Scheduler stop error", applog.FieldError, err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	if err := w.Reconcile(ctx); err != nil {
		logger.Warn("Startup reconcile failed", applog.FieldError, err)
	}

	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start scheduler", applog.FieldError, err)
			res.Cleanup()
			os.Exit(1)
		}
	}

	go func() {
		logger.Info("Consuming expense events",
			"queue", cfg.AMQPQueue,
			"exchange", cfg.AMQPExchange)
		if err := res.AMQP.ConsumeExpenseEvents(ctx, w.HandleEvent); err != nil && ctx.Err() == nil {
			logger.Error("Consumer stopped", applog.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
