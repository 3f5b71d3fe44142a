package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"spendlog/internal/cli"
	applog "spendlog/internal/log"
	"spendlog/internal/seed"
)

func main() {
	count := flag.Int("n", 50, "number of expenses to create")
	months := flag.Int("months", 6, "spread dates over this many past months")
	seedValue := flag.Int64("seed", 0, "random seed (0 picks one from the clock)")
	prefix := flag.String("prefix", "seed", "idempotency key prefix")
	flag.Parse()

	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentSeed)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res := cli.InitBackend(ctx, logger, cfg, false)
	defer res.Cleanup()

	result, err := seed.Run(ctx, res.Service, seed.Options{
		Count:     *count,
		Months:    *months,
		KeyPrefix: *prefix,
		Seed:      *seedValue,
	})
	logger.Info("Seeding finished",
		"backend", cfg.DataBackend,
		"created", result.Created,
		"replayed", result.Replayed)
	if err != nil {
		logger.Error("Seeding failed", applog.FieldError, err)
		res.Cleanup()
		os.Exit(1)
	}
}
