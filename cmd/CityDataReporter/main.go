package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Nazarious-ucu/city-data-reporter/internal/app"
	"github.com/Nazarious-ucu/city-data-reporter/internal/config"
	metricsSvc "github.com/Nazarious-ucu/city-data-reporter/internal/services/metrics"
	"github.com/Nazarious-ucu/city-data-reporter/pkg/logger"
	"github.com/Nazarious-ucu/city-data-reporter/pkg/tracing"
)

const (
	serviceName     = "city-data-reporter"
	shutdownTimeout = 5 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	envErr := godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return app.ExitFailure
	}

	l, err := logger.NewLogger(os.Stderr, cfg.Log.Path, serviceName, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return app.ExitFailure
	}
	if envErr != nil {
		l.Debug().Err(envErr).Msg("no .env file loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitProvider(ctx, serviceName, cfg.CollectorURL)
	if err != nil {
		l.Warn().Err(err).Msg("tracing disabled")
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			l.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	application := app.New(*cfg, l, metricsSvc.NewMetrics(), os.Stdin, os.Stdout)
	if err := application.Run(ctx); err != nil {
		l.Debug().Err(err).Msg("run failed")
		fmt.Fprintf(os.Stderr, "Error: %s\n", app.Message(err))
		return app.ExitCode(err)
	}
	return app.ExitOK
}
