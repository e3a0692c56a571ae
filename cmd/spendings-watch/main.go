package main

import (
	"context"
	"flag"
	"os"
	"time"

	"spendings/internal/amqp"
	"spendings/internal/cli"
	"spendings/internal/core"
	"spendings/internal/log"
	"spendings/internal/spendings"
	"spendings/internal/worker"
)

func main() {
	page := flag.Int("page", 1, "Page to watch")
	kind := flag.String("type", "", "Only spendings of this type")
	model := flag.String("model", "", "Only spendings of this model")
	flag.Parse()

	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(log.New(log.Config{Output: os.Stderr}))
	logger := cli.SetupLogger(cfg, os.Stderr)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to watch for changes")
		os.Exit(1)
	}

	logger.Info("Starting spendings-watch", "api", cfg.APIBaseURL, "queue", cfg.AMQPQueue)

	actions := cli.NewActions(cfg, logger)
	actions.SetFilters(core.Filters{Type: nonEmpty(*kind), Model: nonEmpty(*model)})
	actions.SetCurrentPage(*page)

	unsubscribe := actions.Store().Subscribe(func(s spendings.State) {
		if s.Loading {
			return
		}
		if err := cli.RenderState(os.Stdout, s); err != nil {
			logger.Warn("Failed to render state", log.FieldError, err)
		}
	})
	defer unsubscribe()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 10*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
	})

	refresh := worker.NewRefreshWorker(actions, logger)
	if err := refresh.Run(ctx, amqpClient); err != nil {
		logger.Error("Event consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
