package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"brightline.video/relay/internal/ai"
	"brightline.video/relay/internal/application"
	"brightline.video/relay/internal/config"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/pipeline"
	"brightline.video/relay/internal/stream"
	"brightline.video/relay/internal/vector"
	"brightline.video/relay/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting pipeline worker")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if conf.DatabaseRetries <= 0 {
		conf.DatabaseRetries = 10
	}

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		slog.Error("failed to create database connection", "error", err)
		os.Exit(1)
	}
	defer dbc.Close()

	queueClient := application.NewQueueClient(*conf)
	defer queueClient.Close()

	streams := stream.NewClient(conf.StreamAPIBase, conf.StreamAPIToken)
	aiClient := ai.NewClient(conf.AIAPIBase, conf.AIAPIToken)
	vectors := vector.NewClient(conf.VectorAPIBase, conf.VectorAPIToken)

	dispatcher := pipeline.NewDispatcher(queueClient)
	reconciler := pipeline.NewReconciler(dbc.Queries(ctx), streams, dispatcher)
	processor := worker.NewProcessor(dbc, streams, aiClient, vectors, dispatcher, reconciler)

	// Periodic reconciliation sweep. Catches videos whose webhook and poll
	// ladder both missed a terminal transition.
	go runSweeper(ctx, reconciler, conf.SweepInterval)

	srv := asynq.NewServer(application.RedisOpt(*conf), asynq.Config{
		Concurrency: conf.WorkerConcurrency,
	})

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	slog.Info("Worker listening", "redis_addr", conf.RedisAddr, "concurrency", conf.WorkerConcurrency)
	if err := srv.Run(processor.Handler()); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func runSweeper(ctx context.Context, reconciler *pipeline.Reconciler, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := reconciler.SyncAllProcessing(ctx); err != nil {
				slog.Error("reconciliation sweep failed", "error", err)
			}
		}
	}
}
