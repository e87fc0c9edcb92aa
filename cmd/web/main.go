package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"brightline.video/relay/cmd/web/internal/web"
	"brightline.video/relay/internal/application"
	"brightline.video/relay/internal/config"
	"brightline.video/relay/internal/db"
	"brightline.video/relay/internal/pipeline"
	"brightline.video/relay/internal/stream"
	"brightline.video/relay/internal/vector"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting web service")

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
	vectors := vector.NewClient(conf.VectorAPIBase, conf.VectorAPIToken)
	dispatcher := pipeline.NewDispatcher(queueClient)

	e, err := web.NewWebserver(ctx, web.Deps{
		Config:     conf,
		DBC:        dbc,
		Streams:    streams,
		Vectors:    vectors,
		Dispatcher: dispatcher,
	})
	if err != nil {
		slog.Error("failed to create webserver", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Echo returns an error on Shutdown; treat it as normal if context is done.
		if ctx.Err() != nil {
			return
		}
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
