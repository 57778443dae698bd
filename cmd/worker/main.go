package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uncommithq/uncommit/backend/internal/bus/natsbus"
	"github.com/uncommithq/uncommit/backend/internal/config"
	"github.com/uncommithq/uncommit/backend/internal/db"
	"github.com/uncommithq/uncommit/backend/internal/pipeline"
	"github.com/uncommithq/uncommit/backend/internal/store"
	"github.com/uncommithq/uncommit/backend/internal/worker"
)

func main() {
	config.LoadDotenv()
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DBURL == "" {
		slog.Error("DB_URL is required")
		os.Exit(1)
	}
	d, err := db.Connect(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer d.Close()

	if cfg.NATSURL == "" {
		slog.Error("NATS_URL is required to run workers")
		os.Exit(1)
	}

	b, err := natsbus.Connect(cfg.NATSURL)
	if err != nil {
		slog.Error("nats connect failed", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	p, err := pipeline.New(cfg, store.New(d.Pool))
	if err != nil {
		slog.Error("pipeline setup failed", "error", err)
		os.Exit(1)
	}

	consumer := &worker.PipelineConsumer{Pipeline: p}
	if err := consumer.Subscribe(ctx, b.Conn(), "uncommit-workers"); err != nil {
		slog.Error("subscribe failed", "error", err)
		os.Exit(1)
	}

	slog.Info("worker started")

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("worker shutting down")
	cancel()
	time.Sleep(300 * time.Millisecond)
}
