package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/uncommithq/uncommit/backend/internal/config"
	"github.com/uncommithq/uncommit/backend/internal/db"
	"github.com/uncommithq/uncommit/backend/internal/migrate"
)

func main() {
	config.LoadDotenv()
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	d, err := db.Connect(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer d.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		if err := migrate.Up(ctx, d.Pool); err != nil {
			slog.Error("migrate up failed", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied")
	case "down":
		if err := migrate.Down(ctx, d.Pool); err != nil {
			slog.Error("migrate down failed", "error", err)
			os.Exit(1)
		}
		slog.Info("last migration rolled back")
	case "version":
		v, dirty, err := migrate.Version(ctx, d.Pool)
		if err != nil {
			slog.Error("migrate version failed", "error", err)
			os.Exit(1)
		}
		slog.Info("migration version", "version", v, "dirty", dirty)
	default:
		slog.Error("unknown command", "command", cmd)
		os.Exit(1)
	}
}
