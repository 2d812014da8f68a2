package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dentalcare/aftercare/internal/app"
	"github.com/dentalcare/aftercare/internal/config"
	"github.com/dentalcare/aftercare/internal/database"
	"github.com/dentalcare/aftercare/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	app.SetupLogger(cfg.Log, os.Stdout)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if cfg.DB.AutoMigrate {
		if err := database.RunMigrations(cfg.DB.DSN(), cfg.DB.MigrationsPath); err != nil {
			slog.Error("running migrations", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{Events: true})
	if err != nil {
		slog.Error("starting application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	a.StartBackground(ctx)

	srv := server.New(cfg.Server, a.Router(), cfg.AI.Timeout)
	if err := srv.Start(cancel); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
