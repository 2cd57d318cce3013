package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvtable/internal/config"
	"github.com/JonMunkholm/csvtable/internal/logging"
	"github.com/JonMunkholm/csvtable/internal/table"
	_ "github.com/JonMunkholm/csvtable/internal/tables" // Register all tables
	"github.com/JonMunkholm/csvtable/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	defs := table.All()
	slog.Info("tables registered", "count", len(defs))
	for _, def := range defs {
		slog.Debug("table", "key", def.Info.Key, "source", def.Info.Source, "columns", len(def.Columns))
	}

	catalog := web.NewCatalog(defs)
	server, err := web.NewServer(cfg, catalog)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Sources load in the background; pages render empty until they finish.
	loadCtx, cancelLoads := context.WithCancel(context.Background())
	loaded := catalog.LoadAll(loadCtx, cfg.Table.DataDir, cfg.Table.LoadTimeout)
	go func() {
		<-loaded
		total, ok := catalog.Counts()
		slog.Info("table loading finished", "tables", total, "loaded", ok)
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelLoads()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
