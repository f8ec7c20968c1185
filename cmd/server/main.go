/*
main.go - Application entry point

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Resolve configuration (paths, retention window) once
  3. Ensure data/recovery directories exist, open the store
  4. Run startup recovery housekeeping
  5. Start the daily retention scheduler
  6. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -env    Optional .env file with configuration overrides
  -db     Override the store path (":memory:" for an in-memory store)
  -port   Override the HTTP port

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain for up to 30s,
  stop the scheduler, close the store.
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerline/bookkeeppr/api"
	"github.com/ledgerline/bookkeeppr/config"
	"github.com/ledgerline/bookkeeppr/recovery"
	"github.com/ledgerline/bookkeeppr/store/sqlite"
)

func main() {
	envFile := flag.String("env", "", "path to .env file")
	dbPath := flag.String("db", "", "override store path")
	port := flag.String("port", "", "override HTTP port")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *port != "" {
		cfg.Port = *port
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Fatal("failed to prepare data directories", zap.Error(err))
	}

	// Once the data dir exists, tee logs into the application log file.
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr", cfg.LogPath}
	if fileLogger, err := logCfg.Build(); err == nil {
		logger = fileLogger
	} else {
		logger.Warn("file logging unavailable", zap.Error(err))
	}
	defer logger.Sync()

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer db.Close()

	// Startup housekeeping: prune old snapshots before taking traffic.
	if _, err := recovery.Sweep(cfg.RecoveryDir, cfg.RetentionDays, logger); err != nil {
		logger.Warn("startup housekeeping failed", zap.Error(err))
	}

	scheduler := api.NewRetentionScheduler(cfg.RecoveryDir, cfg.RetentionDays, logger)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(db, cfg.RecoveryDir, logger)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr), zap.String("db", cfg.DBPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
