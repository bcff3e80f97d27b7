package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/tg-sentinel/app/api"
	"github.com/lysyi3m/tg-sentinel/app/cfg"
	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/scoring"
	"github.com/lysyi3m/tg-sentinel/app/tasks"
	"github.com/lysyi3m/tg-sentinel/app/transfer"
	"github.com/lysyi3m/tg-sentinel/app/transport"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting TG Sentinel", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := config.NewCache(appCfg.ChannelsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load channel configurations", "dir", appCfg.ChannelsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Channel configurations loaded", "count", configCache.GetConfigCount(), "enabled", len(configCache.GetEnabledConfigs()))

	unitRepo := database.NewUnitRepository(db)
	trackingRepo := database.NewTrackingRepository(db)

	gateway := transport.NewGateway(appCfg.GatewayURL)
	oracle := scoring.NewOracleClient(appCfg.OracleURL)

	// The oracle loads its model lazily, wait for it before scheduling work
	waitForOracle(oracle)

	scorer := scoring.NewScorer(oracle)
	selector := transfer.NewSelector(gateway, trackingRepo, appCfg.TargetChannel, appCfg.MediaDir)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount,
		"ingest_interval", appCfg.IngestInterval, "scout_interval", appCfg.ScoutInterval, "dispatch_interval", appCfg.DispatchInterval)
	scheduler := tasks.NewScheduler(configCache, unitRepo, trackingRepo, gateway, scorer, selector)
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(unitRepo, trackingRepo, configCache)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("TG Sentinel started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("TG Sentinel shutdown complete")
}

// waitForOracle blocks until the scoring oracle answers. Dispatch without a
// reachable oracle would burn through task retries for nothing.
func waitForOracle(oracle *scoring.OracleClient) {
	for attempt := 1; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := oracle.Ping(ctx)
		cancel()

		if err == nil {
			slog.Info("Scoring oracle is reachable")
			return
		}

		if attempt >= 30 {
			slog.Warn("Scoring oracle still unreachable, continuing anyway", "attempts", attempt, "error", err)
			return
		}

		slog.Info("Waiting for scoring oracle", "attempt", attempt, "error", err)
		time.Sleep(10 * time.Second)
	}
}
