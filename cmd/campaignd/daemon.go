package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/promodesk/campaignd/internal/backend"
	"github.com/promodesk/campaignd/internal/backend/simbackend"
	"github.com/promodesk/campaignd/internal/brief"
	"github.com/promodesk/campaignd/internal/campaign"
	"github.com/promodesk/campaignd/internal/config"
	"github.com/promodesk/campaignd/internal/controlplane"
	"github.com/promodesk/campaignd/internal/events"
	"github.com/promodesk/campaignd/internal/extract"
	"github.com/promodesk/campaignd/internal/generate"
	"github.com/promodesk/campaignd/internal/logging"
	"github.com/promodesk/campaignd/internal/monitor"
	"github.com/promodesk/campaignd/internal/store"
)

var (
	configPath string
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the campaignd daemon",
	Long:  `Starts the campaignd daemon which provides the HTTP API and runs the campaign monitoring loop.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default ~/.campaignd/config.yaml)")
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadDaemonConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting campaignd daemon", zap.String("version", Version))

	resolvedDB, err := cfg.ResolveDBPath()
	if err != nil {
		return err
	}
	s, err := store.New(resolvedDB)
	if err != nil {
		return err
	}

	// Simulated backend for local runs. A real provider client slots in
	// behind the same adapter.
	sim := simbackend.New()
	adapter := backend.NewAdapter(sim, cfg.Backend.RateInterval(), backend.Policy{
		MaxAttempts: cfg.Backend.MaxAttempts,
		BaseDelay:   cfg.Backend.BaseDelay(),
		Multiplier:  cfg.Backend.Multiplier,
		Jitter:      true,
	}, logger)

	bus := events.NewBus()

	extractor := extract.New(extract.NewPatternUnderstander(), logger)
	compiler := brief.NewCompiler(extractor, brief.NewValidator(logger), brief.NewAdvisor(), s, logger)
	generator := generate.New(adapter, logger)
	service := campaign.NewService(s, compiler, generator, bus, logger)

	server := controlplane.NewServer(service, s, cfg.ListenAddr, Version, logger)

	loop := monitor.New(s, adapter, bus, cfg.Monitor.Interval(), cfg.Monitor.MaxConcurrent, logger)
	loop.Start()
	defer loop.Stop()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	if err := s.Close(); err != nil {
		logger.Error("database close error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func loadDaemonConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromHome()
}
