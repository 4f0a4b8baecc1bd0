package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"ballot-backend/api"
	"ballot-backend/config"
	"ballot-backend/encryption"
	"ballot-backend/service"
	"ballot-backend/storage"
	"ballot-backend/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	logger, err := telemetry.SetupLogging(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(2)
	}

	// The pepper is checked before anything else is built; no listener is
	// opened with a missing or weak secret.
	pepper, err := encryption.NewPepper(cfg.PepperBytes())
	if err != nil {
		log.Crit("Refusing to start", "err", err)
	}
	cfg.Pepper, cfg.PepperFile = "", ""

	if err := run(cfg, pepper, logger); err != nil {
		log.Crit("Server error", "err", err)
	}
}

func run(cfg config.Config, pepper encryption.Pepper, logger log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingOptions{
		Endpoint: cfg.OTelEndpoint,
		Enabled:  cfg.OTelEnabled,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("Failed to flush traces", "err", err)
		}
	}()

	store, closeStore, err := storage.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close store", "err", err)
		}
	}()

	cryptoService, err := encryption.NewCryptoService(pepper)
	if err != nil {
		return err
	}
	pool := service.NewDerivationPool(cryptoService, cfg.DeriveWorkers, cfg.DeriveQueue)
	pool.Start()
	defer pool.Stop()

	submissions, err := service.NewSubmissionService(store, pool, logger)
	if err != nil {
		return err
	}

	identity, err := api.NewIdentitySource(cfg.IdentitySource, cfg.IdentityHeader)
	if err != nil {
		return err
	}
	server := api.NewServer(cfg.HTTPAddr, submissions, identity, logger)

	logger.Info("Ballot service configured",
		"store", cfg.Store,
		"derive_workers", cfg.DeriveWorkers,
		"derive_queue", cfg.DeriveQueue,
		"derive_memory_mib", cfg.DeriveWorkers*encryption.ScryptMemoryBytes>>20,
		"identity_source", cfg.IdentitySource,
	)

	serverChan := make(chan error, 1)
	go func() {
		serverChan <- server.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("Server shutdown completed")
	return nil
}
