// Command pharmacie serves the medication catalogue of the pharmacy
// front-end over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/pharmacie/config"
	"github.com/giygas/pharmacie/data"
	"github.com/giygas/pharmacie/handlers"
	"github.com/giygas/pharmacie/health"
	"github.com/giygas/pharmacie/loader"
	"github.com/giygas/pharmacie/logging"
	"github.com/giygas/pharmacie/scheduler"
	"github.com/giygas/pharmacie/server"
	"github.com/giygas/pharmacie/validation"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to read .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogDir, cfg.LogLevel, cfg.LogRetentionWeeks)
	defer logging.Close()

	if err := run(cfg); err != nil {
		logging.Error("Server stopped with error", "error", err)
		logging.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	source, closeSource, err := loader.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to open catalogue source: %w", err)
	}
	defer func() {
		if err := closeSource(); err != nil {
			logging.Warn("Failed to close catalogue source", "error", err)
		}
	}()

	store := data.NewDataContainer()
	validator := validation.NewDataValidator()

	sched := scheduler.NewScheduler(store, source, validator, cfg.ReloadTimes)
	sched.SetStrictValidation(cfg.StrictValidation)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	checker := health.NewHealthChecker(store, sched.NextUpdate)
	srv := server.NewServer(cfg, handlers.NewHTTPHandler(store, validator, checker))

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}
