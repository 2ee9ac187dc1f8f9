package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mantonx/cinecache/internal/config"
	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second
	reloadDebounce  = 500 * time.Millisecond
)

func main() {
	if err := run(); err != nil {
		logger.Error("cinecache exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", os.Getenv("CINECACHE_CONFIG_PATH"), "path to the YAML configuration file")
	flag.Parse()

	if *configPath == "" {
		if _, err := os.Stat("./cinecache.yaml"); err == nil {
			*configPath = "./cinecache.yaml"
		}
	}

	if err := config.Load(*configPath); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := config.Get()

	out, closeOut, err := logOutput(cfg.Logging.Output)
	if err != nil {
		return err
	}
	defer closeOut()
	logger.Configure(logger.Options{
		Name:   "cinecache",
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: out,
	})
	logger.Info("configuration loaded", "path", *configPath, "environment", cfg.Project.Environment)

	// the log level is the only setting applied without a restart
	config.AddWatcher(func(oldCfg, newCfg *config.Config) {
		if oldCfg.Logging.Level != newCfg.Logging.Level {
			logger.SetLevel(newCfg.Logging.Level)
			logger.Info("log level changed", "from", oldCfg.Logging.Level, "to", newCfg.Logging.Level)
		}
	})
	if *configPath != "" {
		watcher, err := config.GetConfigManager().Watch(reloadDebounce)
		if err != nil {
			logger.Warn("configuration hot reload disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	srv, err := server.New(cfg, db)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-sigChan:
		logger.Info("shutting down gracefully", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server shutdown complete")
	return nil
}

// logOutput resolves the configured log destination: stdout, stderr or a file path
func logOutput(target string) (io.Writer, func(), error) {
	switch target {
	case "", "stdout":
		return os.Stdout, func() {}, nil
	case "stderr":
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(target, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
