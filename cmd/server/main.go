// Package main is the entry point for the feedback server.
//
// main stays minimal. Its job is to:
//  1. Read configuration (flags, YAML file, .env, environment)
//  2. Create the logger
//  3. Make sure an SQLite database has a directory to live in
//  4. Build and start the server
//
// All actual logic lives in the internal/ packages.
//
// Usage:
//
//	SECRET_KEY=$(openssl rand -hex 32) go run ./cmd/server
//	go run ./cmd/server -config config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/feedback/internal/config"
	"github.com/sakif/feedback/internal/logging"
	"github.com/sakif/feedback/internal/repository/sqldb"
	"github.com/sakif/feedback/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_FILE)")
	flag.Parse()

	// === 1. CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// === 2. LOGGING ===
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", slog.Any("config", cfg))

	// === 3. DATABASE DIRECTORY ===
	// os.MkdirAll is like `mkdir -p`; Postgres and :memory: need nothing.
	dialect, dsn, err := sqldb.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if dialect == sqldb.SQLite && !sqldb.IsMemory(dsn) {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	// === 4. SERVER ===
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	return srv.Start()
}
