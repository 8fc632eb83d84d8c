package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/autopark/internal/config"
	"github.com/iudanet/autopark/internal/logger"
	"github.com/iudanet/autopark/internal/server"
	"github.com/iudanet/autopark/internal/server/handlers"
	"github.com/iudanet/autopark/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Parse flags
	showVersion := flag.Bool("version", false, "Show version information")
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	flag.Parse()

	// Show version and exit if requested
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg, err := config.LoadServer(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closeLog, err := logger.SetupLogger(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		File:   cfg.Log.File,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		_ = closeLog()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close database", slog.Any("error", err))
		}
	}()

	srv := server.New(log, store, server.Config{
		JWT: handlers.JWTConfig{
			Secret:          []byte(cfg.JWTSecret),
			AccessTokenTTL:  cfg.AccessTTL,
			RefreshTokenTTL: cfg.RefreshTTL,
		},
		Uploads: handlers.UploadConfig{
			Dir:       cfg.UploadDir,
			PublicURL: cfg.PublicURL,
		},
		Version:              Version,
		AuthRateLimit:        cfg.AuthRateLimit,
		TokenCleanupInterval: time.Hour,
	})
	defer srv.Close()

	log.Info("autopark server configured",
		slog.String("version", Version),
		slog.String("db", cfg.DBPath),
		slog.Duration("access_ttl", cfg.AccessTTL),
		slog.Duration("refresh_ttl", cfg.RefreshTTL))

	return srv.ListenAndServe(ctx, cfg.Addr)
}

func printVersion() {
	fmt.Printf("AutoPark Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
