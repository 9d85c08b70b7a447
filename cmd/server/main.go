// Package main - Entry point for the uncertainty budget API server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"uncertainty-budget/adapters/storage"
	"uncertainty-budget/api"
	"uncertainty-budget/core/service"
	"uncertainty-budget/internal/config"
	"uncertainty-budget/internal/logging"
)

const version = "1.0.0"

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "Configuration file")
	addr := flag.String("addr", "", "Server address (overrides the configuration)")
	flag.Parse()

	if err := run(*cfgPath, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, addr string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	// The server logs requests at info level
	if cfg.Logging.Level == "warn" {
		cfg.Logging.Level = "info"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.New(store, logging.Logger)
	server := api.NewServer(version, svc, logging.Logger)

	fmt.Printf("Uncertainty Budget Server v%s\n", version)
	fmt.Printf("   API:     http://localhost%s/api\n", cfg.Server.Addr)
	fmt.Printf("   Storage: %s\n", cfg.Storage.Backend)
	fmt.Println()

	logging.Info("server starting", zap.String("addr", cfg.Server.Addr), zap.String("storage", cfg.Storage.Backend))
	return api.Run(ctx, cfg.Server.Addr, server)
}
