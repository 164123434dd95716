package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"schooldocs/internal/cli"
	"schooldocs/internal/config"
	"schooldocs/internal/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(logger.Options{Debug: cfg.LogDebug, Location: cfg.Location()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand(os.Stdout, cfg, log)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "schooldocs-admin: %v\n", err)
		stop()
		os.Exit(1)
	}
}
