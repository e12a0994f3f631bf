package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"hiretrack/internal/config"
	"hiretrack/internal/daemon"
	"hiretrack/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg, "hiretrackd.log")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if err := daemon.Run(ctx, cfg, logger); err != nil {
		log.Fatalf("hiretrackd: %v", err)
	}
}
