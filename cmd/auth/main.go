package main

import (
	"log"

	"go.uber.org/zap"

	"github.com/algobasket/hissabbook-api-system/internal/config"
	"github.com/algobasket/hissabbook-api-system/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()
	server.NewServer(cfg, logger) // handles lifecycle & shutdown internally
}
