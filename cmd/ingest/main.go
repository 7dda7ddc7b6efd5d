package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DavideMichelon10/chess-data/internal/app"
	"github.com/DavideMichelon10/chess-data/internal/ingest"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := app.WireClients(ctx, log, cfg)
	if err != nil {
		log.Error("Client wiring failed", "error", err)
		os.Exit(1)
	}
	defer clients.Close()

	players, err := cfg.LoadPlayers()
	if err != nil {
		log.Error("Could not load player list", "error", err)
		os.Exit(1)
	}

	staging := ingest.NewStagingWriter(log, clients.Buckets)
	orchestrator := ingest.NewOrchestrator(log, clients.Chesscom, staging, clients.Warehouse, clients.Users, cfg.StartYear)

	results := orchestrator.Run(ctx, players)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	log.Info("Ingestion run finished", "players", len(results), "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
