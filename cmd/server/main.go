package main

import (
	"context"
	"fmt"
	"os"

	"github.com/DavideMichelon10/chess-data/internal/app"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
	"github.com/DavideMichelon10/chess-data/internal/server"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := app.LoadConfig(log)

	clients, err := app.WireClients(context.Background(), log, cfg)
	if err != nil {
		log.Error("Client wiring failed", "error", err)
		os.Exit(1)
	}
	defer clients.Close()

	router := server.NewRouter(server.RouterConfig{
		SearchHandler:     server.NewSearchHandler(log, clients.Warehouse),
		TopPlayersHandler: server.NewTopPlayersHandler(log, clients.Users),
		AllowedOrigins:    cfg.CORSOrigins,
	})

	log.Info("Query API listening", "port", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Server failed", "error", err)
	}
}
