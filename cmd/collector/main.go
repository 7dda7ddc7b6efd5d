package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DavideMichelon10/chess-data/internal/app"
	"github.com/DavideMichelon10/chess-data/internal/collector"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

func main() {
	var withTitled bool
	flag.BoolVar(&withTitled, "titled", false, "also discover titled players (GM/IM/FM/CM lists)")
	flag.Parse()

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

	coll := collector.New(log, clients.Chesscom, clients.Users, clients.Buckets)

	players, err := coll.Players(ctx)
	if err != nil {
		log.Error("Could not assemble player list", "error", err)
		os.Exit(1)
	}
	if withTitled {
		titled, err := collector.TitledPlayers(ctx, clients.Chesscom, collector.DefaultTitles)
		if err != nil {
			log.Warn("Titled player discovery failed", "error", err)
		} else {
			players = collector.MergePlayers(players, titled)
		}
	}
	players = collector.MergePlayers(players, cfg.Players)

	saved, err := coll.Refresh(ctx, players)
	if err != nil {
		log.Error("Collector run aborted", "saved", saved, "error", err)
		os.Exit(1)
	}
}
