package app

import (
	"context"
	"fmt"

	"github.com/DavideMichelon10/chess-data/internal/clients/chesscom"
	"github.com/DavideMichelon10/chess-data/internal/clients/gcp"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

// Clients bundles the external handles the pipelines run against. They are
// constructed once per process and passed down explicitly; nothing reaches
// for a package-level singleton.
type Clients struct {
	Chesscom  chesscom.Client
	Buckets   gcp.BucketService
	Warehouse gcp.WarehouseService
	Users     gcp.UserStore
}

func WireClients(ctx context.Context, log *logger.Logger, cfg Config) (*Clients, error) {
	buckets, err := gcp.NewBucketService(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("init bucket service: %w", err)
	}
	warehouse, err := gcp.NewWarehouseService(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("init warehouse service: %w", err)
	}
	users, err := gcp.NewUserStore(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("init user store: %w", err)
	}

	return &Clients{
		Chesscom:  chesscom.NewClient(log, cfg.RequestDelay),
		Buckets:   buckets,
		Warehouse: warehouse,
		Users:     users,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Warehouse != nil {
		_ = c.Warehouse.Close()
	}
	if c.Users != nil {
		_ = c.Users.Close()
	}
}
