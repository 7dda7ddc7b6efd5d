package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DavideMichelon10/chess-data/internal/clients/chesscom"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

// GamesFetcher is the slice of the chess.com client the orchestrator needs.
type GamesFetcher interface {
	MonthlyGames(ctx context.Context, player string, year, month int) ([]chesscom.Game, error)
}

// WarehouseLoader runs one bulk load over the flushed batch URIs and blocks
// until the warehouse reports the job finished.
type WarehouseLoader interface {
	LoadCSVFromGCS(ctx context.Context, uris []string) error
}

// WatermarkStore is the durable per-player set of committed days. The
// orchestrator is its only writer, and only after a successful load.
type WatermarkStore interface {
	CollectedDays(ctx context.Context, player string) (map[string]bool, error)
	CommitDays(ctx context.Context, player string, days []string) error
}

// PlayerResult is the per-player outcome of a run: either the committed day
// set, or the error that stopped the player. Err being a *CommitError means
// the warehouse holds rows the watermark does not cover.
type PlayerResult struct {
	Player string
	Days   []string
	Err    error
}

// Orchestrator drives the per-player ingestion loop. Players are processed
// strictly sequentially, months ascending within a player; one player's
// failure never stops the others.
type Orchestrator struct {
	log        *logger.Logger
	fetcher    GamesFetcher
	staging    *StagingWriter
	loader     WarehouseLoader
	watermarks WatermarkStore

	startYear int
	now       func() time.Time
}

func NewOrchestrator(log *logger.Logger, fetcher GamesFetcher, staging *StagingWriter, loader WarehouseLoader, watermarks WatermarkStore, startYear int) *Orchestrator {
	return &Orchestrator{
		log:        log.With("service", "IngestOrchestrator"),
		fetcher:    fetcher,
		staging:    staging,
		loader:     loader,
		watermarks: watermarks,
		startYear:  startYear,
		now:        time.Now,
	}
}

// Run processes every player and returns one result each. The run stops
// early only when ctx is canceled; a canceled player and all remaining
// players report ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, players []string) []PlayerResult {
	runLog := o.log.With("run_id", uuid.NewString())
	runLog.Info("Starting ingestion run", "players", len(players))

	results := make([]PlayerResult, 0, len(players))
	for _, player := range players {
		if err := ctx.Err(); err != nil {
			results = append(results, PlayerResult{Player: player, Err: err})
			continue
		}
		res := o.processPlayer(ctx, runLog, player)
		if res.Err == nil {
			runLog.Info("Player committed", "player", player, "days", len(res.Days))
		} else if IsCommitError(res.Err) {
			// Rows are already in the warehouse but not in the
			// watermark, so a re-run will duplicate them.
			runLog.Error("WATERMARK COMMIT FAILED AFTER SUCCESSFUL LOAD", "player", player, "error", res.Err)
		} else {
			runLog.Error("Player failed", "player", player, "error", res.Err)
		}
		results = append(results, res)
	}
	return results
}

func (o *Orchestrator) processPlayer(ctx context.Context, runLog *logger.Logger, player string) PlayerResult {
	log := runLog.With("player", player)

	yesterday := o.now().UTC().AddDate(0, 0, -1)
	yesterdayDay := yesterday.Format("2006-01-02")

	// Stale batches from a previous failed run must go before the first
	// stage of this run, or the load would double-count their rows.
	if err := o.staging.Clear(ctx, player); err != nil {
		return PlayerResult{Player: player, Err: err}
	}

	collected, err := o.watermarks.CollectedDays(ctx, player)
	if err != nil {
		return PlayerResult{Player: player, Err: err}
	}

	for year := o.startYear; year <= yesterday.Year(); year++ {
		for month := 1; month <= 12; month++ {
			if year == yesterday.Year() && month > int(yesterday.Month()) {
				break
			}
			games, err := o.fetcher.MonthlyGames(ctx, player, year, month)
			if err != nil {
				if ctx.Err() != nil {
					return PlayerResult{Player: player, Err: ctx.Err()}
				}
				fe := newFetchError(player, year, month, err)
				log.Warn("Skipping month", "year", year, "month", month, "transient", fe.Transient, "status", fe.Status)
				continue
			}
			for _, game := range games {
				rec := RecordFromGame(game, player)
				day := rec.Day()
				if day >= yesterdayDay {
					continue
				}
				if collected[day] {
					continue
				}
				o.staging.Stage(player, rec)
			}
		}
	}

	days := o.staging.Days(player)
	if len(days) == 0 {
		log.Info("Nothing new to ingest")
		return PlayerResult{Player: player}
	}

	uris, err := o.staging.Flush(ctx, player)
	if err != nil {
		return PlayerResult{Player: player, Err: err}
	}

	if err := o.loader.LoadCSVFromGCS(ctx, uris); err != nil {
		// Batches stay in the bucket and the watermark stays untouched;
		// the next run clears and re-stages them.
		return PlayerResult{Player: player, Err: &LoadError{Player: player, Err: err}}
	}

	if err := o.watermarks.CommitDays(ctx, player, days); err != nil {
		return PlayerResult{Player: player, Days: days, Err: &CommitError{Player: player, Days: days, Err: err}}
	}

	if err := o.staging.Clear(ctx, player); err != nil {
		// Committed already; leftover staged objects are cleared by the
		// next run before it stages anything.
		log.Warn("Failed to clear staging after commit", "error", err)
	}

	return PlayerResult{Player: player, Days: days}
}
