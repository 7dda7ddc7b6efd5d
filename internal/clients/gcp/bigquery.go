package gcp

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

// WarehouseService wraps the BigQuery client for the two things this system
// does with it: bulk-load staged CSV batches and answer aggregate queries.
type WarehouseService interface {
	// LoadCSVFromGCS runs one load job over all URIs and blocks until the
	// job reports completion. Append-only; the staged files carry a header
	// row that the job skips.
	LoadCSVFromGCS(ctx context.Context, uris []string) error
	// PlayerSummary aggregates the games table for one player, latest-first
	// per time class.
	PlayerSummary(ctx context.Context, player string) ([]PlayerTimeClassSummary, error)
	Close() error
}

// PlayerTimeClassSummary is one row of the /search aggregation.
type PlayerTimeClassSummary struct {
	TimeClass   string  `bigquery:"time_class"`
	Games       int64   `bigquery:"games"`
	Wins        int64   `bigquery:"wins"`
	Losses      int64   `bigquery:"losses"`
	Draws       int64   `bigquery:"draws"`
	LastRating  int64   `bigquery:"last_rating"`
	AvgAccuracy float64 `bigquery:"avg_accuracy"`
}

type warehouseService struct {
	log     *logger.Logger
	client  *bigquery.Client
	project string
	dataset string
	table   string
}

func NewWarehouseService(ctx context.Context, log *logger.Logger) (WarehouseService, error) {
	project := os.Getenv("GCP_PROJECT")
	if project == "" {
		return nil, fmt.Errorf("missing env var GCP_PROJECT")
	}
	dataset := os.Getenv("BQ_DATASET")
	if dataset == "" {
		dataset = "chesscom"
	}
	table := os.Getenv("BQ_GAMES_TABLE")
	if table == "" {
		table = "chess_games"
	}

	client, err := bigquery.NewClient(ctx, project, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &warehouseService{
		log:     log.With("service", "WarehouseService"),
		client:  client,
		project: project,
		dataset: dataset,
		table:   table,
	}, nil
}

func (ws *warehouseService) LoadCSVFromGCS(ctx context.Context, uris []string) error {
	gcsRef := bigquery.NewGCSReference(uris...)
	gcsRef.SourceFormat = bigquery.CSV
	gcsRef.SkipLeadingRows = 1

	loader := ws.client.Dataset(ws.dataset).Table(ws.table).LoaderFrom(gcsRef)
	loader.WriteDisposition = bigquery.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to submit bigquery load job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("bigquery load job %s did not complete: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("bigquery load job %s failed: %w", job.ID(), err)
	}
	ws.log.Info("BigQuery load job finished", "job_id", job.ID(), "uris", len(uris))
	return nil
}

func (ws *warehouseService) PlayerSummary(ctx context.Context, player string) ([]PlayerTimeClassSummary, error) {
	q := ws.client.Query(fmt.Sprintf(`
		SELECT
			time_class,
			COUNT(*) AS games,
			COUNTIF((LOWER(white_player) = @player AND result_white = 'win')
				OR (LOWER(black_player) = @player AND result_black = 'win')) AS wins,
			COUNTIF((LOWER(white_player) = @player AND result_black = 'win')
				OR (LOWER(black_player) = @player AND result_white = 'win')) AS losses,
			COUNTIF(result_white NOT IN ('win') AND result_black NOT IN ('win')) AS draws,
			ARRAY_AGG(IF(LOWER(white_player) = @player, rating_white, rating_black)
				ORDER BY end_time DESC LIMIT 1)[OFFSET(0)] AS last_rating,
			ROUND(IFNULL(AVG(NULLIF(IF(LOWER(white_player) = @player, accuracy_white, accuracy_black), 0)), 0), 2) AS avg_accuracy
		FROM %s.%s.%s
		WHERE user_id = @player
		GROUP BY time_class
		ORDER BY games DESC
	`, "`"+ws.project+"`", ws.dataset, ws.table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "player", Value: player},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run player summary query: %w", err)
	}
	rows := []PlayerTimeClassSummary{}
	for {
		var row PlayerTimeClassSummary
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read player summary row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (ws *warehouseService) Close() error {
	return ws.client.Close()
}
