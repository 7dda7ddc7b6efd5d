package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"

	"github.com/DavideMichelon10/chess-data/internal/clients/gcp"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

// StagingWriter accumulates records per (player, day) and flushes each batch
// as one CSV object under {player}/{day}/{gameID}.csv in the staging bucket.
// Batches are built whole in memory per run; a run always clears the
// player's prefix before staging, so a crashed previous run can never leak
// half a batch into the next load.
type StagingWriter struct {
	log     *logger.Logger
	buckets gcp.BucketService

	// player -> day -> records, insertion-ordered within a day
	batches map[string]map[string][]GameRecord
}

func NewStagingWriter(log *logger.Logger, buckets gcp.BucketService) *StagingWriter {
	return &StagingWriter{
		log:     log.With("service", "StagingWriter"),
		buckets: buckets,
		batches: map[string]map[string][]GameRecord{},
	}
}

// Clear removes everything staged for the player, both in memory and in the
// staging bucket.
func (w *StagingWriter) Clear(ctx context.Context, player string) error {
	delete(w.batches, player)
	if err := w.buckets.DeletePrefix(ctx, gcp.BucketCategoryStaging, player+"/"); err != nil {
		return &StagingError{Player: player, Err: fmt.Errorf("clear staging prefix: %w", err)}
	}
	return nil
}

// Stage appends one record to the player's batch for its owning day.
func (w *StagingWriter) Stage(player string, rec GameRecord) {
	days, ok := w.batches[player]
	if !ok {
		days = map[string][]GameRecord{}
		w.batches[player] = days
	}
	day := rec.Day()
	days[day] = append(days[day], rec)
}

// Days returns the sorted set of staged days for the player.
func (w *StagingWriter) Days(player string) []string {
	days := make([]string, 0, len(w.batches[player]))
	for day := range w.batches[player] {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// Flush uploads every staged batch for the player and returns the gs:// URIs
// of the written objects. Any upload failure aborts the flush; the warehouse
// load must never see a partially flushed player.
func (w *StagingWriter) Flush(ctx context.Context, player string) ([]string, error) {
	uris := []string{}
	for _, day := range w.Days(player) {
		records := w.batches[player][day]
		if len(records) == 0 {
			continue
		}
		key := fmt.Sprintf("%s/%s/%s.csv", player, day, records[0].GameID)
		data, err := encodeCSV(records)
		if err != nil {
			return nil, &StagingError{Player: player, Err: err}
		}
		if err := w.buckets.Upload(ctx, gcp.BucketCategoryStaging, key, data, "text/csv"); err != nil {
			return nil, &StagingError{Player: player, Err: err}
		}
		uris = append(uris, w.buckets.ObjectURI(gcp.BucketCategoryStaging, key))
	}
	return uris, nil
}

func encodeCSV(records []GameRecord) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(CSVHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.CSVRow()); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
