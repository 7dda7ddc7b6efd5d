package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DavideMichelon10/chess-data/internal/clients/chesscom"
	"github.com/DavideMichelon10/chess-data/internal/clients/gcp"
)

// fakeBucket is an in-memory gcp.BucketService.
type fakeBucket struct {
	objects   map[string][]byte // "category/key" -> data
	uploadErr error
	deleteErr error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (b *fakeBucket) fullKey(category gcp.BucketCategory, key string) string {
	return string(category) + "/" + key
}

func (b *fakeBucket) Upload(_ context.Context, category gcp.BucketCategory, key string, data []byte, _ string) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	b.objects[b.fullKey(category, key)] = data
	return nil
}

func (b *fakeBucket) Exists(_ context.Context, category gcp.BucketCategory, key string) (bool, error) {
	_, ok := b.objects[b.fullKey(category, key)]
	return ok, nil
}

func (b *fakeBucket) ListKeys(_ context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	keys := []string{}
	for k := range b.objects {
		if strings.HasPrefix(k, b.fullKey(category, prefix)) {
			keys = append(keys, strings.TrimPrefix(k, string(category)+"/"))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *fakeBucket) DeletePrefix(_ context.Context, category gcp.BucketCategory, prefix string) error {
	if b.deleteErr != nil {
		return b.deleteErr
	}
	for k := range b.objects {
		if strings.HasPrefix(k, b.fullKey(category, prefix)) {
			delete(b.objects, k)
		}
	}
	return nil
}

func (b *fakeBucket) ObjectURI(category gcp.BucketCategory, key string) string {
	return "gs://" + string(category) + "-bucket/" + key
}

func (b *fakeBucket) stagedKeys() []string {
	keys, _ := b.ListKeys(context.Background(), gcp.BucketCategoryStaging, "")
	return keys
}

// fakeFetcher serves canned monthly archives keyed by "player/YYYY-MM".
type fakeFetcher struct {
	months map[string][]chesscom.Game
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) MonthlyGames(_ context.Context, player string, year, month int) ([]chesscom.Game, error) {
	key := fmt.Sprintf("%s/%d-%02d", strings.ToLower(player), year, month)
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.months[key], nil
}

type fakeLoader struct {
	err   error
	loads [][]string
}

func (l *fakeLoader) LoadCSVFromGCS(_ context.Context, uris []string) error {
	if l.err != nil {
		return l.err
	}
	l.loads = append(l.loads, uris)
	return nil
}

type fakeWatermarks struct {
	days      map[string]map[string]bool
	commitErr error
	readErr   error
}

func newFakeWatermarks() *fakeWatermarks {
	return &fakeWatermarks{days: map[string]map[string]bool{}}
}

func (w *fakeWatermarks) CollectedDays(_ context.Context, player string) (map[string]bool, error) {
	if w.readErr != nil {
		return nil, w.readErr
	}
	out := map[string]bool{}
	for d := range w.days[strings.ToLower(player)] {
		out[d] = true
	}
	return out, nil
}

func (w *fakeWatermarks) CommitDays(_ context.Context, player string, days []string) error {
	if w.commitErr != nil {
		return w.commitErr
	}
	key := strings.ToLower(player)
	if w.days[key] == nil {
		w.days[key] = map[string]bool{}
	}
	for _, d := range days {
		w.days[key][d] = true
	}
	return nil
}

func (w *fakeWatermarks) sortedDays(player string) []string {
	out := []string{}
	for d := range w.days[strings.ToLower(player)] {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

var errBoom = errors.New("boom")

func mustDay(day string) int64 {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return t.Unix()
}

// gameOn builds a minimal game ending at noon UTC of the given day.
func gameOn(day string, id string) chesscom.Game {
	t := mustDay(day)
	return chesscom.Game{
		URL:     "https://www.chess.com/game/live/" + id,
		EndTime: t + 12*3600,
		White:   chesscom.GameSide{Username: "p1", Rating: 2000, Result: "win"},
		Black:   chesscom.GameSide{Username: "p2", Rating: 1990, Result: "checkmated"},
		PGN:     "1. e4 e5 1-0",
	}
}
