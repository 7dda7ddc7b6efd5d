package collector

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/DavideMichelon10/chess-data/internal/clients/chesscom"
)

// Titles whose full player lists are pulled during discovery.
var DefaultTitles = []string{"GM", "IM", "FM", "CM"}

// TitledPlayers fetches the titled-player lists concurrently and returns the
// deduplicated union, sorted. The shared client limiter still paces the
// individual requests.
func TitledPlayers(ctx context.Context, api chesscom.Client, titles []string) ([]string, error) {
	var mu sync.Mutex
	seen := map[string]bool{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, title := range titles {
		g.Go(func() error {
			players, err := api.TitledPlayers(ctx, title)
			if err != nil {
				return err
			}
			mu.Lock()
			for _, p := range players {
				seen[strings.ToLower(p)] = true
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// MergePlayers unions player lists preserving first-seen order, case
// insensitively.
func MergePlayers(lists ...[]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range lists {
		for _, p := range list {
			key := strings.ToLower(strings.TrimSpace(p))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, p)
		}
	}
	return out
}
