package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/DavideMichelon10/chess-data/internal/clients/chesscom"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

// UserStore is the Firestore surface: one document per player under the
// users collection, holding profile/stats enrichment plus the ingestion
// watermark (collected_days).
type UserStore interface {
	// CollectedDays returns the committed day set for a player; a missing
	// document yields an empty set, not an error.
	CollectedDays(ctx context.Context, player string) (map[string]bool, error)
	// CommitDays unions days into collected_days. Idempotent; never removes.
	CommitDays(ctx context.Context, player string, days []string) error

	ExistingPlayers(ctx context.Context) ([]string, error)
	SaveUser(ctx context.Context, player string, profile *chesscom.Profile, stats chesscom.Stats, avatarStorageURL string) error
	TopPlayers(ctx context.Context, gameType, category string, limit int) ([]TopPlayer, error)

	Close() error
}

// TopPlayer is one row of the /top-players listing.
type TopPlayer struct {
	Username   string `json:"username"`
	Name       string `json:"name,omitempty"`
	LastRating int    `json:"last_rating"`
	Win        int    `json:"win"`
	Loss       int    `json:"loss"`
	Draw       int    `json:"draw"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

type userStore struct {
	log        *logger.Logger
	client     *firestore.Client
	collection string
}

func NewUserStore(ctx context.Context, log *logger.Logger) (UserStore, error) {
	project := os.Getenv("GCP_PROJECT")
	if project == "" {
		return nil, fmt.Errorf("missing env var GCP_PROJECT")
	}
	collection := os.Getenv("FIRESTORE_USERS_COLLECTION")
	if collection == "" {
		collection = "chesscom_users"
	}

	client, err := firestore.NewClient(ctx, project, ClientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &userStore{
		log:        log.With("service", "UserStore"),
		client:     client,
		collection: collection,
	}, nil
}

func (us *userStore) doc(player string) *firestore.DocumentRef {
	return us.client.Collection(us.collection).Doc(strings.ToLower(player))
}

func (us *userStore) CollectedDays(ctx context.Context, player string) (map[string]bool, error) {
	snap, err := us.doc(player).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user doc for %q: %w", player, err)
	}

	var payload struct {
		CollectedDays []string `firestore:"collected_days"`
	}
	if err := snap.DataTo(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode collected_days for %q: %w", player, err)
	}
	days := make(map[string]bool, len(payload.CollectedDays))
	for _, d := range payload.CollectedDays {
		days[d] = true
	}
	return days, nil
}

func (us *userStore) CommitDays(ctx context.Context, player string, days []string) error {
	if len(days) == 0 {
		return nil
	}
	elems := make([]any, len(days))
	for i, d := range days {
		elems[i] = d
	}
	_, err := us.doc(player).Set(ctx, map[string]any{
		"collected_days": firestore.ArrayUnion(elems...),
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to commit collected_days for %q: %w", player, err)
	}
	return nil
}

func (us *userStore) ExistingPlayers(ctx context.Context) ([]string, error) {
	it := us.client.Collection(us.collection).DocumentRefs(ctx)
	players := []string{}
	for {
		ref, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list user docs: %w", err)
		}
		players = append(players, ref.ID)
	}
	return players, nil
}

func (us *userStore) SaveUser(ctx context.Context, player string, profile *chesscom.Profile, stats chesscom.Stats, avatarStorageURL string) error {
	data := map[string]any{
		"last_updated": firestore.ServerTimestamp,
	}

	if profile != nil {
		setIfPresent := func(key string, v any) {
			switch p := v.(type) {
			case *string:
				if p != nil {
					data[key] = *p
				}
			case *int:
				if p != nil {
					data[key] = *p
				}
			case *int64:
				if p != nil {
					data[key] = *p
				}
			}
		}
		data["username"] = profile.Username
		data["player_id"] = profile.PlayerID
		setIfPresent("title", profile.Title)
		setIfPresent("name", profile.Name)
		setIfPresent("country", profile.Country)
		setIfPresent("location", profile.Location)
		setIfPresent("followers", profile.Followers)
		setIfPresent("joined", profile.Joined)
		setIfPresent("last_online", profile.LastOnline)
		setIfPresent("status", profile.Status)
		if avatarStorageURL != "" {
			data["avatar_storage_url"] = avatarStorageURL
			setIfPresent("original_avatar_url", profile.Avatar)
		}
	}

	for gameType, block := range statsBlocks(stats) {
		fields := map[string]any{}
		if block.Last != nil && block.Last.Rating != nil {
			fields["last_rating"] = *block.Last.Rating
		}
		if block.Best != nil {
			if block.Best.Rating != nil {
				fields["best_rating"] = *block.Best.Rating
			}
			if block.Best.Game != nil {
				fields["best_game_url"] = *block.Best.Game
			}
		}
		if block.Record != nil {
			if block.Record.Win != nil {
				fields["win"] = *block.Record.Win
			}
			if block.Record.Loss != nil {
				fields["loss"] = *block.Record.Loss
			}
			if block.Record.Draw != nil {
				fields["draw"] = *block.Record.Draw
			}
		}
		if len(fields) > 0 {
			data[gameType] = fields
		}
	}

	if _, err := us.doc(player).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to save user doc for %q: %w", player, err)
	}
	return nil
}

func (us *userStore) TopPlayers(ctx context.Context, gameType, category string, limit int) ([]TopPlayer, error) {
	q := us.client.Collection(us.collection).Query
	if category != "" {
		q = q.Where("category", "==", category)
	}
	q = q.OrderBy(gameType+".last_rating", firestore.Desc).Limit(limit)

	it := q.Documents(ctx)
	defer it.Stop()

	players := []TopPlayer{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query top players: %w", err)
		}
		data := snap.Data()
		block, ok := data[gameType].(map[string]any)
		if !ok {
			continue
		}
		p := TopPlayer{Username: snap.Ref.ID}
		if name, ok := data["name"].(string); ok {
			p.Name = name
		}
		p.LastRating = intField(block, "last_rating")
		p.Win = intField(block, "win")
		p.Loss = intField(block, "loss")
		p.Draw = intField(block, "draw")
		if gs, ok := data["avatar_storage_url"].(string); ok && gs != "" {
			p.AvatarURL = strings.Replace(gs, "gs://", "https://storage.googleapis.com/", 1)
		}
		players = append(players, p)
	}
	return players, nil
}

func (us *userStore) Close() error {
	return us.client.Close()
}

// statsBlocks decodes only the game-type blocks that have the expected
// shape; anything else in the stats payload is skipped.
func statsBlocks(stats chesscom.Stats) map[string]chesscom.StatsBlock {
	out := map[string]chesscom.StatsBlock{}
	for gameType, raw := range stats {
		var block chesscom.StatsBlock
		if err := json.Unmarshal(raw, &block); err != nil {
			continue
		}
		if block.Last == nil || block.Record == nil {
			continue
		}
		out[gameType] = block
	}
	return out
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
