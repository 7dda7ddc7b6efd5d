package collector

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/DavideMichelon10/chess-data/internal/clients/chesscom"
	"github.com/DavideMichelon10/chess-data/internal/clients/gcp"
	"github.com/DavideMichelon10/chess-data/internal/platform/httpx"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

// Collector refreshes profile, stats and avatar enrichment for the tracked
// players. It has no correctness invariant: every per-player failure is
// logged and skipped.
type Collector struct {
	log     *logger.Logger
	api     chesscom.Client
	users   gcp.UserStore
	buckets gcp.BucketService
}

func New(log *logger.Logger, api chesscom.Client, users gcp.UserStore, buckets gcp.BucketService) *Collector {
	return &Collector{
		log:     log.With("service", "Collector"),
		api:     api,
		users:   users,
		buckets: buckets,
	}
}

// Players returns the union of players already tracked in Firestore and the
// current leaderboard top players. Fetched once per run, no caching.
func (c *Collector) Players(ctx context.Context) ([]string, error) {
	existing, err := c.users.ExistingPlayers(ctx)
	if err != nil {
		return nil, err
	}
	leaders, err := c.api.LeaderboardPlayers(ctx)
	if err != nil {
		c.log.Warn("Leaderboard fetch failed, refreshing existing players only", "error", err)
		leaders = nil
	}

	seen := map[string]bool{}
	players := []string{}
	for _, p := range append(existing, leaders...) {
		key := strings.ToLower(p)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		players = append(players, p)
	}
	return players, nil
}

// Refresh updates every player's Firestore document. Returns the number of
// players actually saved.
func (c *Collector) Refresh(ctx context.Context, players []string) (int, error) {
	saved := 0
	for _, player := range players {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if err := c.refreshPlayer(ctx, player); err != nil {
			c.log.Warn("Skipping player", "player", player, "error", err)
			continue
		}
		saved++
	}
	c.log.Info("Collector run finished", "players", len(players), "saved", saved)
	return saved, nil
}

func (c *Collector) refreshPlayer(ctx context.Context, player string) error {
	profile, err := c.api.PlayerProfile(ctx, player)
	if err != nil {
		return fmt.Errorf("profile (status %d): %w", httpx.StatusCode(err), err)
	}

	stats, err := c.api.PlayerStats(ctx, player)
	if err != nil {
		c.log.Warn("Stats fetch failed, saving profile only", "player", player, "error", err)
		stats = chesscom.Stats{}
	}

	avatarURL := ""
	if profile.Avatar != nil && *profile.Avatar != "" {
		stored, err := c.storeAvatar(ctx, player, *profile.Avatar)
		if err != nil {
			// Cosmetic enrichment only; the user doc is still saved.
			c.log.Warn("Avatar store failed", "player", player, "error", err)
		} else {
			avatarURL = stored
		}
	}

	return c.users.SaveUser(ctx, player, profile, stats, avatarURL)
}

// storeAvatar downloads the avatar into the avatar bucket under a
// content-addressed key and returns the gs:// URL. Re-downloads are skipped
// when the object already exists.
func (c *Collector) storeAvatar(ctx context.Context, player, avatarURL string) (string, error) {
	key := avatarKey(player, avatarURL)
	exists, err := c.buckets.Exists(ctx, gcp.BucketCategoryAvatar, key)
	if err != nil {
		return "", err
	}
	if !exists {
		data, contentType, err := c.api.Download(ctx, avatarURL)
		if err != nil {
			return "", err
		}
		if err := c.buckets.Upload(ctx, gcp.BucketCategoryAvatar, key, data, contentType); err != nil {
			return "", err
		}
	}
	return c.buckets.ObjectURI(gcp.BucketCategoryAvatar, key), nil
}

func avatarKey(player, avatarURL string) string {
	ext := ".jpg"
	if u, err := url.Parse(avatarURL); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}
	hash := fmt.Sprintf("%x", md5.Sum([]byte(avatarURL)))
	return fmt.Sprintf("avatars/%s/%s%s", strings.ToLower(player), hash, ext)
}
