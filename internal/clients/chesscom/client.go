package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

// The public API throttles aggressively and rejects default Go user agents,
// so every request carries a browser UA and goes through one shared limiter.
const defaultBaseURL = "https://api.chess.com/pub"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LeaderboardCategories are the boards the collector pulls top players from.
var LeaderboardCategories = []string{"live_bullet", "live_rapid", "daily", "live_blitz"}

// Client is the chess.com API client used by the ingestion pipeline and the
// collector. All calls share a single fixed-interval rate limiter; none of
// them retries internally.
type Client interface {
	MonthlyGames(ctx context.Context, player string, year, month int) ([]Game, error)
	PlayerProfile(ctx context.Context, player string) (*Profile, error)
	PlayerStats(ctx context.Context, player string) (Stats, error)
	TitledPlayers(ctx context.Context, title string) ([]string, error)
	LeaderboardPlayers(ctx context.Context) ([]string, error)
	Download(ctx context.Context, url string) ([]byte, string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a Client paced at one request per requestDelay. A zero
// delay disables pacing (tests).
func NewClient(log *logger.Logger, requestDelay time.Duration) Client {
	baseURL := strings.TrimSpace(os.Getenv("CHESSCOM_API_BASE"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	limit := rate.Inf
	if requestDelay > 0 {
		limit = rate.Every(requestDelay)
	}

	return &client{
		log:        log.With("service", "ChesscomClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// HTTPError is a non-200 answer from the API.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("chesscom http %d: %s", e.StatusCode, e.URL)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) get(ctx context.Context, url string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("chesscom request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("chesscom read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, "", &HTTPError{StatusCode: resp.StatusCode, URL: url, Body: snippet}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func (c *client) getJSON(ctx context.Context, url string, out any) error {
	body, _, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("chesscom decode %s: %w", url, err)
	}
	return nil
}

func (c *client) MonthlyGames(ctx context.Context, player string, year, month int) ([]Game, error) {
	url := fmt.Sprintf("%s/player/%s/games/%d/%02d", c.baseURL, strings.ToLower(player), year, month)
	var payload monthlyGamesResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	return payload.Games, nil
}

func (c *client) PlayerProfile(ctx context.Context, player string) (*Profile, error) {
	url := c.baseURL + "/player/" + strings.ToLower(player)
	var profile Profile
	if err := c.getJSON(ctx, url, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *client) PlayerStats(ctx context.Context, player string) (Stats, error) {
	url := c.baseURL + "/player/" + strings.ToLower(player) + "/stats"
	var stats Stats
	if err := c.getJSON(ctx, url, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *client) TitledPlayers(ctx context.Context, title string) ([]string, error) {
	url := c.baseURL + "/titled/" + strings.ToUpper(title)
	var payload titledResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	return payload.Players, nil
}

func (c *client) LeaderboardPlayers(ctx context.Context) ([]string, error) {
	url := c.baseURL + "/leaderboards"
	var payload leaderboardsResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	players := []string{}
	for _, category := range LeaderboardCategories {
		raw, ok := payload[category]
		if !ok {
			continue
		}
		var entries []leaderboardEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			c.log.Warn("Skipping malformed leaderboard category", "category", category, "error", err)
			continue
		}
		for _, e := range entries {
			if e.Username == "" || seen[e.Username] {
				continue
			}
			seen[e.Username] = true
			players = append(players, e.Username)
		}
	}
	return players, nil
}

// Download fetches an arbitrary URL (avatar images) through the same limiter
// and returns the bytes plus the reported content type.
func (c *client) Download(ctx context.Context, url string) ([]byte, string, error) {
	body, contentType, err := c.get(ctx, url)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return body, contentType, nil
}
