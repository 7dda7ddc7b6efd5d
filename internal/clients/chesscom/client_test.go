package chesscom

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

func testClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("CHESSCOM_API_BASE", srv.URL)
	return NewClient(logger.NewNop(), 0)
}

func TestMonthlyGames(t *testing.T) {
	var gotPath, gotUA string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"games":[{"url":"https://x/1","end_time":1735772400,"time_control":"180","time_class":"blitz","eco":"C20","white":{"username":"a","rating":2000,"result":"win"},"black":{"username":"b","rating":1990,"result":"resigned"},"accuracies":{"white":95.5,"black":80.1}}]}`))
	}))

	games, err := c.MonthlyGames(context.Background(), "MagnusCarlsen", 2025, 1)
	if err != nil {
		t.Fatalf("MonthlyGames: %v", err)
	}
	if gotPath != "/player/magnuscarlsen/games/2025/01" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotUA == "" || gotUA == "Go-http-client/1.1" {
		t.Fatalf("user agent not set, got %q", gotUA)
	}
	if len(games) != 1 {
		t.Fatalf("games = %d", len(games))
	}
	g := games[0]
	if g.White.Username != "a" || g.Black.Rating != 1990 || g.Accuracies == nil || g.Accuracies.White != 95.5 {
		t.Fatalf("decoded game = %+v", g)
	}
}

func TestMonthlyGamesNon200(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	_, err := c.MonthlyGames(context.Background(), "p1", 2025, 2)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d", httpErr.StatusCode)
	}
	if httpErr.HTTPStatusCode() != http.StatusForbidden {
		t.Fatalf("HTTPStatusCode() = %d", httpErr.HTTPStatusCode())
	}
}

func TestTitledPlayers(t *testing.T) {
	var gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"players":["gm1","gm2"]}`))
	}))

	players, err := c.TitledPlayers(context.Background(), "gm")
	if err != nil {
		t.Fatalf("TitledPlayers: %v", err)
	}
	if gotPath != "/titled/GM" {
		t.Fatalf("path = %q", gotPath)
	}
	if len(players) != 2 || players[0] != "gm1" {
		t.Fatalf("players = %v", players)
	}
}

func TestLeaderboardPlayersDeduplicates(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"live_bullet": [{"username":"hikaru"},{"username":"magnus"}],
			"live_blitz":  [{"username":"magnus"},{"username":"firouzja"}],
			"tactics":     [{"username":"ignored"}]
		}`))
	}))

	players, err := c.LeaderboardPlayers(context.Background())
	if err != nil {
		t.Fatalf("LeaderboardPlayers: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("players = %v", players)
	}
	for _, p := range players {
		if p == "ignored" {
			t.Fatalf("non-tracked category leaked into %v", players)
		}
	}
}

func TestRateLimiterPacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"games":[]}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("CHESSCOM_API_BASE", srv.URL)
	paced := NewClient(logger.NewNop(), 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := paced.MonthlyGames(context.Background(), "p1", 2025, 1); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Fatalf("three requests finished in %v, limiter not pacing", elapsed)
	}
}
