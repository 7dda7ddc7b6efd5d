package ingest

import (
	"strings"
	"testing"

	"github.com/DavideMichelon10/chess-data/internal/clients/chesscom"
)

func TestMovesFromPGN(t *testing.T) {
	pgn := strings.Join([]string{
		`[Event "Live Chess"]`,
		`[Site "Chess.com"]`,
		`[Result "1-0"]`,
		``,
		`1. e4 {[%clk 0:02:58.9]} 1... e5 {[%clk 0:02:57.3]} 2. Nf3 {[%clk 0:02:55]}`,
		`2... Nc6 {[%clk 0:02:50.1]} 3. Bb5 {with tempo} 3... a6 1-0`,
	}, "\n")

	got := MovesFromPGN(pgn)
	want := "1. e4 1... e5 2. Nf3 2... Nc6 3. Bb5 3... a6"
	if got != want {
		t.Fatalf("MovesFromPGN:\n got %q\nwant %q", got, want)
	}
	if strings.Contains(got, "{") || strings.Contains(got, "}") {
		t.Fatalf("brace annotations survived: %q", got)
	}
	if strings.HasSuffix(got, "1-0") {
		t.Fatalf("trailing result token survived: %q", got)
	}
}

func TestMovesFromPGNEdgeCases(t *testing.T) {
	cases := []struct {
		name string
		pgn  string
		want string
	}{
		{"empty", "", ""},
		{"headers only", "[Event \"x\"]\n[Site \"y\"]", ""},
		{"no result token", "1. d4 d5 2. c4", "1. d4 d5 2. c4"},
		{"draw token", "1. d4 d5  1/2-1/2", "1. d4 d5"},
		{"black wins token", "1. f3 e5 2. g4 Qh4# 0-1", "1. f3 e5 2. g4 Qh4#"},
		{"repeated whitespace", "1. e4   e5\t2. Nf3", "1. e4 e5 2. Nf3"},
		{"braces with moves inside", "1. e4 {best by test 1. d4} e5 1-0", "1. e4 e5"},
		{"multi line joined", "1. e4 e5\n2. Nf3 Nc6\n3. Bb5", "1. e4 e5 2. Nf3 Nc6 3. Bb5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MovesFromPGN(tc.pgn); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRecordFromGame(t *testing.T) {
	game := chesscom.Game{
		URL:         "https://www.chess.com/game/live/140731239821",
		PGN:         "1. e4 e5 1-0",
		EndTime:     1735772400, // 2025-01-01T23:00:00Z
		TimeControl: "180",
		TimeClass:   "blitz",
		ECO:         "C20",
		White:       chesscom.GameSide{Username: "p1", Rating: 2800, Result: "win"},
		Black:       chesscom.GameSide{Username: "p2", Rating: 2750, Result: "resigned"},
		Accuracies:  &chesscom.Accuracies{White: 97.1, Black: 88.4},
	}

	rec := RecordFromGame(game, "P1")
	if rec.GameID != "140731239821" {
		t.Fatalf("GameID = %q", rec.GameID)
	}
	if rec.UserID != "p1" {
		t.Fatalf("UserID should be lowercased, got %q", rec.UserID)
	}
	if rec.Day() != "2025-01-01" {
		t.Fatalf("Day = %q, want 2025-01-01", rec.Day())
	}
	if rec.AccuracyWhite != 97.1 || rec.AccuracyBlack != 88.4 {
		t.Fatalf("accuracies = %v / %v", rec.AccuracyWhite, rec.AccuracyBlack)
	}
	if rec.Moves != "1. e4 e5" {
		t.Fatalf("Moves = %q", rec.Moves)
	}
}

func TestRecordFromGameMissingAccuracies(t *testing.T) {
	rec := RecordFromGame(chesscom.Game{URL: "https://x/123", EndTime: 1735772400}, "p1")
	if rec.AccuracyWhite != 0.0 || rec.AccuracyBlack != 0.0 {
		t.Fatalf("missing accuracies must default to 0.0, got %v / %v", rec.AccuracyWhite, rec.AccuracyBlack)
	}
}

func TestDayAttributionIsUTC(t *testing.T) {
	// 2025-03-09T23:59:59Z vs 2025-03-10T00:00:00Z: one second apart,
	// different owning days.
	before := GameRecord{EndTime: 1741564799}
	after := GameRecord{EndTime: 1741564800}
	if before.Day() != "2025-03-09" {
		t.Fatalf("before = %q", before.Day())
	}
	if after.Day() != "2025-03-10" {
		t.Fatalf("after = %q", after.Day())
	}
}

func TestCSVRowMatchesHeader(t *testing.T) {
	rec := RecordFromGame(chesscom.Game{URL: "https://x/42", EndTime: 1735772400}, "p1")
	row := rec.CSVRow()
	if len(row) != len(CSVHeader) {
		t.Fatalf("row has %d fields, header has %d", len(row), len(CSVHeader))
	}
	if row[0] != "42" {
		t.Fatalf("game_id column = %q", row[0])
	}
	if row[len(row)-1] != "https://x/42" {
		t.Fatalf("url column = %q", row[len(row)-1])
	}
}
