package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/DavideMichelon10/chess-data/internal/clients/chesscom"
)

// GameRecord is one normalized game, matching the warehouse table column
// for column.
type GameRecord struct {
	GameID        string
	UserID        string
	WhitePlayer   string
	BlackPlayer   string
	RatingWhite   int
	RatingBlack   int
	ResultWhite   string
	ResultBlack   string
	AccuracyWhite float64
	AccuracyBlack float64
	TimeControl   string
	TimeClass     string
	EndTime       int64
	Moves         string
	ECO           string
	URL           string
}

// CSVHeader is the fixed warehouse schema, in load order.
var CSVHeader = []string{
	"game_id", "user_id", "white_player", "black_player",
	"rating_white", "rating_black", "result_white", "result_black",
	"accuracy_white", "accuracy_black", "time_control", "time_class",
	"end_time", "moves", "eco", "url",
}

// RecordFromGame normalizes one raw archive entry. It is total: missing
// optional fields degrade to zero values, never to an error.
func RecordFromGame(g chesscom.Game, player string) GameRecord {
	rec := GameRecord{
		GameID:      gameIDFromURL(g.URL),
		UserID:      strings.ToLower(player),
		WhitePlayer: g.White.Username,
		BlackPlayer: g.Black.Username,
		RatingWhite: g.White.Rating,
		RatingBlack: g.Black.Rating,
		ResultWhite: g.White.Result,
		ResultBlack: g.Black.Result,
		TimeControl: g.TimeControl,
		TimeClass:   g.TimeClass,
		EndTime:     g.EndTime,
		Moves:       MovesFromPGN(g.PGN),
		ECO:         g.ECO,
		URL:         g.URL,
	}
	if g.Accuracies != nil {
		rec.AccuracyWhite = g.Accuracies.White
		rec.AccuracyBlack = g.Accuracies.Black
	}
	return rec
}

// Day returns the owning day of the record: the UTC calendar date of the
// game's end timestamp.
func (r GameRecord) Day() string {
	return time.Unix(r.EndTime, 0).UTC().Format("2006-01-02")
}

// CSVRow renders the record in CSVHeader order.
func (r GameRecord) CSVRow() []string {
	return []string{
		r.GameID,
		r.UserID,
		r.WhitePlayer,
		r.BlackPlayer,
		strconv.Itoa(r.RatingWhite),
		strconv.Itoa(r.RatingBlack),
		r.ResultWhite,
		r.ResultBlack,
		strconv.FormatFloat(r.AccuracyWhite, 'f', -1, 64),
		strconv.FormatFloat(r.AccuracyBlack, 'f', -1, 64),
		r.TimeControl,
		r.TimeClass,
		strconv.FormatInt(r.EndTime, 10),
		r.Moves,
		r.ECO,
		r.URL,
	}
}

func gameIDFromURL(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

var (
	moveLineRe  = regexp.MustCompile(`^\d+\.`)
	braceSpanRe = regexp.MustCompile(`\{[^}]*\}`)
	resultTokRe = regexp.MustCompile(`\s(0-1|1-0|1/2-1/2)$`)
)

// MovesFromPGN reduces a raw PGN transcript to a single-spaced move string:
// only lines starting with a move number survive, brace annotations and the
// trailing result token are stripped, whitespace collapses to single spaces.
func MovesFromPGN(pgn string) string {
	var moveLines []string
	for _, line := range strings.Split(strings.TrimSpace(pgn), "\n") {
		if moveLineRe.MatchString(line) {
			moveLines = append(moveLines, line)
		}
	}
	moves := strings.Join(moveLines, " ")
	moves = braceSpanRe.ReplaceAllString(moves, "")
	moves = strings.Join(strings.Fields(moves), " ")
	moves = resultTokRe.ReplaceAllString(moves, "")
	return strings.TrimSpace(moves)
}
