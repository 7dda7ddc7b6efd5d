package chesscom

import "encoding/json"

// Game is one entry of a monthly archive as returned by
// /pub/player/{username}/games/{YYYY}/{MM}.
type Game struct {
	URL         string      `json:"url"`
	PGN         string      `json:"pgn"`
	EndTime     int64       `json:"end_time"`
	TimeControl string      `json:"time_control"`
	TimeClass   string      `json:"time_class"`
	ECO         string      `json:"eco"`
	White       GameSide    `json:"white"`
	Black       GameSide    `json:"black"`
	Accuracies  *Accuracies `json:"accuracies"`
}

type GameSide struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

type Accuracies struct {
	White float64 `json:"white"`
	Black float64 `json:"black"`
}

type monthlyGamesResponse struct {
	Games []Game `json:"games"`
}

type titledResponse struct {
	Players []string `json:"players"`
}

// Profile is the public player profile. Optional fields stay pointers so the
// Firestore writer can drop what the API omitted.
type Profile struct {
	Username   string  `json:"username"`
	PlayerID   int64   `json:"player_id"`
	Title      *string `json:"title"`
	Name       *string `json:"name"`
	Avatar     *string `json:"avatar"`
	Country    *string `json:"country"`
	Location   *string `json:"location"`
	Followers  *int    `json:"followers"`
	Joined     *int64  `json:"joined"`
	LastOnline *int64  `json:"last_online"`
	Status     *string `json:"status"`
}

// Stats keeps the per-game-type blocks raw; the collector only projects the
// handful of fields it persists.
type Stats map[string]json.RawMessage

// StatsBlock is the shape of one game-type block inside Stats.
type StatsBlock struct {
	Last *struct {
		Rating *int `json:"rating"`
	} `json:"last"`
	Best *struct {
		Rating *int    `json:"rating"`
		Game   *string `json:"game"`
	} `json:"best"`
	Record *struct {
		Win  *int `json:"win"`
		Loss *int `json:"loss"`
		Draw *int `json:"draw"`
	} `json:"record"`
}

type leaderboardsResponse map[string]json.RawMessage

type leaderboardEntry struct {
	Username string `json:"username"`
}
