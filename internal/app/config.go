package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
	"github.com/DavideMichelon10/chess-data/internal/utils"
)

type Config struct {
	RequestDelay time.Duration
	StartYear    int

	// Players is the manual entity list for the ingest run; a YAML players
	// file, when configured, is merged in by LoadPlayers.
	Players     []string
	PlayersFile string

	ServerPort  string
	CORSOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	delayMS := utils.GetEnvAsInt("CHESSCOM_REQUEST_DELAY_MS", 500, log)
	startYear := utils.GetEnvAsInt("INGEST_START_YEAR", 2025, log)

	players := splitList(utils.GetEnv("INGEST_PLAYERS", "davideblunder,ImNoob66", log))
	playersFile := utils.GetEnv("INGEST_PLAYERS_FILE", "", log)

	port := utils.GetEnv("PORT", "8080", log)
	origins := splitList(utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173", log))

	return Config{
		RequestDelay: time.Duration(delayMS) * time.Millisecond,
		StartYear:    startYear,
		Players:      players,
		PlayersFile:  playersFile,
		ServerPort:   port,
		CORSOrigins:  origins,
	}
}

// LoadPlayers returns the run's entity list: the YAML players file when
// configured, otherwise the manual list from the environment.
func (c Config) LoadPlayers() ([]string, error) {
	if c.PlayersFile == "" {
		return c.Players, nil
	}
	raw, err := os.ReadFile(c.PlayersFile)
	if err != nil {
		return nil, fmt.Errorf("read players file %q: %w", c.PlayersFile, err)
	}
	var doc struct {
		Players []string `yaml:"players"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse players file %q: %w", c.PlayersFile, err)
	}
	if len(doc.Players) == 0 {
		return nil, fmt.Errorf("players file %q lists no players", c.PlayersFile)
	}
	return doc.Players, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
