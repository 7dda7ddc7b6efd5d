package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DavideMichelon10/chess-data/internal/clients/gcp"
	"github.com/DavideMichelon10/chess-data/internal/platform/logger"
)

type SearchHandler struct {
	log       *logger.Logger
	warehouse gcp.WarehouseService
}

func NewSearchHandler(log *logger.Logger, warehouse gcp.WarehouseService) *SearchHandler {
	return &SearchHandler{log: log.With("handler", "Search"), warehouse: warehouse}
}

// Search aggregates the games table for one player, one row per time class.
func (h *SearchHandler) Search(c *gin.Context) {
	player := strings.ToLower(strings.TrimSpace(c.Query("player_name")))
	if player == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player_name is required"})
		return
	}

	rows, err := h.warehouse.PlayerSummary(c.Request.Context(), player)
	if err != nil {
		h.log.Error("Player summary query failed", "player", player, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "no games found for this player"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"player_name": player, "stats": rows})
}

type TopPlayersHandler struct {
	log   *logger.Logger
	users gcp.UserStore
}

func NewTopPlayersHandler(log *logger.Logger, users gcp.UserStore) *TopPlayersHandler {
	return &TopPlayersHandler{log: log.With("handler", "TopPlayers"), users: users}
}

// TopPlayers lists tracked players ordered by rating for one game type.
func (h *TopPlayersHandler) TopPlayers(c *gin.Context) {
	gameType := strings.TrimSpace(c.Query("game_type"))
	if gameType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "game_type is required"})
		return
	}
	category := strings.TrimSpace(c.Query("category"))

	limit := 100
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = parsed
	}

	players, err := h.users.TopPlayers(c.Request.Context(), gameType, category, limit)
	if err != nil {
		h.log.Error("Top players query failed", "game_type", gameType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_type": gameType, "players": players})
}
