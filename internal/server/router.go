package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	SearchHandler     *SearchHandler
	TopPlayersHandler *TopPlayersHandler

	// AllowedOrigins restricts CORS to the frontend; empty means same-origin
	// only.
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	if cfg.SearchHandler != nil {
		r.GET("/search/", cfg.SearchHandler.Search)
	}
	if cfg.TopPlayersHandler != nil {
		r.GET("/top-players/", cfg.TopPlayersHandler.TopPlayers)
	}

	return r
}
