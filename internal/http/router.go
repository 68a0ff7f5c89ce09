// Package http exposes the converter pipeline over a small JSON/multipart
// API: upload Kindle sources, download the generated deck.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/kindledeck/internal/pipeline"
)

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	Pipeline      *pipeline.Pipeline
	MaxUploadSize int64
	Version       string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	decks := NewDecksController(cfg.Pipeline, cfg.MaxUploadSize)
	health := NewHealthController(cfg.Version)

	api := router.Group("/api")
	{
		api.POST("/decks", decks.Generate)
		api.POST("/sources/preview", decks.Preview)
	}

	router.GET("/health", health.Status)

	return router
}
