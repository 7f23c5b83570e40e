package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates the status API router
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)
	r.GET("/sources", handler.ListSources)
	r.GET("/items", handler.ListItems)
	r.GET("/feed.xml", handler.GetFeed)

	if handler.archive == nil {
		slog.Info("Archive endpoints disabled (ARCHIVE_PATH not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"health":  "/health",
			"stats":   "/stats",
			"sources": "/sources",
		}
		if handler.archive != nil {
			endpoints["items"] = "/items?limit=<n>"
			endpoints["feed"] = "/feed.xml"
		}

		c.JSON(200, gin.H{
			"service":     "newswire",
			"version":     handler.version,
			"description": "Financial news poller with per-source deduplication",
			"endpoints":   endpoints,
			"archive":     handler.archive != nil,
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
