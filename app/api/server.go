package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

func NewServer(handler *Handler, version string) *gin.Engine {
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
	}))

	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, version)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, version string) {
	r.POST("/episodes", handler.CreateEpisode)
	r.GET("/episodes", handler.ListEpisodes)
	r.GET("/episodes/categories", handler.GetCategories)
	r.GET("/episodes/:id", handler.GetEpisode)
	r.POST("/episodes/:id/regenerate", handler.RegenerateEpisode)

	r.GET("/feed.rss", handler.GetFeed)
	r.GET("/health", handler.GetHealth)

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "PodcastGPT Studio",
			"version":     version,
			"description": "Generates complete podcast episodes (script, citations, cover art, audio) from a topic",
			"endpoints": map[string]string{
				"create":     "/episodes (POST)",
				"list":       "/episodes",
				"episode":    "/episodes/<id>",
				"regenerate": "/episodes/<id>/regenerate (POST)",
				"categories": "/episodes/categories",
				"feed":       "/feed.rss",
				"health":     "/health",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
