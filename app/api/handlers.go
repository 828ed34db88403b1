package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/podcastgpt/studio/app/database"
	"github.com/podcastgpt/studio/app/tasks"
	"github.com/podcastgpt/studio/app/tones"
)

const defaultTone = "conversational"

func NewHandler(repo database.EpisodeRepository, toneCache *tones.Cache,
	pipeline tasks.PipelineRunner, scheduler tasks.TaskSchedulerInterface,
	generator *FeedGenerator) *Handler {
	return &Handler{
		repo:      repo,
		tones:     toneCache,
		generator: generator,
		pipeline:  pipeline,
		scheduler: scheduler,
	}
}

func (h *Handler) CreateEpisode(c *gin.Context) {
	var req createEpisodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return
	}

	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = defaultTone
	}
	if !h.tones.Has(tone) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Unsupported tone",
			"supported": h.tones.Names(),
		})
		return
	}

	episode, err := h.repo.CreateEpisode(topic, tone)
	if err != nil {
		slog.Error("Database error", "operation", "create_episode", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create episode"})
		return
	}

	task := tasks.NewGenerateEpisodeTask(episode.ID, h.pipeline)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing generation task", "episode", episode.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue generation task"})
		return
	}

	c.JSON(http.StatusCreated, newEpisodeResponse(episode))
}

func (h *Handler) GetEpisode(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid episode ID format"})
		return
	}

	episode, err := h.repo.GetEpisode(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_episode", "episode", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if episode == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Episode not found"})
		return
	}

	c.JSON(http.StatusOK, newEpisodeResponse(episode))
}

func (h *Handler) ListEpisodes(c *gin.Context) {
	opts := database.ListOptions{
		Search:    c.Query("search"),
		Category:  c.Query("category"),
		Tone:      c.Query("tone"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil {
		opts.Offset = offset
	}

	episodes, err := h.repo.ListEpisodes(opts)
	if err != nil {
		slog.Error("Database error", "operation", "list_episodes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]episodeResponse, 0, len(episodes))
	for i := range episodes {
		responses = append(responses, newEpisodeResponse(&episodes[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"episodes": responses,
		"count":    len(responses),
	})
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.repo.GetCategories()
	if err != nil {
		slog.Error("Database error", "operation", "get_categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if categories == nil {
		categories = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) RegenerateEpisode(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid episode ID format"})
		return
	}

	episode, err := h.repo.ResetEpisode(id)
	if err != nil {
		slog.Error("Database error", "operation", "reset_episode", "episode", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if episode == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Episode not found"})
		return
	}

	task := tasks.NewGenerateEpisodeTask(episode.ID, h.pipeline)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing regeneration task", "episode", episode.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue generation task"})
		return
	}

	c.JSON(http.StatusAccepted, newEpisodeResponse(episode))
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if episodeCount, err := h.repo.GetEpisodeCount(); err == nil {
		health["episodes"] = episodeCount
	}

	health["loaded_tones"] = len(h.tones.Names())

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetFeed(c *gin.Context) {
	episodes, err := h.repo.ListEpisodes(database.ListOptions{Limit: 100})
	if err != nil {
		slog.Error("Database error", "operation", "list_episodes", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(episodes)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	published := 0
	for i := range episodes {
		if episodes[i].Status == database.StatusComplete && episodes[i].AudioURL != nil {
			published++
		}
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(published))

	c.String(http.StatusOK, rss)
}
