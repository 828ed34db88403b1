package api

import (
	"time"

	"github.com/podcastgpt/studio/app/database"
	"github.com/podcastgpt/studio/app/tasks"
	"github.com/podcastgpt/studio/app/tones"
)

type Handler struct {
	repo      database.EpisodeRepository
	tones     *tones.Cache
	generator *FeedGenerator
	pipeline  tasks.PipelineRunner
	scheduler tasks.TaskSchedulerInterface
}

type createEpisodeRequest struct {
	Topic string `json:"topic"`
	Tone  string `json:"tone"`
}

type episodeResponse struct {
	ID              string              `json:"id"`
	Topic           string              `json:"topic"`
	Tone            string              `json:"tone"`
	Category        *string             `json:"category"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	CoverImageURL   *string             `json:"cover_image_url"`
	ResearchNotes   *string             `json:"research_notes"`
	Script          *string             `json:"script"`
	Citations       []database.Citation `json:"citations"`
	AudioFilename   *string             `json:"audio_filename"`
	AudioURL        *string             `json:"audio_url"`
	DurationSeconds *float64            `json:"duration_seconds"`
	Error           *string             `json:"error"`
}

func newEpisodeResponse(episode *database.Episode) episodeResponse {
	citations := episode.Citations
	if citations == nil {
		citations = []database.Citation{}
	}

	return episodeResponse{
		ID:              episode.ID,
		Topic:           episode.Topic,
		Tone:            episode.Tone,
		Category:        episode.Category,
		Status:          episode.Status,
		CreatedAt:       episode.CreatedAt,
		CoverImageURL:   episode.CoverImageURL,
		ResearchNotes:   episode.ResearchNotes,
		Script:          episode.Script,
		Citations:       citations,
		AudioFilename:   episode.AudioFilename,
		AudioURL:        episode.AudioURL,
		DurationSeconds: episode.DurationSeconds,
		Error:           episode.Error,
	}
}
