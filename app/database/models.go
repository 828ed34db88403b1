package database

import (
	"time"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Episode represents one topic-to-finished-podcast generation request and its
// persisted result. All derived fields are nil until the generation pipeline
// fills them in.
type Episode struct {
	ID              string
	Topic           string
	Tone            string
	Category        *string
	Status          string
	CreatedAt       time.Time
	CoverImageURL   *string
	ResearchNotes   *string
	Script          *string
	Citations       []Citation
	AudioFilename   *string
	AudioURL        *string
	DurationSeconds *float64
	Error           *string
}

// Citation is a resolved bibliographic reference attached to an episode's
// research. Produced once by the citation resolver, never mutated.
type Citation struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	PublishedDate *string  `json:"published_date"`
	ThumbnailURL  *string  `json:"thumbnail_url"`
	SourceURL     *string  `json:"source_url"`
	SourceName    string   `json:"source_name"`
}
