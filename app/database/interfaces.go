package database

// ListOptions controls filtering, sorting and pagination of episode listings.
// Zero values mean "no filter"; Limit is clamped to [1, 100] with a default
// of 20; unknown SortBy values fall back to created_at; SortOrder defaults
// to descending.
type ListOptions struct {
	Limit     int
	Offset    int
	Search    string
	Category  string
	Tone      string
	SortBy    string
	SortOrder string
}

type EpisodeRepository interface {
	CreateEpisode(topic, tone string) (*Episode, error)
	GetEpisode(id string) (*Episode, error)
	ListEpisodes(opts ListOptions) ([]Episode, error)
	GetCategories() ([]string, error)
	GetEpisodeCount() (int, error)

	// ResetEpisode clears every derived field and returns the episode to
	// pending so the generation pipeline can be re-run from scratch.
	ResetEpisode(id string) (*Episode, error)

	SetStatus(id string, status string) error
	UpdateScript(id string, researchNotes, script, category string) error
	UpdateCitations(id string, citations []Citation) error
	UpdateCoverImage(id string, url string) error
	UpdateAudio(id string, filename, url string, durationSeconds float64) error
	MarkFailed(id string, message string) error
}
