package episode

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/podcastgpt/studio/app/database"
	"github.com/podcastgpt/studio/app/tones"
)

// Pipeline drives one episode through its production lifecycle:
// pending → processing → complete, or failed with a recorded error. Each
// stage persists its result immediately, so a crash mid-run leaves the
// maximum salvageable state behind. Citation and cover image absence only
// make the episode less rich; generation and publishing failures are fatal.
type Pipeline struct {
	repo       database.EpisodeRepository
	tones      *tones.Cache
	generator  Generator
	citations  CitationResolver
	coverImage CoverImageResolver
	publisher  AudioPublisher
}

func NewPipeline(repo database.EpisodeRepository, toneCache *tones.Cache,
	generator Generator, citations CitationResolver,
	coverImage CoverImageResolver, publisher AudioPublisher) *Pipeline {
	return &Pipeline{
		repo:       repo,
		tones:      toneCache,
		generator:  generator,
		citations:  citations,
		coverImage: coverImage,
		publisher:  publisher,
	}
}

func (p *Pipeline) Run(ctx context.Context, episodeID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = p.fail(episodeID, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	started := time.Now()

	ep, err := p.repo.GetEpisode(episodeID)
	if err != nil {
		return fmt.Errorf("failed to load episode: %w", err)
	}
	if ep == nil {
		return fmt.Errorf("episode %s not found", episodeID)
	}

	tone, err := p.tones.Get(ep.Tone)
	if err != nil {
		return p.fail(episodeID, err)
	}

	if err := p.repo.SetStatus(episodeID, database.StatusProcessing); err != nil {
		return fmt.Errorf("failed to mark episode processing: %w", err)
	}

	script, err := p.generator.GenerateScript(ctx, ep.Topic, tone)
	if err != nil {
		return p.fail(episodeID, err)
	}
	if err := p.repo.UpdateScript(episodeID, script.ResearchNotes, script.Script, script.Category); err != nil {
		return p.fail(episodeID, fmt.Errorf("failed to persist script: %w", err))
	}

	citations := p.resolveCitations(ctx, script.CitationQueries)
	if err := p.repo.UpdateCitations(episodeID, citations); err != nil {
		return p.fail(episodeID, fmt.Errorf("failed to persist citations: %w", err))
	}

	coverURL := p.coverImage.Resolve(ctx, ep.Topic)
	if coverURL != "" {
		if err := p.repo.UpdateCoverImage(episodeID, coverURL); err != nil {
			return p.fail(episodeID, fmt.Errorf("failed to persist cover image: %w", err))
		}
	}

	audio, err := p.generator.SynthesizeAudio(ctx, script.Script, tone)
	if err != nil {
		return p.fail(episodeID, err)
	}

	basename := uuid.NewString()
	audioURL, err := p.publisher.Upload(ctx, audio.Data, basename)
	if err != nil {
		return p.fail(episodeID, fmt.Errorf("audio publishing failed: %w", err))
	}

	if err := p.repo.UpdateAudio(episodeID, basename+".mp3", audioURL, audio.DurationSeconds); err != nil {
		return p.fail(episodeID, fmt.Errorf("failed to persist audio: %w", err))
	}
	if err := p.repo.SetStatus(episodeID, database.StatusComplete); err != nil {
		return p.fail(episodeID, fmt.Errorf("failed to mark episode complete: %w", err))
	}

	slog.Info("Episode generation completed",
		"episode", episodeID,
		"topic", ep.Topic,
		"duration", time.Since(started).Round(time.Millisecond),
		"citations", len(citations),
		"cover_image", coverURL != "")

	return nil
}

// resolveCitations fans the queries out concurrently (the lookups are
// independent reads) and collects the non-absent results in request order.
func (p *Pipeline) resolveCitations(ctx context.Context, queries []string) []database.Citation {
	results := make([]*database.Citation, len(queries))

	var wg sync.WaitGroup
	for i, query := range queries {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()

			citation, err := p.citations.Resolve(ctx, query)
			if err != nil {
				slog.Warn("Citation resolution failed", "query", query, "error", err)
				return
			}
			results[i] = citation
		}(i, query)
	}
	wg.Wait()

	citations := make([]database.Citation, 0, len(queries))
	for _, citation := range results {
		if citation != nil {
			citations = append(citations, *citation)
		}
	}
	return citations
}

// fail records terminal failure on the episode. Partial fields persisted by
// earlier stages are deliberately left in place.
func (p *Pipeline) fail(episodeID string, cause error) error {
	slog.Error("Episode generation failed", "episode", episodeID, "error", cause)

	if err := p.repo.MarkFailed(episodeID, cause.Error()); err != nil {
		slog.Error("Failed to record episode failure", "episode", episodeID, "error", err)
	}

	return cause
}
