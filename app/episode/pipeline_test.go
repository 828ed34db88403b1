package episode

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/podcastgpt/studio/app/database"
	"github.com/podcastgpt/studio/app/generation"
	"github.com/podcastgpt/studio/app/tones"
)

type fakeGenerator struct {
	script    *generation.ScriptResult
	scriptErr error
	audio     *generation.AudioResult
	audioErr  error
}

func (g *fakeGenerator) GenerateScript(ctx context.Context, topic string, tone *tones.Profile) (*generation.ScriptResult, error) {
	if g.scriptErr != nil {
		return nil, g.scriptErr
	}
	return g.script, nil
}

func (g *fakeGenerator) SynthesizeAudio(ctx context.Context, script string, tone *tones.Profile) (*generation.AudioResult, error) {
	if g.audioErr != nil {
		return nil, g.audioErr
	}
	return g.audio, nil
}

type fakeCitations struct {
	byQuery map[string]*database.Citation
}

func (c *fakeCitations) Resolve(ctx context.Context, query string) (*database.Citation, error) {
	return c.byQuery[query], nil
}

type fakeCoverImage struct {
	url string
}

func (c *fakeCoverImage) Resolve(ctx context.Context, topic string) string {
	return c.url
}

type fakePublisher struct {
	url     string
	err     error
	uploads int
}

func (p *fakePublisher) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	p.uploads++
	if p.err != nil {
		return "", p.err
	}
	return p.url, nil
}

func setupPipelineTest(t *testing.T) (database.EpisodeRepository, *tones.Cache) {
	t.Helper()

	db, err := database.NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	toneCache := tones.NewCache("")
	if err := toneCache.Run(); err != nil {
		t.Fatalf("Failed to load tone profiles: %v", err)
	}

	return database.NewEpisodeRepository(db), toneCache
}

func successfulGenerator() *fakeGenerator {
	return &fakeGenerator{
		script: &generation.ScriptResult{
			ResearchNotes:   "research notes",
			Script:          "full script",
			Category:        "Science",
			CitationQueries: []string{"first query", "second query", "third query"},
		},
		audio: &generation.AudioResult{
			Data:            []byte("mp3 bytes"),
			DurationSeconds: 512.25,
		},
	}
}

func TestPipelineSuccess(t *testing.T) {
	repo, toneCache := setupPipelineTest(t)
	ep, _ := repo.CreateEpisode("Octopus Intelligence", "educational")

	citations := &fakeCitations{byQuery: map[string]*database.Citation{
		"first query": {Title: "Other Minds", SourceName: "Open Library"},
		"third query": {Title: "Metazoa", SourceName: "Open Library"},
	}}

	pipeline := NewPipeline(repo, toneCache, successfulGenerator(), citations,
		&fakeCoverImage{url: "https://images.example/octopus.jpg"},
		&fakePublisher{url: "https://cdn.example/audio/a.mp3"})

	if err := pipeline.Run(context.Background(), ep.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	stored, _ := repo.GetEpisode(ep.ID)
	if stored.Status != database.StatusComplete {
		t.Fatalf("Expected status complete, got %q", stored.Status)
	}
	if stored.Script == nil || *stored.Script != "full script" {
		t.Error("Script should be persisted")
	}
	if stored.ResearchNotes == nil || stored.Category == nil || *stored.Category != "Science" {
		t.Error("Research notes and category should be persisted")
	}
	if stored.CoverImageURL == nil || *stored.CoverImageURL != "https://images.example/octopus.jpg" {
		t.Error("Cover image should be persisted")
	}
	if stored.AudioURL == nil || *stored.AudioURL != "https://cdn.example/audio/a.mp3" {
		t.Error("Audio URL should be persisted")
	}
	if stored.AudioFilename == nil || !strings.HasSuffix(*stored.AudioFilename, ".mp3") {
		t.Error("Audio filename should carry the mp3 extension")
	}
	if stored.DurationSeconds == nil || *stored.DurationSeconds != 512.25 {
		t.Error("Duration should be persisted")
	}
	if stored.Error != nil {
		t.Errorf("Completed episode should have no error, got %q", *stored.Error)
	}

	// Absent citations are omitted; resolved ones keep request order
	if len(stored.Citations) != 2 {
		t.Fatalf("Expected 2 citations, got %d", len(stored.Citations))
	}
	if stored.Citations[0].Title != "Other Minds" || stored.Citations[1].Title != "Metazoa" {
		t.Errorf("Citations out of request order: %+v", stored.Citations)
	}
}

func TestPipelineScriptFailure(t *testing.T) {
	repo, toneCache := setupPipelineTest(t)
	ep, _ := repo.CreateEpisode("Topic", "casual")

	generator := &fakeGenerator{scriptErr: errors.New("script generation failed: model overloaded")}
	publisher := &fakePublisher{url: "https://cdn.example/a.mp3"}

	pipeline := NewPipeline(repo, toneCache, generator, &fakeCitations{}, &fakeCoverImage{}, publisher)

	if err := pipeline.Run(context.Background(), ep.ID); err == nil {
		t.Fatal("Expected an error from a failed run")
	}

	stored, _ := repo.GetEpisode(ep.ID)
	if stored.Status != database.StatusFailed {
		t.Fatalf("Expected status failed, got %q", stored.Status)
	}
	if stored.Error == nil || !strings.Contains(*stored.Error, "model overloaded") {
		t.Error("Failure message should be recorded")
	}
	if stored.Script != nil || stored.AudioURL != nil {
		t.Error("No derived fields should be set after an immediate failure")
	}
	if publisher.uploads != 0 {
		t.Error("Later stages must not run after a fatal failure")
	}
}

func TestPipelinePublishFailureKeepsPartialState(t *testing.T) {
	repo, toneCache := setupPipelineTest(t)
	ep, _ := repo.CreateEpisode("Topic", "casual")

	pipeline := NewPipeline(repo, toneCache, successfulGenerator(), &fakeCitations{},
		&fakeCoverImage{url: "https://images.example/cover.jpg"},
		&fakePublisher{err: errors.New("bucket unavailable")})

	if err := pipeline.Run(context.Background(), ep.ID); err == nil {
		t.Fatal("Expected an error from a failed run")
	}

	stored, _ := repo.GetEpisode(ep.ID)
	if stored.Status != database.StatusFailed {
		t.Fatalf("Expected status failed, got %q", stored.Status)
	}
	// Earlier stages' work survives; there is no rollback
	if stored.Script == nil || stored.CoverImageURL == nil {
		t.Error("Partial results from earlier stages should be kept")
	}
	if stored.AudioURL != nil || stored.DurationSeconds != nil {
		t.Error("Audio fields should not be set after a publish failure")
	}
	if stored.Error == nil || !strings.Contains(*stored.Error, "bucket unavailable") {
		t.Error("Failure message should be recorded")
	}
}

func TestPipelineAbsentEnrichmentNotFatal(t *testing.T) {
	repo, toneCache := setupPipelineTest(t)
	ep, _ := repo.CreateEpisode("Topic", "casual")

	// No citations resolve, no cover image found
	pipeline := NewPipeline(repo, toneCache, successfulGenerator(), &fakeCitations{},
		&fakeCoverImage{}, &fakePublisher{url: "https://cdn.example/a.mp3"})

	if err := pipeline.Run(context.Background(), ep.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	stored, _ := repo.GetEpisode(ep.ID)
	if stored.Status != database.StatusComplete {
		t.Fatalf("Expected status complete, got %q", stored.Status)
	}
	if len(stored.Citations) != 0 {
		t.Errorf("Expected no citations, got %d", len(stored.Citations))
	}
	if stored.CoverImageURL != nil {
		t.Error("Cover image should stay null when no source has one")
	}
}

func TestPipelineUnsupportedTone(t *testing.T) {
	repo, _ := setupPipelineTest(t)
	ep, _ := repo.CreateEpisode("Topic", "casual")

	// An empty cache stands in for a tone that vanished from the profile set
	pipeline := NewPipeline(repo, tones.NewCache(""), successfulGenerator(), &fakeCitations{},
		&fakeCoverImage{}, &fakePublisher{})

	if err := pipeline.Run(context.Background(), ep.ID); err == nil {
		t.Fatal("Expected an error for an unknown tone profile")
	}

	stored, _ := repo.GetEpisode(ep.ID)
	if stored.Status != database.StatusFailed {
		t.Errorf("Expected status failed, got %q", stored.Status)
	}
}

func TestPipelineMissingEpisode(t *testing.T) {
	repo, toneCache := setupPipelineTest(t)

	pipeline := NewPipeline(repo, toneCache, successfulGenerator(), &fakeCitations{},
		&fakeCoverImage{}, &fakePublisher{})

	if err := pipeline.Run(context.Background(), "7d9f0c7e-0000-0000-0000-000000000000"); err == nil {
		t.Fatal("Expected an error for a missing episode")
	}
}

func TestPipelineRerunAfterReset(t *testing.T) {
	repo, toneCache := setupPipelineTest(t)
	ep, _ := repo.CreateEpisode("Topic", "casual")

	pipeline := NewPipeline(repo, toneCache, successfulGenerator(), &fakeCitations{},
		&fakeCoverImage{url: "https://images.example/cover.jpg"},
		&fakePublisher{url: "https://cdn.example/a.mp3"})

	if err := pipeline.Run(context.Background(), ep.ID); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	reset, err := repo.ResetEpisode(ep.ID)
	if err != nil || reset == nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if reset.Status != database.StatusPending || reset.Script != nil {
		t.Fatal("Reset should restore the freshly-created shape")
	}

	if err := pipeline.Run(context.Background(), ep.ID); err != nil {
		t.Fatalf("Rerun after reset should succeed, got: %v", err)
	}

	stored, _ := repo.GetEpisode(ep.ID)
	if stored.Status != database.StatusComplete {
		t.Errorf("Expected status complete after rerun, got %q", stored.Status)
	}
	if stored.ID != ep.ID {
		t.Error("Rerun should reuse the existing episode ID")
	}
}
