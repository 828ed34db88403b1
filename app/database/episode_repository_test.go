package database

import (
	"testing"
	"time"
)

func setupTestRepository(t *testing.T) EpisodeRepository {
	t.Helper()

	db, err := NewConnection(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewEpisodeRepository(db)
}

func TestCreateEpisodeDefaults(t *testing.T) {
	repo := setupTestRepository(t)

	episode, err := repo.CreateEpisode("t", "conversational")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if episode.ID == "" {
		t.Error("Episode should have an assigned ID")
	}
	if episode.Status != StatusPending {
		t.Errorf("Expected status %q, got %q", StatusPending, episode.Status)
	}

	stored, err := repo.GetEpisode(episode.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stored == nil {
		t.Fatal("Created episode should be retrievable")
	}

	if stored.Topic != "t" || stored.Tone != "conversational" {
		t.Errorf("Topic/tone not preserved: %q/%q", stored.Topic, stored.Tone)
	}
	if stored.Category != nil || stored.CoverImageURL != nil || stored.ResearchNotes != nil ||
		stored.Script != nil || stored.Citations != nil || stored.AudioFilename != nil ||
		stored.AudioURL != nil || stored.DurationSeconds != nil || stored.Error != nil {
		t.Error("All derived fields should be nil on a fresh episode")
	}
	if stored.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestGetEpisodeNotFound(t *testing.T) {
	repo := setupTestRepository(t)

	episode, err := repo.GetEpisode("7d9f0c7e-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if episode != nil {
		t.Error("Missing episode should return nil")
	}
}

func TestListEpisodesSearch(t *testing.T) {
	repo := setupTestRepository(t)

	if _, err := repo.CreateEpisode("Quantum Computing", "educational"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateEpisode("Quantum Biology", "educational"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateEpisode("History of Jazz", "casual"); err != nil {
		t.Fatal(err)
	}

	episodes, err := repo.ListEpisodes(ListOptions{Search: "quantum"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("Expected 2 quantum episodes, got %d", len(episodes))
	}

	episodes, err = repo.ListEpisodes(ListOptions{Search: "biology"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("Expected 1 biology episode, got %d", len(episodes))
	}
	if episodes[0].Topic != "Quantum Biology" {
		t.Errorf("Expected Quantum Biology, got %q", episodes[0].Topic)
	}
}

func TestListEpisodesFilters(t *testing.T) {
	repo := setupTestRepository(t)

	first, _ := repo.CreateEpisode("Topic A", "casual")
	second, _ := repo.CreateEpisode("Topic B", "dramatic")

	if err := repo.UpdateScript(first.ID, "notes", "script", "Science"); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateScript(second.ID, "notes", "script", "History"); err != nil {
		t.Fatal(err)
	}

	episodes, err := repo.ListEpisodes(ListOptions{Category: "Science"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(episodes) != 1 || episodes[0].ID != first.ID {
		t.Error("Category filter should match exactly one episode")
	}

	episodes, err = repo.ListEpisodes(ListOptions{Tone: "dramatic"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(episodes) != 1 || episodes[0].ID != second.ID {
		t.Error("Tone filter should match exactly one episode")
	}
}

func TestListEpisodesSorting(t *testing.T) {
	repo := setupTestRepository(t)

	banana, _ := repo.CreateEpisode("Banana", "casual")
	time.Sleep(10 * time.Millisecond)
	apple, _ := repo.CreateEpisode("Apple", "casual")

	// Unknown sort field falls back to created_at descending
	episodes, err := repo.ListEpisodes(ListOptions{SortBy: "bogus"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(episodes) != 2 || episodes[0].ID != apple.ID {
		t.Error("Default sort should be created_at descending")
	}

	episodes, err = repo.ListEpisodes(ListOptions{SortBy: "topic", SortOrder: "asc"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if episodes[0].ID != apple.ID || episodes[1].ID != banana.ID {
		t.Error("Topic ascending should order Apple before Banana")
	}
}

func TestListEpisodesPagination(t *testing.T) {
	repo := setupTestRepository(t)

	for i := 0; i < 5; i++ {
		if _, err := repo.CreateEpisode("Topic", "casual"); err != nil {
			t.Fatal(err)
		}
	}

	episodes, err := repo.ListEpisodes(ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(episodes) != 2 {
		t.Errorf("Expected 2 episodes, got %d", len(episodes))
	}

	episodes, err = repo.ListEpisodes(ListOptions{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(episodes) != 1 {
		t.Errorf("Expected 1 episode on last page, got %d", len(episodes))
	}
}

func TestUpdatePipelineFields(t *testing.T) {
	repo := setupTestRepository(t)

	episode, _ := repo.CreateEpisode("Deep Sea Life", "educational")

	if err := repo.SetStatus(episode.ID, StatusProcessing); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateScript(episode.ID, "notes", "script text", "Nature"); err != nil {
		t.Fatal(err)
	}

	year := "1977"
	citations := []Citation{{
		Title:         "The Deep Sea",
		Authors:       []string{"Jane Doe"},
		PublishedDate: &year,
		SourceName:    "Open Library",
	}}
	if err := repo.UpdateCitations(episode.ID, citations); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateCoverImage(episode.ID, "https://example.com/cover.jpg"); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateAudio(episode.ID, "abc.mp3", "https://example.com/abc.mp3", 321.5); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetStatus(episode.ID, StatusComplete); err != nil {
		t.Fatal(err)
	}

	stored, err := repo.GetEpisode(episode.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if stored.Status != StatusComplete {
		t.Errorf("Expected status complete, got %q", stored.Status)
	}
	if stored.Script == nil || *stored.Script != "script text" {
		t.Error("Script should be persisted")
	}
	if stored.AudioURL == nil || stored.DurationSeconds == nil || *stored.DurationSeconds != 321.5 {
		t.Error("Audio fields should be persisted")
	}
	if len(stored.Citations) != 1 || stored.Citations[0].Title != "The Deep Sea" {
		t.Error("Citations should round-trip through storage")
	}
	if stored.Citations[0].PublishedDate == nil || *stored.Citations[0].PublishedDate != "1977" {
		t.Error("Citation published date should round-trip")
	}
}

func TestResetEpisode(t *testing.T) {
	repo := setupTestRepository(t)

	episode, _ := repo.CreateEpisode("Volcanoes", "dramatic")
	repo.UpdateScript(episode.ID, "notes", "script", "Geology")
	repo.UpdateCoverImage(episode.ID, "https://example.com/volcano.jpg")
	repo.UpdateAudio(episode.ID, "v.mp3", "https://example.com/v.mp3", 100)
	repo.SetStatus(episode.ID, StatusComplete)

	reset, err := repo.ResetEpisode(episode.ID)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if reset == nil {
		t.Fatal("Reset should return the episode")
	}

	if reset.ID != episode.ID {
		t.Error("Reset should preserve the episode ID")
	}
	if reset.Topic != "Volcanoes" || reset.Tone != "dramatic" {
		t.Error("Reset should preserve topic and tone")
	}
	if reset.Status != StatusPending {
		t.Errorf("Expected status pending after reset, got %q", reset.Status)
	}
	if reset.Category != nil || reset.CoverImageURL != nil || reset.ResearchNotes != nil ||
		reset.Script != nil || reset.Citations != nil || reset.AudioFilename != nil ||
		reset.AudioURL != nil || reset.DurationSeconds != nil || reset.Error != nil {
		t.Error("Reset should clear every derived field")
	}
}

func TestResetEpisodeNotFound(t *testing.T) {
	repo := setupTestRepository(t)

	reset, err := repo.ResetEpisode("7d9f0c7e-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if reset != nil {
		t.Error("Resetting a missing episode should return nil")
	}
}

func TestMarkFailed(t *testing.T) {
	repo := setupTestRepository(t)

	episode, _ := repo.CreateEpisode("Failing Topic", "casual")

	if err := repo.MarkFailed(episode.ID, "generation service unavailable"); err != nil {
		t.Fatal(err)
	}

	stored, _ := repo.GetEpisode(episode.ID)
	if stored.Status != StatusFailed {
		t.Errorf("Expected status failed, got %q", stored.Status)
	}
	if stored.Error == nil || *stored.Error != "generation service unavailable" {
		t.Error("Failure message should be persisted")
	}
}

func TestGetCategories(t *testing.T) {
	repo := setupTestRepository(t)

	a, _ := repo.CreateEpisode("A", "casual")
	b, _ := repo.CreateEpisode("B", "casual")
	c, _ := repo.CreateEpisode("C", "casual")

	repo.UpdateScript(a.ID, "n", "s", "Science")
	repo.UpdateScript(b.ID, "n", "s", "History")
	repo.UpdateScript(c.ID, "n", "s", "Science")

	categories, err := repo.GetCategories()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(categories) != 2 {
		t.Fatalf("Expected 2 distinct categories, got %d", len(categories))
	}
	if categories[0] != "History" || categories[1] != "Science" {
		t.Errorf("Categories should be sorted, got %v", categories)
	}
}

func TestGetEpisodeCount(t *testing.T) {
	repo := setupTestRepository(t)

	if count, err := repo.GetEpisodeCount(); err != nil || count != 0 {
		t.Fatalf("Expected 0 episodes, got %d (err: %v)", count, err)
	}

	repo.CreateEpisode("A", "casual")
	repo.CreateEpisode("B", "casual")

	if count, err := repo.GetEpisodeCount(); err != nil || count != 2 {
		t.Fatalf("Expected 2 episodes, got %d (err: %v)", count, err)
	}
}
