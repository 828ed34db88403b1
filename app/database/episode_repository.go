package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

var _ EpisodeRepository = (*episodeRepository)(nil)

type episodeRepository struct {
	db *DB
}

func NewEpisodeRepository(db *DB) EpisodeRepository {
	return &episodeRepository{db: db}
}

// foldTopic applies Unicode case folding so substring search behaves
// case-insensitively beyond ASCII (SQLite's LOWER only folds ASCII).
func foldTopic(s string) string {
	return cases.Fold().String(s)
}

const episodeColumns = `id, topic, tone, category, status, created_at,
	       cover_image_url, research_notes, script, citations,
	       audio_filename, audio_url, duration_seconds, error`

func (r *episodeRepository) CreateEpisode(topic, tone string) (*Episode, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO episodes (id, topic, topic_folded, tone, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, topic, foldTopic(topic), tone, StatusPending, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create episode: %w", err)
	}

	return &Episode{
		ID:        id,
		Topic:     topic,
		Tone:      tone,
		Status:    StatusPending,
		CreatedAt: createdAt,
	}, nil
}

func (r *episodeRepository) GetEpisode(id string) (*Episode, error) {
	row := r.db.QueryRow(`
		SELECT `+episodeColumns+`
		FROM episodes
		WHERE id = ?
	`, id)

	episode, err := scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}

	return episode, nil
}

func (r *episodeRepository) ListEpisodes(opts ListOptions) ([]Episode, error) {
	var conditions []string
	var args []interface{}

	if search := strings.TrimSpace(opts.Search); search != "" {
		conditions = append(conditions, "instr(topic_folded, ?) > 0")
		args = append(args, foldTopic(search))
	}
	if category := strings.TrimSpace(opts.Category); category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, category)
	}
	if tone := strings.TrimSpace(opts.Tone); tone != "" {
		conditions = append(conditions, "tone = ?")
		args = append(args, tone)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	sortFields := map[string]string{
		"created_at":       "created_at",
		"duration_seconds": "duration_seconds",
		"topic":            "topic",
	}
	sortField, ok := sortFields[opts.SortBy]
	if !ok {
		sortField = "created_at"
	}
	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.db.Query(`
		SELECT `+episodeColumns+`
		FROM episodes`+where+`
		ORDER BY `+sortField+` `+direction+`
		LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, *episode)
	}

	return episodes, rows.Err()
}

func (r *episodeRepository) GetCategories() ([]string, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT category
		FROM episodes
		WHERE category IS NOT NULL AND category != ''
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}

func (r *episodeRepository) GetEpisodeCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM episodes`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count episodes: %w", err)
	}
	return count, nil
}

func (r *episodeRepository) ResetEpisode(id string) (*Episode, error) {
	result, err := r.db.Exec(`
		UPDATE episodes
		SET status = ?, category = NULL, cover_image_url = NULL,
		    research_notes = NULL, script = NULL, citations = NULL,
		    audio_filename = NULL, audio_url = NULL,
		    duration_seconds = NULL, error = NULL
		WHERE id = ?
	`, StatusPending, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reset episode: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to reset episode: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetEpisode(id)
}

func (r *episodeRepository) SetStatus(id string, status string) error {
	_, err := r.db.Exec(`UPDATE episodes SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}

func (r *episodeRepository) UpdateScript(id string, researchNotes, script, category string) error {
	_, err := r.db.Exec(`
		UPDATE episodes
		SET research_notes = ?, script = ?, category = ?
		WHERE id = ?
	`, researchNotes, script, category, id)
	if err != nil {
		return fmt.Errorf("failed to update script: %w", err)
	}
	return nil
}

func (r *episodeRepository) UpdateCitations(id string, citations []Citation) error {
	data, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("failed to encode citations: %w", err)
	}

	_, err = r.db.Exec(`UPDATE episodes SET citations = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return fmt.Errorf("failed to update citations: %w", err)
	}
	return nil
}

func (r *episodeRepository) UpdateCoverImage(id string, url string) error {
	_, err := r.db.Exec(`UPDATE episodes SET cover_image_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return fmt.Errorf("failed to update cover image: %w", err)
	}
	return nil
}

func (r *episodeRepository) UpdateAudio(id string, filename, url string, durationSeconds float64) error {
	_, err := r.db.Exec(`
		UPDATE episodes
		SET audio_filename = ?, audio_url = ?, duration_seconds = ?
		WHERE id = ?
	`, filename, url, durationSeconds, id)
	if err != nil {
		return fmt.Errorf("failed to update audio: %w", err)
	}
	return nil
}

func (r *episodeRepository) MarkFailed(id string, message string) error {
	_, err := r.db.Exec(`
		UPDATE episodes SET status = ?, error = ? WHERE id = ?
	`, StatusFailed, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark episode failed: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row scanner) (*Episode, error) {
	var episode Episode
	var category, coverImageURL, researchNotes, script sql.NullString
	var citations, audioFilename, audioURL, errorMsg sql.NullString
	var durationSeconds sql.NullFloat64

	err := row.Scan(
		&episode.ID, &episode.Topic, &episode.Tone, &category,
		&episode.Status, &episode.CreatedAt, &coverImageURL,
		&researchNotes, &script, &citations, &audioFilename,
		&audioURL, &durationSeconds, &errorMsg,
	)
	if err != nil {
		return nil, err
	}

	episode.Category = nullableString(category)
	episode.CoverImageURL = nullableString(coverImageURL)
	episode.ResearchNotes = nullableString(researchNotes)
	episode.Script = nullableString(script)
	episode.AudioFilename = nullableString(audioFilename)
	episode.AudioURL = nullableString(audioURL)
	episode.Error = nullableString(errorMsg)
	if durationSeconds.Valid {
		episode.DurationSeconds = &durationSeconds.Float64
	}

	if citations.Valid && citations.String != "" {
		if err := json.Unmarshal([]byte(citations.String), &episode.Citations); err != nil {
			return nil, fmt.Errorf("failed to decode citations: %w", err)
		}
	}

	return &episode, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
