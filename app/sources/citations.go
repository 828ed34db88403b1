package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/podcastgpt/studio/app/database"
)

const (
	openLibrarySearchURL = "https://openlibrary.org/search.json"
	openLibraryBaseURL   = "https://openlibrary.org"

	citationTimeout    = 15 * time.Second
	citationSourceName = "Open Library"
)

// CitationResolver looks up bibliographic metadata for a citation query
// against the Open Library search index. Absence of a match is a normal
// outcome, not an error.
type CitationResolver struct {
	client    *Client
	searchURL string
}

func NewCitationResolver(client *Client) *CitationResolver {
	return &CitationResolver{
		client:    client,
		searchURL: openLibrarySearchURL,
	}
}

type openLibraryDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverID          int64    `json:"cover_i"`
	Key              string   `json:"key"`
}

type openLibraryResponse struct {
	Docs []openLibraryDoc `json:"docs"`
}

// Resolve returns the top match for query, or nil when the index has none.
// Source failures are logged and downgraded to nil: a missing citation only
// makes an episode less rich.
func (r *CitationResolver) Resolve(ctx context.Context, query string) (*database.Citation, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("fields", "title,author_name,first_publish_year,cover_i,key")

	var result openLibraryResponse
	err := r.client.GetJSON(ctx, r.searchURL, params, citationTimeout, &result)

	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrUnavailable):
		slog.Warn("Citation source unavailable", "query", query, "error", err)
		return nil, nil
	case errors.As(err, &statusErr):
		slog.Warn("Citation lookup rejected", "query", query, "status", statusErr.Code)
		return nil, nil
	case err != nil:
		slog.Warn("Citation lookup failed", "query", query, "error", err)
		return nil, nil
	}

	if len(result.Docs) == 0 {
		return nil, nil
	}

	doc := result.Docs[0]

	title := doc.Title
	if title == "" {
		title = "Unknown"
	}

	authors := doc.AuthorName
	if authors == nil {
		authors = []string{}
	}

	var publishedDate *string
	if doc.FirstPublishYear != 0 {
		year := strconv.Itoa(doc.FirstPublishYear)
		publishedDate = &year
	}

	var sourceURL *string
	if doc.Key != "" {
		u := openLibraryBaseURL + doc.Key
		sourceURL = &u
	}

	return &database.Citation{
		Title:         title,
		Authors:       authors,
		PublishedDate: publishedDate,
		ThumbnailURL:  buildCoverURL(doc.CoverID),
		SourceURL:     sourceURL,
		SourceName:    citationSourceName,
	}, nil
}

// buildCoverURL derives an Open Library cover thumbnail URL from a cover ID.
func buildCoverURL(coverID int64) *string {
	if coverID == 0 {
		return nil
	}
	u := fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", coverID)
	return &u
}
