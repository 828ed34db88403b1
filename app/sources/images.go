package sources

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"
)

const (
	googleCSEURL    = "https://www.googleapis.com/customsearch/v1"
	wikipediaAPIURL = "https://en.wikipedia.org/w/api.php"

	imageTimeout = 10 * time.Second
)

// Strategy is one way of finding a cover image for a topic. Strategies are
// tried in priority order with a single attempt each; a new provider is
// added by appending to the resolver's list.
type Strategy interface {
	Name() string
	Configured() bool
	Attempt(ctx context.Context, topic string) (string, error)
}

// CoverImageResolver walks an ordered strategy list and keeps the first
// non-empty URL. Strategy failures fall through to the next strategy and
// never propagate.
type CoverImageResolver struct {
	strategies []Strategy
}

func NewCoverImageResolver(client *Client, googleCSEId, googleAPIKey string) *CoverImageResolver {
	return &CoverImageResolver{
		strategies: []Strategy{
			&googleImageSearch{
				client:   client,
				endpoint: googleCSEURL,
				engineID: googleCSEId,
				apiKey:   googleAPIKey,
			},
			&wikipediaImageSearch{
				client:   client,
				endpoint: wikipediaAPIURL,
			},
		},
	}
}

// Resolve returns a cover image URL for the topic, or "" when every strategy
// comes up empty.
func (r *CoverImageResolver) Resolve(ctx context.Context, topic string) string {
	for _, strategy := range r.strategies {
		if !strategy.Configured() {
			slog.Debug("Cover image strategy not configured, skipping", "strategy", strategy.Name())
			continue
		}

		imageURL, err := strategy.Attempt(ctx, topic)
		if err != nil {
			slog.Warn("Cover image strategy failed", "strategy", strategy.Name(), "topic", topic, "error", err)
			continue
		}
		if imageURL != "" {
			return imageURL
		}
	}

	return ""
}

// googleImageSearch queries Google Custom Search for one large, safe-filtered
// image. Requires both the engine ID and an API key; skipped entirely when
// either is missing.
type googleImageSearch struct {
	client   *Client
	endpoint string
	engineID string
	apiKey   string
}

func (s *googleImageSearch) Name() string { return "google_cse" }

func (s *googleImageSearch) Configured() bool {
	return s.engineID != "" && s.apiKey != ""
}

type googleCSEResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

func (s *googleImageSearch) Attempt(ctx context.Context, topic string) (string, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("cx", s.engineID)
	params.Set("key", s.apiKey)
	params.Set("searchType", "image")
	params.Set("num", "1")
	params.Set("imgSize", "large")
	params.Set("safe", "active")

	var result googleCSEResponse
	if err := s.client.GetJSONOnce(ctx, s.endpoint, params, imageTimeout, &result); err != nil {
		return "", err
	}

	if len(result.Items) == 0 {
		return "", nil
	}
	return result.Items[0].Link, nil
}

// wikipediaImageSearch runs a full-text search for the topic and returns the
// best-ranked page thumbnail. Free, no configuration required.
type wikipediaImageSearch struct {
	client   *Client
	endpoint string
}

func (s *wikipediaImageSearch) Name() string { return "wikipedia" }

func (s *wikipediaImageSearch) Configured() bool { return true }

type wikipediaPage struct {
	Index     int `json:"index"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

type wikipediaResponse struct {
	Query struct {
		Pages map[string]wikipediaPage `json:"pages"`
	} `json:"query"`
}

func (s *wikipediaImageSearch) Attempt(ctx context.Context, topic string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", topic)
	params.Set("gsrlimit", strconv.Itoa(5))
	params.Set("prop", "pageimages")
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", strconv.Itoa(500))

	var result wikipediaResponse
	if err := s.client.GetJSONOnce(ctx, s.endpoint, params, imageTimeout, &result); err != nil {
		return "", err
	}

	// The generator annotates each page with its search rank; take the
	// best-ranked page that carries a thumbnail.
	best := ""
	bestIndex := -1
	for _, page := range result.Query.Pages {
		if page.Thumbnail == nil || page.Thumbnail.Source == "" {
			continue
		}
		if bestIndex == -1 || page.Index < bestIndex {
			best = page.Thumbnail.Source
			bestIndex = page.Index
		}
	}

	return best, nil
}
