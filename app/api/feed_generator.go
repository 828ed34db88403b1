package api

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/podcastgpt/studio/app/database"
)

// FeedGenerator renders the episode catalog as a podcast RSS 2.0 feed. Only
// complete episodes with published audio become items; everything else is
// still in flight and stays out of the feed.
type FeedGenerator struct {
	baseURL string
	port    string
	version string
}

func NewFeedGenerator(baseURL, port, version string) *FeedGenerator {
	return &FeedGenerator{
		baseURL: baseURL,
		port:    port,
		version: version,
	}
}

func (g *FeedGenerator) Run(episodes []database.Episode) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", "PodcastGPT", 4)
	g.writeElement(&buf, "link", g.siteURL(), 4)
	g.writeElement(&buf, "description", "AI-generated podcast episodes on demand", 4)

	selfLink := g.siteURL() + "/feed.rss"
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(selfLink)))

	lastBuildDate := time.Now().In(time.Local)
	for i := range episodes {
		if g.isPublished(&episodes[i]) {
			lastBuildDate = episodes[i].CreatedAt
			break
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("PodcastGPT-Studio/%s", g.version), 4)
	g.writeElement(&buf, "language", "en", 4)

	for i := range episodes {
		if g.isPublished(&episodes[i]) {
			g.writeItem(&buf, &episodes[i])
		}
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *FeedGenerator) isPublished(episode *database.Episode) bool {
	return episode.Status == database.StatusComplete && episode.AudioURL != nil
}

func (g *FeedGenerator) writeItem(buf *bytes.Buffer, episode *database.Episode) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(episode.ID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", episode.Topic, 6)
	g.writeElement(buf, "link", fmt.Sprintf("%s/episodes/%s", g.siteURL(), episode.ID), 6)

	description := fmt.Sprintf("A generated podcast episode about %s", episode.Topic)
	if episode.ResearchNotes != nil && *episode.ResearchNotes != "" {
		description = *episode.ResearchNotes
	}
	g.writeElement(buf, "description", description, 6)

	g.writeElement(buf, "pubDate", episode.CreatedAt.Format(time.RFC1123Z), 6)

	if episode.Category != nil && *episode.Category != "" {
		g.writeElement(buf, "category", *episode.Category, 6)
	}

	// RSS 2.0 requires url, length and type on enclosures; the stored byte
	// size is not tracked, so length is reported as 0
	buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"audio/mpeg\" />\n",
		html.EscapeString(*episode.AudioURL)))

	if episode.DurationSeconds != nil {
		g.writeElement(buf, "itunes:duration", formatDuration(*episode.DurationSeconds), 6)
	}

	if episode.CoverImageURL != nil && *episode.CoverImageURL != "" {
		buf.WriteString(fmt.Sprintf("      <itunes:image href=\"%s\" />\n",
			html.EscapeString(*episode.CoverImageURL)))
	}

	buf.WriteString("    </item>\n")
}

func (g *FeedGenerator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func (g *FeedGenerator) siteURL() string {
	if g.baseURL != "" {
		return g.baseURL
	}
	return fmt.Sprintf("http://localhost:%s", g.port)
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
