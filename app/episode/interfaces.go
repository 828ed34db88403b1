package episode

import (
	"context"

	"github.com/podcastgpt/studio/app/database"
	"github.com/podcastgpt/studio/app/generation"
	"github.com/podcastgpt/studio/app/sources"
	"github.com/podcastgpt/studio/app/storage"
	"github.com/podcastgpt/studio/app/tones"
)

// Generator is the external service that writes episode scripts and
// synthesizes narration audio.
type Generator interface {
	GenerateScript(ctx context.Context, topic string, tone *tones.Profile) (*generation.ScriptResult, error)
	SynthesizeAudio(ctx context.Context, script string, tone *tones.Profile) (*generation.AudioResult, error)
}

var _ Generator = (*generation.Client)(nil)

// CitationResolver turns a citation query into zero-or-one bibliographic
// references; nil means no match, which is never an error.
type CitationResolver interface {
	Resolve(ctx context.Context, query string) (*database.Citation, error)
}

var _ CitationResolver = (*sources.CitationResolver)(nil)

// CoverImageResolver finds a cover image URL for a topic, "" when none of
// its sources has one.
type CoverImageResolver interface {
	Resolve(ctx context.Context, topic string) string
}

var _ CoverImageResolver = (*sources.CoverImageResolver)(nil)

// AudioPublisher uploads audio bytes and returns their public URL.
type AudioPublisher interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

var _ AudioPublisher = (*storage.AudioPublisher)(nil)
