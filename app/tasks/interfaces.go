package tasks

import (
	"context"

	"github.com/podcastgpt/studio/app/episode"
)

// TaskSchedulerInterface defines the interface for background task
// scheduling. The API layer enqueues episode generation work through it and
// never waits for completion.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// PipelineRunner executes one episode's generation pipeline to a terminal
// state.
type PipelineRunner interface {
	Run(ctx context.Context, episodeID string) error
}

var _ PipelineRunner = (*episode.Pipeline)(nil)
