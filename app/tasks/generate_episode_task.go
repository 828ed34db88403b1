package tasks

import (
	"context"
	"log/slog"
)

// GenerateEpisodeTask runs one episode's generation pipeline. MaxRetries is
// zero: the pipeline persists terminal failure on the episode itself, and
// re-running a failed episode is only ever triggered by an explicit
// regenerate request.
type GenerateEpisodeTask struct {
	Task
	pipeline PipelineRunner
}

func NewGenerateEpisodeTask(episodeID string, pipeline PipelineRunner) *GenerateEpisodeTask {
	return &GenerateEpisodeTask{
		Task:     NewTask(TaskTypeGenerateEpisode, episodeID, 0),
		pipeline: pipeline,
	}
}

func (t *GenerateEpisodeTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.pipeline.Run(ctx, t.EpisodeID); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"episode", t.EpisodeID,
		"duration", t.GetDuration())

	return nil
}
