package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/podcastgpt/studio/app/cfg"
)

func TestUploadWithoutBucket(t *testing.T) {
	publisher := NewAudioPublisher(&cfg.Cfg{
		SupabaseUrl: "https://project.supabase.co",
		SupabaseKey: "key",
	})

	_, err := publisher.Upload(context.Background(), []byte("mp3"), "episode")
	if err == nil {
		t.Fatal("Missing bucket should be a configuration error")
	}
	if !strings.Contains(err.Error(), "AUDIO_BUCKET") {
		t.Errorf("Error should name the missing setting, got: %v", err)
	}
}

func TestUploadWithoutStorage(t *testing.T) {
	publisher := NewAudioPublisher(&cfg.Cfg{AudioBucket: "podcasts"})

	_, err := publisher.Upload(context.Background(), []byte("mp3"), "episode")
	if err == nil {
		t.Fatal("Missing storage configuration should be an error")
	}
	if !strings.Contains(err.Error(), "SUPABASE_URL") {
		t.Errorf("Error should name the missing setting, got: %v", err)
	}
}
