package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/podcastgpt/studio/app/cfg"
)

const (
	audioPathPrefix  = "audio/"
	audioContentType = "audio/mpeg"
)

// AudioPublisher uploads synthesized audio to the configured storage bucket
// and hands back a public URL. Uploads are a single attempt: any failure is
// fatal to the calling pipeline stage, never retried here.
type AudioPublisher struct {
	client *storage_go.Client
	bucket string
}

func NewAudioPublisher(appCfg *cfg.Cfg) *AudioPublisher {
	var client *storage_go.Client
	if appCfg.SupabaseUrl != "" {
		storageURL := strings.TrimRight(appCfg.SupabaseUrl, "/") + "/storage/v1"
		client = storage_go.NewClient(storageURL, appCfg.SupabaseKey, nil)
	}

	return &AudioPublisher{
		client: client,
		bucket: appCfg.AudioBucket,
	}
}

// Upload stores MP3 bytes under audio/<filename>.mp3 and returns the public
// URL. A missing bucket or storage configuration is a configuration error,
// raised before any network call.
func (p *AudioPublisher) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	if p.bucket == "" {
		return "", fmt.Errorf("audio bucket not configured (set AUDIO_BUCKET)")
	}
	if p.client == nil {
		return "", fmt.Errorf("audio storage not configured (set SUPABASE_URL and SUPABASE_KEY)")
	}

	objectPath := audioPathPrefix + filename + ".mp3"
	contentType := audioContentType
	upsert := true

	_, err := p.client.UploadFile(p.bucket, objectPath, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}

	return p.client.GetPublicUrl(p.bucket, objectPath).SignedURL, nil
}
