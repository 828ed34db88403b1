package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://podcasts.example.com)"`

	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/episodes.db" description:"Path to the SQLite database file"`

	// Background pipeline configuration
	WorkerCount int `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of background workers for episode generation"`

	// Tone profile configuration
	TonesDir string `long:"tones-dir" env:"TONES_DIR" description:"Directory with tone profile overrides (built-in profiles used when empty)"`

	// Generation service
	GenerationUrl string `long:"generation-url" env:"GENERATION_URL" default:"http://localhost:9090" description:"Base URL of the script/audio generation service"`
	GenerationKey string `long:"generation-key" env:"GENERATION_KEY" description:"API key for the generation service (optional)"`

	// Cover image search
	GoogleCSEId  string `long:"google-cse-id" env:"GOOGLE_CSE_CX" description:"Google Custom Search engine ID for cover images (optional)"`
	GoogleAPIKey string `long:"google-api-key" env:"GOOGLE_API_KEY" description:"Google API key for cover images (optional)"`

	// Audio blob storage
	SupabaseUrl string `long:"supabase-url" env:"SUPABASE_URL" description:"Supabase project URL for audio storage"`
	SupabaseKey string `long:"supabase-key" env:"SUPABASE_KEY" description:"Supabase service role key for audio storage"`
	AudioBucket string `long:"audio-bucket" env:"AUDIO_BUCKET" description:"Supabase storage bucket for published audio"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"PodcastGPT/1.0 (podcast metadata lookup; contact@example.com)" description:"User agent string for outbound HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:          raw.Port,
		BaseUrl:       raw.BaseUrl,
		DBPath:        raw.DBPath,
		WorkerCount:   raw.WorkerCount,
		TonesDir:      raw.TonesDir,
		GenerationUrl: raw.GenerationUrl,
		GenerationKey: raw.GenerationKey,
		GoogleCSEId:   raw.GoogleCSEId,
		GoogleAPIKey:  raw.GoogleAPIKey,
		SupabaseUrl:   raw.SupabaseUrl,
		SupabaseKey:   raw.SupabaseKey,
		AudioBucket:   raw.AudioBucket,
		UserAgent:     raw.UserAgent,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}

	time.Local = loc
	return nil
}
