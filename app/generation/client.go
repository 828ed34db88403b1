package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/podcastgpt/studio/app/cfg"
	"github.com/podcastgpt/studio/app/tones"
)

const (
	scriptTimeout = 120 * time.Second
	audioTimeout  = 300 * time.Second
)

// Client talks to the external generation service that writes episode
// scripts and synthesizes narration audio. Calls are a single attempt; a
// generation failure is fatal to the pipeline and the pipeline owns that
// decision.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
}

func NewClient(appCfg *cfg.Cfg) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(appCfg.GenerationUrl, "/"),
		apiKey:     appCfg.GenerationKey,
		userAgent:  appCfg.UserAgent,
	}
}

type scriptRequest struct {
	Topic        string  `json:"topic"`
	Tone         string  `json:"tone"`
	Instructions string  `json:"instructions"`
	SpeakingRate float64 `json:"speaking_rate"`
}

// GenerateScript produces research notes, a narration script, a category
// label and citation queries for the topic in the given tone.
func (c *Client) GenerateScript(ctx context.Context, topic string, tone *tones.Profile) (*ScriptResult, error) {
	req := scriptRequest{
		Topic:        topic,
		Tone:         tone.Name,
		Instructions: tone.Instructions,
		SpeakingRate: tone.SpeakingRate,
	}

	var result ScriptResult
	if err := c.postJSON(ctx, "/v1/script", req, scriptTimeout, &result); err != nil {
		return nil, fmt.Errorf("script generation failed: %w", err)
	}

	if result.Script == "" {
		return nil, fmt.Errorf("generation service returned an empty script")
	}

	return &result, nil
}

type audioRequest struct {
	Script       string  `json:"script"`
	Voice        string  `json:"voice"`
	SpeakingRate float64 `json:"speaking_rate"`
}

type audioResponse struct {
	Audio           string  `json:"audio"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// SynthesizeAudio turns a script into MP3 bytes plus the narration duration.
func (c *Client) SynthesizeAudio(ctx context.Context, script string, tone *tones.Profile) (*AudioResult, error) {
	req := audioRequest{
		Script:       script,
		Voice:        tone.Voice,
		SpeakingRate: tone.SpeakingRate,
	}

	var result audioResponse
	if err := c.postJSON(ctx, "/v1/audio", req, audioTimeout, &result); err != nil {
		return nil, fmt.Errorf("audio synthesis failed: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(result.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to decode synthesized audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("generation service returned no audio")
	}

	return &AudioResult{
		Data:            data,
		DurationSeconds: result.DurationSeconds,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, timeout time.Duration, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
