package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/parleyai/voice-assistant/internal/config"
	"github.com/parleyai/voice-assistant/internal/observability"
)

const defaultElevenLabsURL = "https://api.elevenlabs.io"

// streamChunkSize is how much PCM we forward per channel send, roughly
// 128ms of 16kHz mono audio.
const streamChunkSize = 4096

// ElevenLabsClient implements TTSClient using the ElevenLabs streaming API
type ElevenLabsClient struct {
	config     *config.Config
	apiKey     string
	baseURL    string
	voiceID    string
	httpClient *http.Client
	mu         sync.RWMutex
	isActive   bool
	cancel     context.CancelFunc
}

// elevenLabsRequest is the request payload for the ElevenLabs TTS API
type elevenLabsRequest struct {
	Text          string         `json:"text"`
	ModelID       string         `json:"model_id,omitempty"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewElevenLabsClient creates a new ElevenLabs TTS client
func NewElevenLabsClient(cfg *config.Config) *ElevenLabsClient {
	return &ElevenLabsClient{
		config:     cfg,
		apiKey:     cfg.ElevenLabsAPIKey,
		baseURL:    defaultElevenLabsURL,
		voiceID:    cfg.ElevenLabsVoiceID,
		httpClient: &http.Client{},
	}
}

// Synthesize converts text to audio and streams it in PCM16 chunks at 16kHz
func (c *ElevenLabsClient) Synthesize(text string) (<-chan *AudioChunk, error) {
	c.mu.Lock()
	if c.isActive {
		c.mu.Unlock()
		return nil, fmt.Errorf("elevenlabs client is already synthesizing")
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.isActive = true
	c.cancel = cancel
	c.mu.Unlock()

	logger := observability.GetLogger()

	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: c.config.ElevenLabsModelID,
		VoiceSettings: &voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		c.finish()
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// pcm_16000 matches the room playback format, no resampling needed
	url := fmt.Sprintf("%s/v1/text-to-speech/%s/stream?output_format=pcm_16000",
		c.baseURL, c.voiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		c.finish()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.finish()
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		c.finish()
		return nil, fmt.Errorf("elevenlabs API returned status %d", resp.StatusCode)
	}

	audioChan := make(chan *AudioChunk, 10)

	go func() {
		defer func() {
			resp.Body.Close()
			close(audioChan)
			c.finish()
		}()

		buf := make([]byte, streamChunkSize)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				chunk := &AudioChunk{
					Data:       append([]byte(nil), buf[:n]...),
					SampleRate: 16000,
					Channels:   1,
				}
				select {
				case audioChan <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
					logger.Error().Err(err).Msg("Error reading ElevenLabs audio stream")
				}
				return
			}
		}
	}()

	return audioChan, nil
}

// finish releases the synthesis context and clears the active flag after a
// synthesis ends
func (c *ElevenLabsClient) finish() {
	c.mu.Lock()
	c.isActive = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

// Stop cancels any ongoing synthesis. Used when the user starts speaking
// over the assistant.
func (c *ElevenLabsClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isActive {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.isActive = false
	return nil
}

// Close closes the client and cleans up resources
func (c *ElevenLabsClient) Close() error {
	return c.Stop()
}

// IsActive returns whether the client is currently synthesizing
func (c *ElevenLabsClient) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isActive
}
