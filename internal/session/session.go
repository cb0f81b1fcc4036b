// Package session bootstraps one assistant conversation per room
// connection: it waits for the participant, loads their uploaded document,
// assembles the voice pipeline, and speaks the greeting.
package session

import (
	"context"
	"fmt"

	"github.com/parleyai/voice-assistant/internal/agent"
	"github.com/parleyai/voice-assistant/internal/assistant"
	"github.com/parleyai/voice-assistant/internal/chat"
	"github.com/parleyai/voice-assistant/internal/config"
	"github.com/parleyai/voice-assistant/internal/llm"
	"github.com/parleyai/voice-assistant/internal/metadata"
	"github.com/parleyai/voice-assistant/internal/room"
	"github.com/parleyai/voice-assistant/internal/stt"
	"github.com/parleyai/voice-assistant/internal/tts"
	"github.com/parleyai/voice-assistant/internal/vad"
	"github.com/parleyai/voice-assistant/internal/weather"
)

// Prewarm loads the VAD model once per worker process. Sessions derive
// per-connection detectors from the returned model.
func Prewarm(cfg *config.Config) (*vad.Model, error) {
	return vad.Load(cfg.VADModelPath, cfg.VADThreshold)
}

// Handler runs assistant sessions. One handler serves the whole process;
// the VAD model it holds is shared read-only across sessions.
type Handler struct {
	cfg      *config.Config
	vadModel *vad.Model
}

// NewHandler creates a session handler around the prewarmed VAD model.
func NewHandler(cfg *config.Config, vadModel *vad.Model) *Handler {
	return &Handler{cfg: cfg, vadModel: vadModel}
}

// greeting picks the welcome message based on whether a document was
// uploaded.
func greeting(documentName string) string {
	if documentName != "" {
		return fmt.Sprintf("Hello! I see you've uploaded '%s'. Let's discuss it!", documentName)
	}
	return "Hello! How can I help you today?"
}

// Entrypoint runs one room session to completion.
func (h *Handler) Entrypoint(ctx context.Context, rm *room.Room) error {
	logger := rm.Logger()

	logger.Info().Str("room", rm.Name()).Msg("Establishing connection to room")
	if err := rm.Connect(ctx, room.SubscribeAudioOnly); err != nil {
		return fmt.Errorf("failed to connect to room: %w", err)
	}

	participant, err := rm.WaitForParticipant(ctx)
	if err != nil {
		return fmt.Errorf("no participant joined: %w", err)
	}
	logger.Info().Str("identity", participant.Identity).Msg("Initializing assistant for user")
	logger.Info().Str("name", participant.Name).Msg("User name")
	logger.Info().Str("metadata", participant.Metadata).Msg("User metadata")

	var doc *metadata.UploadedDocument
	if participant.Metadata != "" {
		doc, err = metadata.Parse(participant.Metadata)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load document from metadata")
		} else if doc != nil {
			logger.Info().Str("document", doc.Name).Msg("Successfully loaded document")
		}
	}

	weatherClient := weather.NewClient(h.cfg.WeatherBaseURL, h.cfg.WeatherRequestTimeout())
	asst := assistant.New(doc, weatherClient, rm.Metrics())

	detector, err := vad.NewDetector(h.vadModel)
	if err != nil {
		return fmt.Errorf("failed to create VAD detector: %w", err)
	}

	pipelineAgent := agent.NewVoicePipelineAgent(agent.Params{
		Detector:            detector,
		STT:                 stt.NewDeepgramClient(h.cfg),
		LLM:                 llm.NewClient(h.cfg),
		TTS:                 tts.NewElevenLabsClient(h.cfg),
		Registry:            asst.Registry(),
		ChatContext:         chat.WithSystemPrompt(assistant.SystemPrompt),
		Output:              rm,
		Logger:              logger,
		Metrics:             rm.Metrics(),
		MinEndpointingDelay: h.cfg.MinEndpointingDelay(),
		MaxEndpointingDelay: h.cfg.MaxEndpointingDelay(),
		MaxToolRounds:       h.cfg.MaxToolRounds,
		AudioBufferSize:     h.cfg.AudioBufferSize,
	})
	asst.SetAgent(pipelineAgent)

	collector := agent.NewUsageCollector()
	pipelineAgent.OnMetrics(collector.Collect)

	rm.AddShutdownCallback(func(ctx context.Context) {
		summary := collector.Summary()
		logger.Info().
			Float64("stt_audio_seconds", summary.STTAudioSeconds).
			Int("llm_prompt_tokens", summary.LLMPromptTokens).
			Int("llm_completion_tokens", summary.LLMCompletionTokens).
			Int("tts_characters", summary.TTSCharacters).
			Msg("Final usage summary")
	})
	rm.AddShutdownCallback(func(ctx context.Context) {
		pipelineAgent.Close()
	})

	if err := pipelineAgent.Start(ctx, rm.AudioIn()); err != nil {
		pipelineAgent.Close()
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	if err := pipelineAgent.Say(ctx, greeting(asst.DocumentName()), true); err != nil {
		logger.Warn().Err(err).Msg("Failed to speak greeting")
	}

	select {
	case <-rm.Done():
	case <-ctx.Done():
	}
	return nil
}
