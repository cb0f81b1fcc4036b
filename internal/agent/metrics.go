// Package agent runs the voice pipeline for one session: audio in, VAD and
// endpointing, transcription, chat completion with tool dispatch, and
// synthesized speech out.
package agent

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MetricsKind identifies which pipeline stage produced a metrics event.
type MetricsKind string

const (
	MetricsSTT MetricsKind = "stt"
	MetricsLLM MetricsKind = "llm"
	MetricsTTS MetricsKind = "tts"
	MetricsEOU MetricsKind = "eou" // end of utterance
)

// Metrics is one pipeline metrics event. Fields are populated per kind.
type Metrics struct {
	Kind      MetricsKind
	Timestamp time.Time

	// STT
	AudioDurationSeconds float64

	// LLM
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	// TTS
	CharactersSynthesized int

	// EOU
	EndOfUtteranceDelay time.Duration
}

// LogMetrics writes one metrics event to the session log.
func LogMetrics(logger zerolog.Logger, m Metrics) {
	event := logger.Info().Str("kind", string(m.Kind))
	switch m.Kind {
	case MetricsSTT:
		event = event.Float64("audio_seconds", m.AudioDurationSeconds)
	case MetricsLLM:
		event = event.
			Int("prompt_tokens", m.PromptTokens).
			Int("completion_tokens", m.CompletionTokens).
			Int("total_tokens", m.TotalTokens)
	case MetricsTTS:
		event = event.Int("characters", m.CharactersSynthesized)
	case MetricsEOU:
		event = event.Dur("eou_delay", m.EndOfUtteranceDelay)
	}
	event.Msg("Pipeline metrics")
}

// UsageSummary is the aggregate usage for one session.
type UsageSummary struct {
	LLMPromptTokens     int
	LLMCompletionTokens int
	TTSCharacters       int
	STTAudioSeconds     float64
}

// UsageCollector aggregates pipeline metrics events into a session summary.
type UsageCollector struct {
	mu      sync.Mutex
	summary UsageSummary
}

// NewUsageCollector creates an empty collector.
func NewUsageCollector() *UsageCollector {
	return &UsageCollector{}
}

// Collect folds one metrics event into the summary.
func (c *UsageCollector) Collect(m Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch m.Kind {
	case MetricsSTT:
		c.summary.STTAudioSeconds += m.AudioDurationSeconds
	case MetricsLLM:
		c.summary.LLMPromptTokens += m.PromptTokens
		c.summary.LLMCompletionTokens += m.CompletionTokens
	case MetricsTTS:
		c.summary.TTSCharacters += m.CharactersSynthesized
	}
}

// Summary returns the usage aggregated so far.
func (c *UsageCollector) Summary() UsageSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}
