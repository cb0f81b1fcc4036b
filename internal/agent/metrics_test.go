package agent

import (
	"testing"
)

func TestUsageCollector(t *testing.T) {
	c := NewUsageCollector()

	c.Collect(Metrics{Kind: MetricsSTT, AudioDurationSeconds: 2.5})
	c.Collect(Metrics{Kind: MetricsSTT, AudioDurationSeconds: 1.5})
	c.Collect(Metrics{Kind: MetricsLLM, PromptTokens: 100, CompletionTokens: 40})
	c.Collect(Metrics{Kind: MetricsLLM, PromptTokens: 50, CompletionTokens: 10})
	c.Collect(Metrics{Kind: MetricsTTS, CharactersSynthesized: 80})
	c.Collect(Metrics{Kind: MetricsEOU, EndOfUtteranceDelay: 500}) // ignored by the summary

	summary := c.Summary()
	if summary.STTAudioSeconds != 4.0 {
		t.Errorf("Expected 4.0 STT seconds, got %f", summary.STTAudioSeconds)
	}
	if summary.LLMPromptTokens != 150 {
		t.Errorf("Expected 150 prompt tokens, got %d", summary.LLMPromptTokens)
	}
	if summary.LLMCompletionTokens != 50 {
		t.Errorf("Expected 50 completion tokens, got %d", summary.LLMCompletionTokens)
	}
	if summary.TTSCharacters != 80 {
		t.Errorf("Expected 80 TTS characters, got %d", summary.TTSCharacters)
	}
}

func TestUsageCollector_Empty(t *testing.T) {
	summary := NewUsageCollector().Summary()
	if summary != (UsageSummary{}) {
		t.Errorf("Expected zero summary, got %+v", summary)
	}
}
