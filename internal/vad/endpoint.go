package vad

import (
	"time"
)

// EndpointEvent is the outcome of feeding one frame to the Endpointer.
type EndpointEvent int

const (
	// EndpointNone means no state change.
	EndpointNone EndpointEvent = iota
	// EndpointSpeechStarted means the user began speaking.
	EndpointSpeechStarted
	// EndpointTurnComplete means enough silence has accumulated to treat
	// the user's turn as finished.
	EndpointTurnComplete
)

// EndpointerConfig controls turn-end detection.
type EndpointerConfig struct {
	// MinDelay is the least silence required before a turn can complete.
	MinDelay time.Duration
	// MaxDelay is the silence after which a turn completes unconditionally,
	// even if no final transcript has arrived yet.
	MaxDelay time.Duration
	// FrameDuration is the wall-clock length of one VAD frame.
	FrameDuration time.Duration
}

// DefaultEndpointerConfig mirrors the pipeline defaults: 0.5s minimum and
// 5s maximum of silence, 32ms frames.
func DefaultEndpointerConfig() EndpointerConfig {
	return EndpointerConfig{
		MinDelay:      500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		FrameDuration: 32 * time.Millisecond,
	}
}

// Endpointer decides when the user has finished a turn. It consumes
// per-frame speech decisions from the Detector plus a signal for whether a
// final transcript is already available: with a transcript in hand, MinDelay
// of silence ends the turn; without one, the turn is forced closed only
// after MaxDelay.
type Endpointer struct {
	config   EndpointerConfig
	speaking bool
	silence  time.Duration
}

// NewEndpointer creates an endpointer with the given config, filling in
// defaults for zero fields.
func NewEndpointer(config EndpointerConfig) *Endpointer {
	def := DefaultEndpointerConfig()
	if config.MinDelay == 0 {
		config.MinDelay = def.MinDelay
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = def.MaxDelay
	}
	if config.FrameDuration == 0 {
		config.FrameDuration = def.FrameDuration
	}
	return &Endpointer{config: config}
}

// ProcessFrame advances the endpointer by one frame.
func (e *Endpointer) ProcessFrame(speech, hasFinalTranscript bool) EndpointEvent {
	if speech {
		e.silence = 0
		if !e.speaking {
			e.speaking = true
			return EndpointSpeechStarted
		}
		return EndpointNone
	}

	if !e.speaking {
		return EndpointNone
	}

	e.silence += e.config.FrameDuration

	if (hasFinalTranscript && e.silence >= e.config.MinDelay) || e.silence >= e.config.MaxDelay {
		e.speaking = false
		e.silence = 0
		return EndpointTurnComplete
	}
	return EndpointNone
}

// IsSpeaking reports whether a user turn is in progress.
func (e *Endpointer) IsSpeaking() bool {
	return e.speaking
}

// SilenceDuration returns the silence accumulated in the current turn.
func (e *Endpointer) SilenceDuration() time.Duration {
	return e.silence
}

// Reset clears turn state.
func (e *Endpointer) Reset() {
	e.speaking = false
	e.silence = 0
}
