// Package vad wraps the Silero voice-activity-detection model and the
// endpointing logic that decides when a user turn is complete.
package vad

import (
	"fmt"
	"os"

	"github.com/streamer45/silero-vad-go/speech"

	"github.com/parleyai/voice-assistant/internal/audio"
)

// FrameSize is the detection window the Silero model expects: 512 samples,
// 32ms at 16kHz.
const FrameSize = 512

// Model is the process-wide VAD model handle. It is loaded once at worker
// start (prewarm), is read-only afterwards, and is passed by reference into
// every session. Sessions derive their own stateful Detector from it.
type Model struct {
	path      string
	threshold float32
}

// Load validates and prepares the Silero ONNX model for use. Call once per
// worker process.
func Load(path string, threshold float64) (*Model, error) {
	if path == "" {
		return nil, fmt.Errorf("VAD model path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("VAD model not found at %s: %w", path, err)
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	return &Model{path: path, threshold: float32(threshold)}, nil
}

// Path returns the on-disk location of the model.
func (m *Model) Path() string {
	return m.path
}

// Detector tracks speech activity for one session. Not safe for concurrent
// use; each session owns exactly one.
type Detector struct {
	detector *speech.Detector
	speaking bool
}

// NewDetector creates a per-session detector backed by the shared model.
func NewDetector(m *Model) (*Detector, error) {
	det, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            m.path,
		SampleRate:           audio.SampleRate, // Silero supports 8kHz and 16kHz only
		Threshold:            m.threshold,
		MinSilenceDurationMs: 100,
		SpeechPadMs:          30,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create VAD detector: %w", err)
	}
	return &Detector{detector: det}, nil
}

// ProcessFrame runs the model on one FrameSize window of PCM16 samples and
// returns whether the frame contains speech.
func (d *Detector) ProcessFrame(frame []int16) (bool, error) {
	pcm := make([]float32, len(frame))
	for i, s := range frame {
		pcm[i] = float32(s) / 32768.0
	}

	segments, err := d.detector.Detect(pcm)
	if err != nil {
		return d.speaking, fmt.Errorf("VAD detection failed: %w", err)
	}

	for _, segment := range segments {
		if segment.SpeechStartAt > 0 {
			d.speaking = true
		}
		if segment.SpeechEndAt > 0 {
			d.speaking = false
		}
	}
	return d.speaking, nil
}

// IsSpeaking reports whether speech is currently detected.
func (d *Detector) IsSpeaking() bool {
	return d.speaking
}

// Reset clears detection state between turns.
func (d *Detector) Reset() error {
	d.speaking = false
	return d.detector.Reset()
}

// Close releases the underlying ONNX session.
func (d *Detector) Close() {
	if d.detector != nil {
		d.detector.Destroy()
		d.detector = nil
	}
}
