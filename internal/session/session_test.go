package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parleyai/voice-assistant/internal/config"
)

func TestGreeting(t *testing.T) {
	tests := []struct {
		documentName string
		expected     string
	}{
		{"", "Hello! How can I help you today?"},
		{"report.pdf", "Hello! I see you've uploaded 'report.pdf'. Let's discuss it!"},
	}

	for _, tt := range tests {
		if got := greeting(tt.documentName); got != tt.expected {
			t.Errorf("greeting(%q): expected %q, got %q", tt.documentName, tt.expected, got)
		}
	}
}

func TestPrewarm_MissingModel(t *testing.T) {
	cfg := &config.Config{VADModelPath: "/nonexistent/silero_vad.onnx", VADThreshold: 0.5}

	if _, err := Prewarm(cfg); err == nil {
		t.Error("Expected error for missing model file")
	}
}

func TestPrewarm_ValidatesPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "silero_vad.onnx")
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{VADModelPath: path, VADThreshold: 0.5}
	model, err := Prewarm(cfg)
	if err != nil {
		t.Fatalf("Prewarm failed: %v", err)
	}
	if model.Path() != path {
		t.Errorf("Expected model path %q, got %q", path, model.Path())
	}
}
