package tts

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parleyai/voice-assistant/internal/config"
)

func testClient(serverURL string) *ElevenLabsClient {
	cfg := &config.Config{
		ElevenLabsAPIKey:  "test-key",
		ElevenLabsVoiceID: "test-voice",
		ElevenLabsModelID: "eleven_turbo_v2",
	}
	c := NewElevenLabsClient(cfg)
	c.baseURL = serverURL
	return c
}

func TestElevenLabsClient_Synthesize(t *testing.T) {
	audioData := make([]byte, 10000)
	for i := range audioData {
		audioData[i] = byte(i % 251)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("Expected xi-api-key header, got %q", r.Header.Get("xi-api-key"))
		}
		if !strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/test-voice/stream") {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "pcm_16000" {
			t.Errorf("Expected output_format pcm_16000, got %q", got)
		}
		w.Write(audioData)
	}))
	defer server.Close()

	c := testClient(server.URL)

	chunks, err := c.Synthesize("Hello there")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	var received []byte
	for chunk := range chunks {
		if chunk.SampleRate != 16000 {
			t.Errorf("Expected sample rate 16000, got %d", chunk.SampleRate)
		}
		if chunk.Channels != 1 {
			t.Errorf("Expected 1 channel, got %d", chunk.Channels)
		}
		received = append(received, chunk.Data...)
	}

	if len(received) != len(audioData) {
		t.Errorf("Expected %d bytes, got %d", len(audioData), len(received))
	}

	if c.IsActive() {
		t.Error("Expected client inactive after stream drained")
	}
}

func TestElevenLabsClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := testClient(server.URL)

	if _, err := c.Synthesize("Hello"); err == nil {
		t.Fatal("Expected error for 401 response")
	}
	if c.IsActive() {
		t.Error("Expected client inactive after failed request")
	}
}

func TestElevenLabsClient_RejectsConcurrentSynthesis(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		close(started)
		<-release
	}))
	defer server.Close()

	c := testClient(server.URL)

	chunks, err := c.Synthesize("First")
	if err != nil {
		t.Fatalf("First Synthesize failed: %v", err)
	}
	<-started

	if _, err := c.Synthesize("Second"); err == nil {
		t.Error("Expected error for concurrent synthesis")
	}

	close(release)
	for range chunks {
	}
}

func TestElevenLabsClient_SequentialSynthesis(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pcm data"))
	}))
	defer server.Close()

	c := testClient(server.URL)

	// A completed synthesis releases its context and the client is reusable
	for i := 0; i < 2; i++ {
		chunks, err := c.Synthesize("Hello again")
		if err != nil {
			t.Fatalf("Synthesize %d failed: %v", i, err)
		}
		for range chunks {
		}
		if c.IsActive() {
			t.Fatalf("Expected client inactive after synthesis %d", i)
		}
	}
}

func TestElevenLabsClient_Stop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		// Keep the stream open until the client cancels
		<-r.Context().Done()
	}))
	defer server.Close()

	c := testClient(server.URL)

	chunks, err := c.Synthesize("Interrupted speech")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if err := c.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}

	select {
	case _, ok := <-chunks:
		if ok {
			// Drain any chunk that raced with Stop
			for range chunks {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Channel not closed after Stop")
	}

	if c.IsActive() {
		t.Error("Expected client inactive after Stop")
	}
}
