package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parleyai/voice-assistant/internal/assistant"
	"github.com/parleyai/voice-assistant/internal/audio"
	"github.com/parleyai/voice-assistant/internal/chat"
	"github.com/parleyai/voice-assistant/internal/llm"
	"github.com/parleyai/voice-assistant/internal/observability"
	"github.com/parleyai/voice-assistant/internal/stt"
	"github.com/parleyai/voice-assistant/internal/tts"
	"github.com/parleyai/voice-assistant/internal/vad"
)

// SpeechDetector is the per-session VAD detector the agent drives.
type SpeechDetector interface {
	ProcessFrame(frame []int16) (bool, error)
	Close()
}

// LLMClient runs chat completions with tools.
type LLMClient interface {
	Complete(ctx context.Context, messages []chat.Message, tools []llm.Tool) (*llm.Result, error)
}

// AudioPublisher delivers synthesized audio to the participant.
type AudioPublisher interface {
	SendAudio(data []byte) error
}

// Params configures a VoicePipelineAgent.
type Params struct {
	Detector    SpeechDetector
	STT         stt.STTClient
	LLM         LLMClient
	TTS         tts.TTSClient
	Registry    *assistant.Registry
	ChatContext *chat.Context
	Output      AudioPublisher
	Logger      zerolog.Logger
	Metrics     *observability.SessionMetrics

	MinEndpointingDelay time.Duration
	MaxEndpointingDelay time.Duration
	MaxToolRounds       int
	AudioBufferSize     int // Outbound ring buffer size in bytes
}

// playbackChunkBytes is how much buffered speech is flushed to the room per
// write, 100ms of 16kHz mono PCM16.
const playbackChunkBytes = 3200

// VoicePipelineAgent drives one conversation: it feeds participant audio
// through VAD and STT, commits user turns via the endpointer, runs chat
// completions with tool dispatch, and speaks the result.
type VoicePipelineAgent struct {
	detector SpeechDetector
	stt      stt.STTClient
	llm      LLMClient
	tts      tts.TTSClient
	registry *assistant.Registry
	chatCtx  *chat.Context
	output   AudioPublisher
	logger   zerolog.Logger
	metrics  *observability.SessionMetrics

	endpointer    *vad.Endpointer
	framer        *audio.Framer
	outBuffer     *audio.RingBuffer
	tools         []llm.Tool
	maxToolRounds int

	mu             sync.Mutex
	pending        []string
	lastSpeechTime time.Time

	handlersMu      sync.Mutex
	metricsHandlers []func(Metrics)

	// speakMu serializes speech so overlapping Say calls cannot interleave
	// audio chunks.
	speakMu sync.Mutex

	started   bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewVoicePipelineAgent assembles an agent from its pipeline components.
func NewVoicePipelineAgent(p Params) *VoicePipelineAgent {
	if p.MaxToolRounds <= 0 {
		p.MaxToolRounds = 5
	}
	if p.AudioBufferSize <= 0 {
		p.AudioBufferSize = 16384
	}

	a := &VoicePipelineAgent{
		detector: p.Detector,
		stt:      p.STT,
		llm:      p.LLM,
		tts:      p.TTS,
		registry: p.Registry,
		chatCtx:  p.ChatContext,
		output:   p.Output,
		logger:   p.Logger,
		metrics:  p.Metrics,
		endpointer: vad.NewEndpointer(vad.EndpointerConfig{
			MinDelay: p.MinEndpointingDelay,
			MaxDelay: p.MaxEndpointingDelay,
		}),
		framer:        audio.NewFramer(vad.FrameSize),
		outBuffer:     audio.NewRingBuffer(p.AudioBufferSize),
		maxToolRounds: p.MaxToolRounds,
		done:          make(chan struct{}),
	}

	if p.Registry != nil {
		for _, t := range p.Registry.List() {
			a.tools = append(a.tools, llm.Tool{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
	}

	return a
}

// ChatContext returns the conversation history.
func (a *VoicePipelineAgent) ChatContext() *chat.Context {
	return a.chatCtx
}

// OnMetrics registers a handler for pipeline metrics events.
func (a *VoicePipelineAgent) OnMetrics(fn func(Metrics)) {
	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()
	a.metricsHandlers = append(a.metricsHandlers, fn)
}

func (a *VoicePipelineAgent) emitMetrics(m Metrics) {
	m.Timestamp = time.Now()
	LogMetrics(a.logger, m)

	a.handlersMu.Lock()
	handlers := a.metricsHandlers
	a.handlersMu.Unlock()
	for _, fn := range handlers {
		fn(m)
	}
}

// Start begins the pipeline over the given audio source.
func (a *VoicePipelineAgent) Start(ctx context.Context, audioIn <-chan []byte) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("agent is already started")
	}
	a.started = true
	a.mu.Unlock()

	if err := a.stt.Start(); err != nil {
		return fmt.Errorf("failed to start STT: %w", err)
	}

	go a.processAudio(ctx, audioIn)
	go a.processTranscriptions(ctx)
	go a.playbackLoop(ctx)
	return nil
}

// playbackLoop drains buffered speech to the participant at a steady clip.
func (a *VoicePipelineAgent) playbackLoop(ctx context.Context) {
	buf := make([]byte, playbackChunkBytes)
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		default:
		}

		n := a.outBuffer.Read(buf)
		if n == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err := a.output.SendAudio(append([]byte(nil), buf[:n]...)); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to publish audio")
		}
	}
}

// enqueueAudio writes synthesized audio into the outbound buffer, waiting
// for the playback loop to free space rather than truncating speech.
func (a *VoicePipelineAgent) enqueueAudio(ctx context.Context, data []byte) error {
	for len(data) > 0 {
		if a.outBuffer.Space() == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.done:
				return fmt.Errorf("agent is closed")
			case <-time.After(5 * time.Millisecond):
			}
			continue
		}
		n := a.outBuffer.Write(data)
		data = data[n:]
	}
	return nil
}

// processAudio feeds participant audio to STT and the VAD/endpointing loop.
func (a *VoicePipelineAgent) processAudio(ctx context.Context, audioIn <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case chunk, ok := <-audioIn:
			if !ok {
				return
			}

			if err := a.stt.SendAudio(chunk); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to forward audio to STT")
				if a.metrics != nil {
					a.metrics.RecordError("stt_send", "agent")
				}
			}

			for _, frame := range a.framer.Push(chunk) {
				a.processFrame(ctx, frame)
			}
		}
	}
}

// processFrame advances VAD and endpointing by one frame.
func (a *VoicePipelineAgent) processFrame(ctx context.Context, frame []int16) {
	speaking, err := a.detector.ProcessFrame(frame)
	if err != nil {
		a.logger.Warn().Err(err).Msg("VAD detection failed")
		return
	}

	if speaking {
		a.mu.Lock()
		a.lastSpeechTime = time.Now()
		a.mu.Unlock()
	}

	switch a.endpointer.ProcessFrame(speaking, a.hasPendingTranscript()) {
	case vad.EndpointSpeechStarted:
		a.logger.Debug().Msg("User speech started")
		if a.tts.IsActive() {
			a.logger.Info().Msg("User speaking detected, stopping TTS")
			if err := a.tts.Stop(); err != nil {
				a.logger.Error().Err(err).Msg("Error stopping TTS")
			}
			// Drop queued speech so the interruption is immediate
			a.outBuffer.Clear()
		}

	case vad.EndpointTurnComplete:
		a.commitTurn(ctx)
	}
}

// commitTurn finalizes the user's turn and kicks off a response.
func (a *VoicePipelineAgent) commitTurn(ctx context.Context) {
	a.mu.Lock()
	text := strings.TrimSpace(strings.Join(a.pending, " "))
	a.pending = nil
	lastSpeech := a.lastSpeechTime
	a.mu.Unlock()

	if !lastSpeech.IsZero() {
		a.emitMetrics(Metrics{Kind: MetricsEOU, EndOfUtteranceDelay: time.Since(lastSpeech)})
	}

	if text == "" {
		return
	}

	a.logger.Info().Str("text", text).Msg("User turn committed")
	a.chatCtx.Append(chat.RoleUser, text)
	go a.respond(ctx)
}

// processTranscriptions accumulates final STT results for the current turn.
func (a *VoicePipelineAgent) processTranscriptions(ctx context.Context) {
	transcripts := a.stt.GetTranscription()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case result, ok := <-transcripts:
			if !ok {
				return
			}
			if result == nil || !result.IsFinal {
				continue
			}

			a.mu.Lock()
			a.pending = append(a.pending, result.Text)
			a.mu.Unlock()

			if a.metrics != nil {
				a.metrics.RecordSTTAudio(result.Duration)
			}
			a.emitMetrics(Metrics{Kind: MetricsSTT, AudioDurationSeconds: result.Duration})
		}
	}
}

func (a *VoicePipelineAgent) hasPendingTranscript() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending) > 0
}

// respond runs chat completions, dispatching tool calls one at a time, until
// the model produces a spoken reply or the round limit is hit.
func (a *VoicePipelineAgent) respond(ctx context.Context) {
	for round := 0; round < a.maxToolRounds; round++ {
		result, err := a.llm.Complete(ctx, a.chatCtx.Messages(), a.tools)
		if err != nil {
			a.logger.Error().Err(err).Msg("Chat completion failed")
			if a.metrics != nil {
				a.metrics.RecordError("completion", "agent")
			}
			return
		}

		if a.metrics != nil {
			a.metrics.RecordLLMTokens(result.Usage.PromptTokens, result.Usage.CompletionTokens)
		}
		a.emitMetrics(Metrics{
			Kind:             MetricsLLM,
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		})

		if len(result.ToolCalls) == 0 {
			if result.Text != "" {
				if err := a.Say(ctx, result.Text, true); err != nil {
					a.logger.Error().Err(err).Msg("Failed to speak response")
				}
			}
			return
		}

		// Tools run before the call message is recorded, so a tool that
		// inspects the history still sees the user's turn as the last entry
		// and may speak an interim status message.
		outputs := make([]string, len(result.ToolCalls))
		for i, call := range result.ToolCalls {
			start := time.Now()
			out, err := a.registry.Execute(ctx, call.Name, json.RawMessage(call.Arguments))
			if a.metrics != nil {
				a.metrics.RecordToolInvocation(call.Name, time.Since(start), err == nil)
			}
			if err != nil {
				a.logger.Warn().Err(err).Str("tool", call.Name).Msg("Tool invocation failed")
				out = fmt.Sprintf("Error: %v", err)
			}
			outputs[i] = out
		}

		a.chatCtx.AppendToolCalls(result.Text, result.ToolCalls)
		for i, call := range result.ToolCalls {
			a.chatCtx.AppendToolResult(call.ID, outputs[i])
		}
	}

	a.logger.Warn().Int("rounds", a.maxToolRounds).Msg("Tool round limit reached without a reply")
}

// Say synthesizes text and streams it to the participant. When
// addToChatContext is set the text also becomes an assistant message.
func (a *VoicePipelineAgent) Say(ctx context.Context, text string, addToChatContext bool) error {
	a.speakMu.Lock()
	defer a.speakMu.Unlock()

	if addToChatContext {
		a.chatCtx.Append(chat.RoleAssistant, text)
	}

	chunks, err := a.tts.Synthesize(text)
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordError("synthesis", "agent")
		}
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			a.tts.Stop()
			for range chunks {
			}
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				if a.metrics != nil {
					a.metrics.RecordTTSCharacters(len(text))
				}
				a.emitMetrics(Metrics{Kind: MetricsTTS, CharactersSynthesized: len(text)})
				return nil
			}
			if err := a.enqueueAudio(ctx, chunk.Data); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to queue audio for playback")
			}
		}
	}
}

// Close stops the pipeline and releases its components.
func (a *VoicePipelineAgent) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		if err := a.stt.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Error closing STT client")
		}
		if err := a.tts.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Error closing TTS client")
		}
		a.detector.Close()
	})
}
