package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_assistant_active_sessions",
		Help: "Number of active assistant sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_assistant_sessions_total",
		Help: "Total number of assistant sessions started",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_assistant_session_duration_seconds",
		Help:    "Duration of assistant sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	})

	// Tool metrics
	toolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_tool_invocations_total",
		Help: "Total number of tool invocations",
	}, []string{"tool", "status"})

	toolLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voice_assistant_tool_latency_seconds",
		Help:    "Tool invocation latency in seconds",
		Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	}, []string{"tool"})

	// Weather lookup metrics
	weatherRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_weather_requests_total",
		Help: "Total number of outbound weather requests",
	}, []string{"status"})

	// Pipeline usage metrics (fed by the metrics relay)
	llmTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_llm_tokens_total",
		Help: "Total LLM tokens consumed",
	}, []string{"kind"}) // kind: "prompt" or "completion"

	sttAudioSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_assistant_stt_audio_seconds_total",
		Help: "Total seconds of audio transcribed",
	})

	ttsCharacters = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_assistant_tts_characters_total",
		Help: "Total characters synthesized",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics (STT stream)
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_assistant_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	// Audio metrics
	audioBytesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_assistant_audio_bytes_total",
		Help: "Total audio bytes processed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// SessionMetrics tracks metrics for a single assistant session
type SessionMetrics struct {
	sessionID string
	startTime time.Time
}

// NewSessionMetrics creates a new metrics tracker for a session
func NewSessionMetrics(sessionID string) *SessionMetrics {
	return &SessionMetrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a session
func (m *SessionMetrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a session
func (m *SessionMetrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordToolInvocation records a tool invocation and its latency
func (m *SessionMetrics) RecordToolInvocation(tool string, elapsed time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	toolInvocations.WithLabelValues(tool, status).Inc()
	toolLatency.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// RecordWeatherRequest records an outbound weather request
func (m *SessionMetrics) RecordWeatherRequest(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	weatherRequests.WithLabelValues(status).Inc()
}

// RecordLLMTokens records LLM token usage
func (m *SessionMetrics) RecordLLMTokens(promptTokens, completionTokens int) {
	llmTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	llmTokens.WithLabelValues("completion").Add(float64(completionTokens))
}

// RecordSTTAudio records seconds of audio transcribed
func (m *SessionMetrics) RecordSTTAudio(seconds float64) {
	sttAudioSeconds.Add(seconds)
}

// RecordTTSCharacters records characters sent to TTS
func (m *SessionMetrics) RecordTTSCharacters(count int) {
	ttsCharacters.Add(float64(count))
}

// RecordError records an error
func (m *SessionMetrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes processed
func (m *SessionMetrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesProcessed.WithLabelValues(direction).Add(float64(bytes))
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
