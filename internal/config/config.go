package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice assistant worker
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Deepgram STT API configuration
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`  // Language code (en, es, fr, etc.)

	// OpenAI LLM configuration
	OpenAIAPIKey      string  `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel       string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAITemperature float64 `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`
	MaxToolRounds     int     `envconfig:"MAX_TOOL_ROUNDS" default:"5"` // Tool-call rounds per user turn before giving up

	// ElevenLabs TTS API configuration
	ElevenLabsAPIKey  string `envconfig:"ELEVENLABS_API_KEY" required:"true"`
	ElevenLabsVoiceID string `envconfig:"ELEVENLABS_VOICE_ID" default:"21m00Tcm4TlvDq8ikWAM"`
	ElevenLabsModelID string `envconfig:"ELEVENLABS_MODEL_ID" default:"eleven_turbo_v2"`

	// Voice activity detection (Silero ONNX model, loaded once per process)
	VADModelPath string  `envconfig:"VAD_MODEL_PATH" default:"silero_vad.onnx"`
	VADThreshold float64 `envconfig:"VAD_THRESHOLD" default:"0.5"`

	// Endpointing: silence required before a user turn is considered complete
	MinEndpointingDelayMs int `envconfig:"MIN_ENDPOINTING_DELAY_MS" default:"500"`
	MaxEndpointingDelayMs int `envconfig:"MAX_ENDPOINTING_DELAY_MS" default:"5000"`

	// Weather tool configuration
	WeatherBaseURL string `envconfig:"WEATHER_BASE_URL" default:"https://wttr.in"`
	WeatherTimeout int    `envconfig:"WEATHER_TIMEOUT" default:"10"` // Request timeout in seconds

	// Audio processing configuration
	AudioBufferSize int `envconfig:"AUDIO_BUFFER_SIZE" default:"16384"` // Ring buffer size in bytes

	// Resilience configuration (STT stream only; the weather tool never retries)
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	ReconnectMaxAttempts       int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`         // Maximum STT reconnection attempts
	ReconnectBackoff           int `envconfig:"RECONNECT_BACKOFF" default:"1000"`           // Reconnection backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate required fields
	if cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.ElevenLabsAPIKey == "" {
		return nil, fmt.Errorf("ELEVENLABS_API_KEY is required")
	}
	if cfg.MinEndpointingDelayMs > cfg.MaxEndpointingDelayMs {
		return nil, fmt.Errorf("MIN_ENDPOINTING_DELAY_MS (%d) must not exceed MAX_ENDPOINTING_DELAY_MS (%d)",
			cfg.MinEndpointingDelayMs, cfg.MaxEndpointingDelayMs)
	}

	return &cfg, nil
}

// MinEndpointingDelay returns the minimum endpointing delay as a duration
func (c *Config) MinEndpointingDelay() time.Duration {
	return time.Duration(c.MinEndpointingDelayMs) * time.Millisecond
}

// MaxEndpointingDelay returns the maximum endpointing delay as a duration
func (c *Config) MaxEndpointingDelay() time.Duration {
	return time.Duration(c.MaxEndpointingDelayMs) * time.Millisecond
}

// WeatherRequestTimeout returns the weather request timeout as a duration
func (c *Config) WeatherRequestTimeout() time.Duration {
	return time.Duration(c.WeatherTimeout) * time.Second
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
