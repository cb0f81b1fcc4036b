package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/parleyai/voice-assistant/internal/chat"
	"github.com/parleyai/voice-assistant/internal/metadata"
	"github.com/parleyai/voice-assistant/internal/observability"
	"github.com/parleyai/voice-assistant/internal/weather"
)

// SystemPrompt seeds every session's conversation.
const SystemPrompt = "Interactive voice assistant. " +
	"Responses should be concise and conversational. " +
	"For document queries, check content first using get_document_content()."

// noDocumentMessage is returned by document tools when the participant
// joined without an upload.
const noDocumentMessage = "No document has been uploaded at this time."

// AgentHandle is the slice of the pipeline agent that tools may use: speaking
// an interim message and inspecting the conversation so far.
type AgentHandle interface {
	Say(ctx context.Context, text string, addToChatContext bool) error
	ChatContext() *chat.Context
}

// Assistant owns the per-session tool state: the uploaded document, the
// weather client, and a handle back to the running agent.
type Assistant struct {
	document *metadata.UploadedDocument
	weather  *weather.Client
	metrics  *observability.SessionMetrics
	agent    AgentHandle
}

// New creates an assistant for one session. The document may be nil when the
// participant uploaded nothing; metrics may be nil in tests.
func New(document *metadata.UploadedDocument, weatherClient *weather.Client, metrics *observability.SessionMetrics) *Assistant {
	return &Assistant{
		document: document,
		weather:  weatherClient,
		metrics:  metrics,
	}
}

// SetAgent wires the running agent in after construction. The agent needs
// the assistant's tools to start, and the tools need the agent to speak, so
// the link is completed late.
func (a *Assistant) SetAgent(agent AgentHandle) {
	a.agent = agent
}

// DocumentName returns the uploaded document's name, or empty when none.
func (a *Assistant) DocumentName() string {
	if a.document == nil {
		return ""
	}
	return a.document.Name
}

// Registry builds the tool registry for this session.
func (a *Assistant) Registry() *Registry {
	r := NewRegistry()

	r.Register(Tool{
		Name:        "get_document_content",
		Description: "Retrieves the content of the uploaded document",
		Handler:     a.getDocumentContent,
	})
	r.Register(Tool{
		Name:        "get_document_summary",
		Description: "Generates a summary of the uploaded document",
		Handler:     a.getDocumentSummary,
	})
	r.Register(Tool{
		Name:        "fetch_weather",
		Description: "Retrieves current weather information for the specified location",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"location": {
					Type:        jsonschema.String,
					Description: "Location to retrieve weather information for",
				},
			},
			Required: []string{"location"},
		},
		Handler: a.fetchWeather,
	})
	r.Register(Tool{
		Name:        "get_current_time",
		Description: "Returns the current local time",
		Handler:     a.getCurrentTime,
	})

	return r
}

func (a *Assistant) getDocumentContent(ctx context.Context, args json.RawMessage) (string, error) {
	if a.document == nil {
		return noDocumentMessage, nil
	}
	return fmt.Sprintf("Contents of '%s':\n%s", a.document.Name, a.document.Content), nil
}

// getDocumentSummary returns the full document content under a summary
// heading. Actual summarization is left to the model reading the result.
func (a *Assistant) getDocumentSummary(ctx context.Context, args json.RawMessage) (string, error) {
	if a.document == nil {
		return noDocumentMessage, nil
	}
	return fmt.Sprintf("Summary of '%s':\n%s", a.document.Name, a.document.Content), nil
}

func (a *Assistant) getCurrentTime(ctx context.Context, args json.RawMessage) (string, error) {
	return time.Now().Format("15:04:05"), nil
}

type fetchWeatherArgs struct {
	Location string `json:"location"`
}

func (a *Assistant) fetchWeather(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed fetchWeatherArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return "", fmt.Errorf("invalid fetch_weather arguments: %w", err)
	}

	location := weather.Sanitize(parsed.Location)
	logger := observability.GetLogger()

	// Acknowledge the lookup unless the assistant just spoke, so the user
	// hears something during the round trip.
	if a.agent != nil && a.agent.ChatContext().LastRole() != chat.RoleAssistant {
		statusMsg := fmt.Sprintf("Checking weather conditions in %s...", location)
		logger.Info().Str("message", statusMsg).Msg("Sending status message")
		if err := a.agent.Say(ctx, statusMsg, true); err != nil {
			logger.Warn().Err(err).Msg("Failed to speak weather status message")
		}
	}

	logger.Info().Str("location", location).Msg("Requesting weather data")
	report, err := a.weather.Current(ctx, location)
	if a.metrics != nil {
		a.metrics.RecordWeatherRequest(err == nil)
	}
	if err != nil {
		return "", fmt.Errorf("weather API request failed: %w", err)
	}

	return fmt.Sprintf("The weather in %s is %s.", location, report), nil
}
