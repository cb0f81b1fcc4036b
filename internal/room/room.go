// Package room implements the WebSocket room transport: participants join a
// room, publish PCM16 audio, and receive the assistant's synthesized speech.
package room

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/parleyai/voice-assistant/internal/observability"
)

// Event is one message on the room protocol. Clients send join, media, and
// leave; the server sends connected and media.
type Event struct {
	Type     string `json:"type"`
	Room     string `json:"room,omitempty"`
	Identity string `json:"identity,omitempty"`
	Name     string `json:"name,omitempty"`
	Metadata string `json:"metadata,omitempty"`
	Payload  string `json:"payload,omitempty"` // Base64 encoded PCM16 audio
}

// Event types on the room protocol.
const (
	EventJoin      = "join"
	EventMedia     = "media"
	EventLeave     = "leave"
	EventConnected = "connected"
)

// SubscribeMode controls which participant tracks the worker consumes.
type SubscribeMode int

const (
	// SubscribeAudioOnly subscribes to audio tracks only.
	SubscribeAudioOnly SubscribeMode = iota
	// SubscribeAll subscribes to every track.
	SubscribeAll
)

// Participant describes a remote participant in the room.
type Participant struct {
	Identity string
	Name     string
	Metadata string // Raw JSON, parsed by the metadata package
}

// ShutdownCallback runs when the room session ends.
type ShutdownCallback func(ctx context.Context)

// Room is one WebSocket room session. The worker connects, waits for a
// participant, then exchanges audio until the participant leaves or the
// connection drops.
type Room struct {
	conn *websocket.Conn
	name string

	mu          sync.RWMutex
	writeMu     sync.Mutex
	isActive    bool
	participant *Participant

	participantCh chan *Participant
	audioIn       chan []byte

	shutdownMu        sync.Mutex
	shutdownCallbacks []ShutdownCallback
	shutdownOnce      sync.Once

	metrics *observability.SessionMetrics
	logger  zerolog.Logger
	done    chan struct{}
}

// NewRoom wraps an established WebSocket connection in a room session.
func NewRoom(conn *websocket.Conn) *Room {
	name := "room-" + uuid.NewString()[:8]
	sessionID := observability.NewCorrelationID()

	return &Room{
		conn:          conn,
		name:          name,
		participantCh: make(chan *Participant, 1),
		audioIn:       make(chan []byte, 100),
		metrics:       observability.NewSessionMetrics(sessionID),
		logger:        observability.WithSession(sessionID).With().Str("room", name).Logger(),
		done:          make(chan struct{}),
		isActive:      true,
	}
}

// Name returns the room name.
func (r *Room) Name() string {
	return r.name
}

// Metrics returns the session metrics recorder shared with the pipeline.
func (r *Room) Metrics() *observability.SessionMetrics {
	return r.metrics
}

// Logger returns the room's session-scoped logger.
func (r *Room) Logger() zerolog.Logger {
	return r.logger
}

// Connect acknowledges the connection and starts the read pump. The mode is
// reported to the client; this worker only ever consumes audio.
func (r *Room) Connect(ctx context.Context, mode SubscribeMode) error {
	subscribe := "audio_only"
	if mode == SubscribeAll {
		subscribe = "all"
	}

	if err := r.writeEvent(&Event{Type: EventConnected, Room: r.name, Metadata: subscribe}); err != nil {
		return fmt.Errorf("failed to acknowledge connection: %w", err)
	}

	r.metrics.RecordSessionStart()
	go r.readLoop()
	return nil
}

// WaitForParticipant blocks until a participant joins the room or the
// context is cancelled.
func (r *Room) WaitForParticipant(ctx context.Context) (*Participant, error) {
	select {
	case p := <-r.participantCh:
		return p, nil
	case <-r.done:
		return nil, fmt.Errorf("room closed before a participant joined")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AudioIn returns the channel of decoded PCM16 audio from the participant.
func (r *Room) AudioIn() <-chan []byte {
	return r.audioIn
}

// SendAudio publishes PCM16 audio to the participant as a media event.
func (r *Room) SendAudio(data []byte) error {
	r.mu.RLock()
	active := r.isActive
	r.mu.RUnlock()
	if !active {
		return fmt.Errorf("room is closed")
	}

	r.metrics.RecordAudioBytes("out", int64(len(data)))
	return r.writeEvent(&Event{
		Type:    EventMedia,
		Payload: base64.StdEncoding.EncodeToString(data),
	})
}

// AddShutdownCallback registers a callback to run when the session ends.
func (r *Room) AddShutdownCallback(cb ShutdownCallback) {
	r.shutdownMu.Lock()
	defer r.shutdownMu.Unlock()
	r.shutdownCallbacks = append(r.shutdownCallbacks, cb)
}

// Done returns a channel closed when the session ends.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// Close ends the session, running shutdown callbacks exactly once.
func (r *Room) Close() {
	r.shutdownOnce.Do(func() {
		r.mu.Lock()
		r.isActive = false
		r.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		r.shutdownMu.Lock()
		callbacks := r.shutdownCallbacks
		r.shutdownMu.Unlock()
		for _, cb := range callbacks {
			cb(ctx)
		}

		r.metrics.RecordSessionEnd()
		close(r.done)
	})
}

// readLoop consumes events from the participant until the connection ends.
func (r *Room) readLoop() {
	defer r.Close()

	for {
		r.mu.RLock()
		active := r.isActive
		r.mu.RUnlock()
		if !active {
			return
		}

		_, message, err := r.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		var event Event
		if err := json.Unmarshal(message, &event); err != nil {
			r.logger.Error().Err(err).Msg("Failed to parse room event")
			continue
		}

		switch event.Type {
		case EventJoin:
			p := &Participant{
				Identity: event.Identity,
				Name:     event.Name,
				Metadata: event.Metadata,
			}
			r.mu.Lock()
			r.participant = p
			r.mu.Unlock()

			r.logger.Info().Str("identity", p.Identity).Msg("Participant joined")
			select {
			case r.participantCh <- p:
			default:
			}

		case EventMedia:
			r.handleMediaEvent(&event)

		case EventLeave:
			r.logger.Info().Str("identity", event.Identity).Msg("Participant left")
			return

		default:
			r.logger.Warn().Str("type", event.Type).Msg("Unknown room event")
		}
	}
}

// handleMediaEvent decodes a media payload and queues it for the pipeline.
func (r *Room) handleMediaEvent(event *Event) {
	if event.Payload == "" {
		r.logger.Warn().Msg("Media event missing payload")
		return
	}

	audioData, err := base64.StdEncoding.DecodeString(event.Payload)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to decode media payload")
		return
	}

	r.metrics.RecordAudioBytes("in", int64(len(audioData)))

	select {
	case r.audioIn <- audioData:
	default:
		r.logger.Warn().Msg("Audio channel full, dropping chunk")
	}
}

func (r *Room) writeEvent(event *Event) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteJSON(event)
}
