package room

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/parleyai/voice-assistant/internal/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin validation is delegated to the fronting proxy
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// EntrypointFunc runs one room session to completion.
type EntrypointFunc func(ctx context.Context, room *Room) error

// Handler upgrades incoming WebSocket connections and hands each room
// session to the entrypoint.
func Handler(entrypoint EntrypointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.GetLogger()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		rm := NewRoom(conn)
		logger.Info().Str("room", rm.Name()).Msg("New room connection established")

		if err := entrypoint(r.Context(), rm); err != nil {
			roomLogger := rm.Logger()
			roomLogger.Error().Err(err).Msg("Room session ended with error")
		}

		rm.Close()
	}
}
