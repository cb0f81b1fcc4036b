package room

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestEventDecoding(t *testing.T) {
	raw := `{"type":"join","identity":"user-42","name":"Ada","metadata":"{\"uploadedFile\":null}"}`

	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if event.Type != EventJoin {
		t.Errorf("Expected join event, got %q", event.Type)
	}
	if event.Identity != "user-42" || event.Name != "Ada" {
		t.Errorf("Unexpected participant fields: %+v", event)
	}
	if event.Metadata == "" {
		t.Error("Expected metadata to be preserved")
	}
}

// dialTestRoom spins up a handler whose entrypoint captures the room, and
// dials it with a WebSocket client.
func dialTestRoom(t *testing.T) (*websocket.Conn, *Room) {
	t.Helper()

	roomCh := make(chan *Room, 1)
	handler := Handler(func(ctx context.Context, rm *Room) error {
		if err := rm.Connect(ctx, SubscribeAudioOnly); err != nil {
			return err
		}
		roomCh <- rm
		<-rm.Done()
		return nil
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	select {
	case rm := <-roomCh:
		return conn, rm
	case <-time.After(2 * time.Second):
		t.Fatal("Room was not created")
		return nil, nil
	}
}

func TestRoom_ConnectSendsAck(t *testing.T) {
	conn, _ := dialTestRoom(t)

	var ack Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("Failed to read ack: %v", err)
	}
	if ack.Type != EventConnected {
		t.Errorf("Expected connected event, got %q", ack.Type)
	}
	if ack.Metadata != "audio_only" {
		t.Errorf("Expected audio_only subscription, got %q", ack.Metadata)
	}
}

func TestRoom_WaitForParticipant(t *testing.T) {
	conn, rm := dialTestRoom(t)

	join := Event{Type: EventJoin, Identity: "user-1", Name: "Grace", Metadata: "{}"}
	if err := conn.WriteJSON(&join); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p, err := rm.WaitForParticipant(ctx)
	if err != nil {
		t.Fatalf("WaitForParticipant failed: %v", err)
	}
	if p.Identity != "user-1" || p.Name != "Grace" {
		t.Errorf("Unexpected participant: %+v", p)
	}
}

func TestRoom_MediaRoundTrip(t *testing.T) {
	conn, rm := dialTestRoom(t)

	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	media := Event{Type: EventMedia, Payload: base64.StdEncoding.EncodeToString(pcm)}
	if err := conn.WriteJSON(&media); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	select {
	case got := <-rm.AudioIn():
		if len(got) != len(pcm) {
			t.Errorf("Expected %d bytes, got %d", len(pcm), len(got))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("No audio received")
	}

	// Server to client
	if err := rm.SendAudio([]byte{0x05, 0x06}); err != nil {
		t.Fatalf("SendAudio failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var out Event
		if err := conn.ReadJSON(&out); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		if out.Type != EventMedia {
			continue // skip the connected ack
		}
		decoded, err := base64.StdEncoding.DecodeString(out.Payload)
		if err != nil {
			t.Fatalf("Payload decode failed: %v", err)
		}
		if len(decoded) != 2 {
			t.Errorf("Expected 2 bytes, got %d", len(decoded))
		}
		return
	}
}

func TestRoom_LeaveRunsShutdownCallbacks(t *testing.T) {
	conn, rm := dialTestRoom(t)

	called := make(chan struct{})
	rm.AddShutdownCallback(func(ctx context.Context) {
		close(called)
	})

	if err := conn.WriteJSON(&Event{Type: EventLeave, Identity: "user-1"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown callback not invoked")
	}

	select {
	case <-rm.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done channel not closed")
	}
}
