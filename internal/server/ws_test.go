package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/gesture"
)

// dialHub connects a test client and waits for the hub to register it.
func dialHub(t *testing.T, hub *Hub, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub()
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dialHub(t, hub, ts)

	if err := hub.PublishEvent(gesture.Event{ID: 1, Name: "B", Confidence: 0.97}); err != nil {
		t.Fatalf("PublishEvent() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var payload struct {
		Type  string        `json:"type"`
		Event gesture.Event `json:"event"`
	}
	if err := json.Unmarshal(msg, &payload); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}

	if payload.Type != "event" {
		t.Errorf("type = %q, want event", payload.Type)
	}
	if payload.Event.Name != "B" {
		t.Errorf("event name = %q, want B", payload.Event.Name)
	}
	if payload.Event.Confidence != 0.97 {
		t.Errorf("event confidence = %f, want 0.97", payload.Event.Confidence)
	}
}

func TestHubBroadcastsTranscript(t *testing.T) {
	hub := NewHub()
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dialHub(t, hub, ts)

	if err := hub.PublishText("HELLO "); err != nil {
		t.Fatalf("PublishText() error = %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var payload struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(msg, &payload); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}

	if payload.Type != "transcript" {
		t.Errorf("type = %q, want transcript", payload.Type)
	}
	if payload.Text != "HELLO " {
		t.Errorf("text = %q, want %q", payload.Text, "HELLO ")
	}
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	hub := NewHub()
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dialHub(t, hub, ts)
	if got := hub.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d, want 1", got)
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("hub never dropped the disconnected client")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Publishing with no clients is a quiet no-op
	if err := hub.PublishEvent(gesture.Event{Name: "A"}); err != nil {
		t.Errorf("PublishEvent() with no clients error = %v", err)
	}
}
