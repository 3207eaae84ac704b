package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewMessage(t *testing.T) {
	msg := NewMessage("medication_log", "updated", 42, map[string]any{"status": "taken"})
	if msg.Type != "medication_log_updated" {
		t.Errorf("Type = %q", msg.Type)
	}
	if msg.ID != 42 {
		t.Errorf("ID = %d", msg.ID)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := testHub()
	c := NewClient(hub, nil)

	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Errorf("count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("count = %d, want 0", hub.ClientCount())
	}

	// Double unregister is a no-op.
	hub.Unregister(c)
}

func TestBroadcastDelivery(t *testing.T) {
	hub := testHub()
	c := NewClient(hub, nil)
	hub.Register(c)
	defer hub.Unregister(c)

	hub.Broadcast(NewMessage("notification", "created", 7, nil))

	select {
	case data := <-c.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal broadcast: %v", err)
		}
		if msg.Entity != "notification" || msg.ID != 7 {
			t.Errorf("msg = %+v", msg)
		}
	default:
		t.Fatal("expected message in send buffer")
	}
}

func TestBroadcastDropsWhenClientSlow(t *testing.T) {
	hub := testHub()
	c := NewClient(hub, nil)
	hub.Register(c)
	defer hub.Unregister(c)

	// Fill the buffer and then some; Broadcast must never block.
	for i := 0; i < sendBufferSize+10; i++ {
		hub.Broadcast(NewMessage("vital", "created", int64(i), nil))
	}

	if got := len(c.send); got != sendBufferSize {
		t.Errorf("buffered = %d, want full buffer %d", got, sendBufferSize)
	}
}
