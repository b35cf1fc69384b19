package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
)

func newTestHub() *Hub {
	return NewHub(slog.Default())
}

func TestNewEventType(t *testing.T) {
	ev := NewEvent(EntityPoint, "created", 42)
	if ev.Type != "point_created" {
		t.Errorf("type = %q, want point_created", ev.Type)
	}
	if ev.ID != 42 {
		t.Errorf("id = %d, want 42", ev.ID)
	}
}

func TestBroadcastReachesClients(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)

	hub.Broadcast(NewEvent(EntityMember, "updated", 7))

	select {
	case data := <-c.send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Entity != EntityMember || ev.Action != "updated" || ev.ID != 7 {
			t.Errorf("got %+v", ev)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte)} // unbuffered, nobody reading
	hub.Register(c)

	// Must not block.
	hub.Broadcast(NewEvent(EntityUser, "created", 1))
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := newTestHub()
	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Fatalf("count = %d, want 0", hub.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}

	// Double unregister is safe.
	hub.Unregister(c)
}
