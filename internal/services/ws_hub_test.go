package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newHubServer(t *testing.T, hub *WSHub) (*websocket.Conn, string) {
	t.Helper()
	ids := make(chan string, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		ids <- hub.Register(conn)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case id := <-ids:
		return client, id
	case <-time.After(2 * time.Second):
		t.Fatal("connection never registered")
	}
	return nil, ""
}

func TestHubSendDeliversEnvelope(t *testing.T) {
	hub := NewWSHub()
	client, id := newHubServer(t, hub)

	if !hub.IsOnline(id) {
		t.Fatal("registered connection not online")
	}

	hub.Send(id, EventRideStarted, map[string]string{"id": "ride-1", "status": "ongoing"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msg struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Event != EventRideStarted || msg.Data["id"] != "ride-1" || msg.Data["status"] != "ongoing" {
		t.Errorf("message = %s", data)
	}
}

func TestHubSendToUnknownIsNoop(t *testing.T) {
	hub := NewWSHub()

	hub.Send("nobody", EventRideEnded, "payload")
	hub.SendTo(nil, EventRideEnded, "payload")
	empty := ""
	hub.SendTo(&empty, EventRideEnded, "payload")

	if hub.IsOnline("nobody") {
		t.Error("unknown id reported online")
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewWSHub()
	client, id := newHubServer(t, hub)

	hub.Unregister(id)
	if hub.IsOnline(id) {
		t.Fatal("connection still online after unregister")
	}
	hub.Unregister(id)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Error("expected the server side to be closed")
	}
}

func TestWSMessageDecodesRawData(t *testing.T) {
	var msg WSMessage
	if err := json.Unmarshal([]byte(`{"event":"update-location-captain","data":{"lat":1.5,"lng":2.5}}`), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Event != "update-location-captain" {
		t.Errorf("event = %q", msg.Event)
	}
	if string(msg.Raw) != `{"lat":1.5,"lng":2.5}` {
		t.Errorf("raw = %s", msg.Raw)
	}
}
