package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, userID string, streams []string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(userID, streams, w, r)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var message Message
	require.NoError(t, conn.ReadJSON(&message))
	return message
}

func TestHubBroadcastIsScopedToUser(t *testing.T) {
	hub := NewHub()

	alice := dialHub(t, hub, "alice", []string{StreamNotifications})
	bob := dialHub(t, hub, "bob", []string{StreamNotifications})

	time.Sleep(50 * time.Millisecond)

	hub.BroadcastToUser(StreamNotifications, "alice", Message{
		Event: EventNotificationCreated,
		Data:  map[string]any{"id": "n1"},
	})

	message := readMessage(t, alice)
	require.Equal(t, StreamNotifications, message.Stream)
	require.Equal(t, EventNotificationCreated, message.Event)

	// Bob must not receive Alice's event.
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var leaked Message
	require.Error(t, bob.ReadJSON(&leaked))
}

func TestHubBroadcastIsScopedToStream(t *testing.T) {
	hub := NewHub()

	conn := dialHub(t, hub, "alice", []string{StreamNotifications})
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastToUser(StreamTenders, "alice", Message{Event: EventTenderUpdated})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var leaked Message
	require.Error(t, conn.ReadJSON(&leaked))
}

func TestHubControlSubscribe(t *testing.T) {
	hub := NewHub()

	conn := dialHub(t, hub, "alice", []string{StreamNotifications})
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"action":  "subscribe",
		"streams": []string{StreamTenders},
	}))
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastToUser(StreamTenders, "alice", Message{Event: EventTenderUpdated})

	message := readMessage(t, conn)
	require.Equal(t, StreamTenders, message.Stream)
	require.Equal(t, EventTenderUpdated, message.Event)
}

func TestHubBroadcastDropsStalledConnection(t *testing.T) {
	hub := NewHub()

	serverConns := make(chan *websocket.Conn, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := hub.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	dialed, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { dialed.Close() })

	// Register the connection without a write loop so nothing drains its
	// buffer, then fill the buffer completely.
	stalled := newConnection(hub, <-serverConns, "alice")
	hub.subscribe(stalled, []string{StreamNotifications})
	for i := 0; i < defaultBufferSize; i++ {
		stalled.send <- Message{Event: EventNotificationCreated}
	}

	done := make(chan struct{})
	go func() {
		hub.BroadcastToUser(StreamNotifications, "alice", Message{Event: EventNotificationCreated})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a stalled connection")
	}

	hub.mu.RLock()
	remaining := len(hub.subscriptions[StreamNotifications]["alice"])
	hub.mu.RUnlock()
	require.Zero(t, remaining)
}

func TestHubPing(t *testing.T) {
	hub := NewHub()

	conn := dialHub(t, hub, "alice", []string{StreamNotifications})
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"action": "ping"}))

	message := readMessage(t, conn)
	require.Equal(t, "pong", message.Event)
}
