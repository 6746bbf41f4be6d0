package notifyclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Bridge feeds realtime server events into a Client. It is a best-effort fast
// path on top of polling: when the connection drops the bridge stops and the
// poll loop keeps the state fresh, so no reconnect logic is needed here.
type Bridge struct {
	conn   *websocket.Conn
	client *Client

	closeOnce sync.Once
	done      chan struct{}
}

type wireMessage struct {
	Stream string          `json:"stream"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// DialBridge connects to the notification stream endpoint and starts applying
// events to the client.
func DialBridge(ctx context.Context, baseURL, token string, client *Client) (*Bridge, error) {
	if client == nil {
		return nil, errors.New("notifyclient: client is required")
	}

	endpoint, err := streamURL(baseURL, token)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	bridge := &Bridge{
		conn:   conn,
		client: client,
		done:   make(chan struct{}),
	}
	go bridge.readLoop()
	return bridge, nil
}

// Done is closed when the bridge stops reading, whether closed explicitly or
// because the connection dropped.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}

// Close tears down the connection.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		_ = b.conn.Close()
	})
}

func (b *Bridge) readLoop() {
	defer close(b.done)
	defer b.Close()

	for {
		var message wireMessage
		if err := b.conn.ReadJSON(&message); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.client.reportError(err)
			}
			return
		}

		b.client.ApplyEvent(Event{Event: message.Event, Data: message.Data})
	}
}

func streamURL(baseURL, token string) (string, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return "", errors.New("notifyclient: base URL is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/api/notifications/stream"

	query := parsed.Query()
	if token != "" {
		query.Set("token", token)
	}
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
