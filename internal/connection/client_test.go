package connection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockWSServer creates a test websocket server and captures the dial query.
func mockWSServer(t *testing.T, handler func(*websocket.Conn)) (*httptest.Server, func() url.Values) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	var mu sync.Mutex
	var query url.Values

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		query = r.URL.Query()
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))

	return server, func() url.Values {
		mu.Lock()
		defer mu.Unlock()
		return query
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testPayload() ConnectPayload {
	return ConnectPayload{
		UserID: "7",
		TeamID: "10,11",
		APIKey: "secret",
	}
}

func TestClientConnectDualChannel(t *testing.T) {
	var mu sync.Mutex
	var firstFrame []byte

	server, query := mockWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		mu.Lock()
		firstFrame = msg
		mu.Unlock()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.URL = wsURL(server)

	client := NewClient(cfg, testPayload(), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("expected IsConnected to return true")
	}

	// Channel one: the query string.
	q := query()
	if got := q.Get("userId"); got != "7" {
		t.Errorf("query userId = %q, want %q", got, "7")
	}
	if got := q.Get("teamId"); got != "10,11" {
		t.Errorf("query teamId = %q, want %q", got, "10,11")
	}
	if got := q.Get("apiKey"); got != "secret" {
		t.Errorf("query apiKey = %q, want %q", got, "secret")
	}
	if q.Has("unitId") || q.Has("brandId") {
		t.Error("empty scopes must be omitted from the query string")
	}

	// Channel two: the auth frame sent first after the socket opens.
	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		frame := firstFrame
		mu.Unlock()
		if frame != nil {
			var auth struct {
				Type   string `json:"type"`
				UserID string `json:"userId"`
				APIKey string `json:"apiKey"`
			}
			if err := json.Unmarshal(frame, &auth); err != nil {
				t.Fatalf("unmarshal auth frame: %v", err)
			}
			if auth.Type != "auth" {
				t.Errorf("first frame type = %q, want auth", auth.Type)
			}
			if auth.UserID != "7" || auth.APIKey != "secret" {
				t.Errorf("auth frame = %+v, want userId 7 apiKey secret", auth)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for auth frame")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClientMessages(t *testing.T) {
	frames := []string{
		`{"type":"connected"}`,
		`{"type":"identified"}`,
		`{"type":"event","eventType":"new_lead","payload":{}}`,
	}

	server, _ := mockWSServer(t, func(conn *websocket.Conn) {
		// Drain the auth frame first.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		time.Sleep(time.Second)
	})
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.URL = wsURL(server)

	client := NewClient(cfg, testPayload(), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	var received []string
	timeout := time.After(2 * time.Second)

	for i := 0; i < len(frames); i++ {
		select {
		case msg := <-client.Messages():
			received = append(received, string(msg.Data))
			if msg.ReceivedAt.IsZero() {
				t.Error("ReceivedAt should not be zero")
			}
		case <-timeout:
			t.Fatalf("timeout waiting for frames, received %d of %d", len(received), len(frames))
		}
	}

	for i, want := range frames {
		if received[i] != want {
			t.Errorf("frame %d: got %q, want %q", i, received[i], want)
		}
	}
}

func TestClientSendNotConnected(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.URL = "ws://localhost:1"

	client := NewClient(cfg, testPayload(), nil)

	if err := client.Send([]byte("test")); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestClientDoubleClose(t *testing.T) {
	server, _ := mockWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.URL = wsURL(server)

	client := NewClient(cfg, testPayload(), nil)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if client.IsConnected() {
		t.Error("expected IsConnected to return false after Close")
	}

	if err := client.Connect(context.Background()); err != ErrAlreadyClosed {
		t.Errorf("Connect after Close = %v, want ErrAlreadyClosed", err)
	}
}

func TestConnectPayloadQuery(t *testing.T) {
	p := ConnectPayload{UserID: "7", UnitID: "1", APIKey: "k"}
	q := p.Query()

	if got := q.Get("userId"); got != "7" {
		t.Errorf("userId = %q, want 7", got)
	}
	if got := q.Get("unitId"); got != "1" {
		t.Errorf("unitId = %q, want 1", got)
	}
	if q.Has("teamId") || q.Has("brandId") {
		t.Error("empty scope fields must not appear in the query")
	}
}
