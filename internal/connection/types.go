package connection

import (
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/luminacrm/pulse/internal/router"
)

// Errors
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyClosed    = errors.New("already closed")
	ErrStaleConnection  = errors.New("connection stale (no ping)")
	ErrRetriesExhausted = errors.New("reconnect attempts exhausted")
)

// State is the lifecycle state of the managed session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateIdentified
	StateReconnecting
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateIdentified:
		return "identified"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// TimestampedMessage wraps raw frame data with its local receive timestamp.
type TimestampedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// ConnectPayload carries the identity scope and api key used to establish a
// connection. It is transmitted over both channels the service inspects: the
// dial query string and an auth frame sent first after the socket opens. The
// api key never goes into HTTP headers.
type ConnectPayload struct {
	UserID  string `json:"userId"`
	UnitID  string `json:"unitId,omitempty"`
	TeamID  string `json:"teamId,omitempty"`
	BrandID string `json:"brandId,omitempty"`
	APIKey  string `json:"apiKey"`
}

// Query renders the payload as URL query values.
func (p ConnectPayload) Query() url.Values {
	q := url.Values{}
	q.Set("userId", p.UserID)
	if p.UnitID != "" {
		q.Set("unitId", p.UnitID)
	}
	if p.TeamID != "" {
		q.Set("teamId", p.TeamID)
	}
	if p.BrandID != "" {
		q.Set("brandId", p.BrandID)
	}
	q.Set("apiKey", p.APIKey)
	return q
}

// authFrame is the first frame sent after the socket opens.
type authFrame struct {
	Type string `json:"type"`
	ConnectPayload
}

// identifyFrame binds the socket to the identity scope on the server side.
// Same shape as the connect payload minus the api key.
type identifyFrame struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	UnitID  string `json:"unitId,omitempty"`
	TeamID  string `json:"teamId,omitempty"`
	BrandID string `json:"brandId,omitempty"`
}

// serverFrame carries just enough of an inbound frame to route it.
type serverFrame struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

// Hooks are the caller-provided callback slots. All hooks are invoked from
// the single session goroutine, so implementations need no locking against
// each other but must not block.
type Hooks struct {
	// OnEvent receives each parsed domain event envelope.
	OnEvent func(env router.Envelope)

	// OnConnect fires after every successful transport connect.
	OnConnect func()

	// OnIdentified fires when the server acknowledges the identify handshake.
	OnIdentified func()

	// OnConnectError fires once per failed connect attempt.
	OnConnectError func(err error)

	// OnError fires on terminal conditions (retries exhausted, server error
	// frames).
	OnError func(err error)
}

// ClientConfig configures a single websocket connection.
type ClientConfig struct {
	URL              string        // Endpoint URL (e.g., wss://push.lumina.example/socket)
	HandshakeTimeout time.Duration // Dial handshake deadline
	PingTimeout      time.Duration // Max time without ping/pong before stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Inbound message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       256,
	}
}

// ManagerConfig configures the session manager.
type ManagerConfig struct {
	URL               string        // Endpoint URL
	APIKey            string        // Static shared secret
	ReconnectDelay    time.Duration // Fixed delay between connect attempts
	ReconnectAttempts int           // Total attempts per connect cycle
	HandshakeTimeout  time.Duration
	PingTimeout       time.Duration
	WriteTimeout      time.Duration
	BufferSize        int
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ReconnectDelay:    1 * time.Second,
		ReconnectAttempts: 5,
		HandshakeTimeout:  10 * time.Second,
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		BufferSize:        256,
	}
}

// ManagerStats contains session counters.
type ManagerStats struct {
	State       State
	Connects    int64
	Reconnects  int64
	Identifies  int64
	Events      int64
	ConnectErrs int64
	Drops       int64
}
