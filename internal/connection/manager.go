package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/luminacrm/pulse/internal/identity"
	"github.com/luminacrm/pulse/internal/router"
)

// Manager owns at most one live session, scoped to the currently bound
// identity. Bind reconciles the session to a new identity; Unbind tears it
// down synchronously. All hooks fire from the single session goroutine.
type Manager struct {
	cfg    ManagerConfig
	hooks  Hooks
	logger *slog.Logger

	// newClient is swappable for tests.
	newClient func(cfg ClientConfig, payload ConnectPayload, logger *slog.Logger) Client

	mu    sync.Mutex
	state State
	bound *identity.Identity
	sess  *session

	statsMu     sync.Mutex
	connects    int64
	reconnects  int64
	identifies  int64
	events      int64
	connectErrs int64
	drops       int64
}

// session is one Bind-to-Unbind lifetime. The goroutine behind done owns all
// transport interaction for the session.
type session struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// exited reports whether the session goroutine has already returned (for
// example after exhausting reconnect attempts).
func (s *session) exited() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// NewManager creates a session manager. Hooks may be partially populated;
// nil slots are skipped.
func NewManager(cfg ManagerConfig, hooks Hooks, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectAttempts < 1 {
		cfg.ReconnectAttempts = 1
	}

	return &Manager{
		cfg:       cfg,
		hooks:     hooks,
		logger:    logger,
		newClient: NewClient,
		state:     StateDisconnected,
	}
}

// Bind reconciles the session to the given identity. Binding a value equal
// to the current one is a no-op; any change tears the old session down fully
// before the new one opens, so two connections never coexist. An identity
// without a user id behaves as Unbind.
func (m *Manager) Bind(id identity.Identity) error {
	if id.UserID == "" {
		m.Unbind()
		return nil
	}

	m.mu.Lock()
	if m.bound != nil && m.bound.Equal(id) && m.sess != nil && !m.sess.exited() {
		m.mu.Unlock()
		return nil
	}
	old := m.sess
	m.sess = nil
	m.bound = nil
	m.mu.Unlock()

	m.stop(old)

	payload := ConnectPayload{
		UserID:  id.UserID,
		UnitID:  id.UnitIDs,
		TeamID:  id.TeamIDs,
		BrandID: id.BrandIDs,
		APIKey:  m.cfg.APIKey,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.bound = &id
	m.sess = s
	m.mu.Unlock()

	go m.runSession(ctx, payload, s)

	m.logger.Info("identity bound", "session", s.id, "user_id", id.UserID)
	return nil
}

// Unbind tears down any live session synchronously: the session context is
// cancelled, the transport closed, and the session goroutine joined before
// return. Idempotent; safe when already disconnected.
func (m *Manager) Unbind() {
	m.mu.Lock()
	s := m.sess
	m.sess = nil
	m.bound = nil
	m.mu.Unlock()

	m.stop(s)
	m.setState(StateDisconnected)

	if s != nil {
		m.logger.Info("identity unbound", "session", s.id)
	}
}

// stop cancels a session and waits for its goroutine to exit.
func (m *Manager) stop(s *session) {
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns a snapshot of session counters.
func (m *Manager) Stats() ManagerStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return ManagerStats{
		State:       m.State(),
		Connects:    m.connects,
		Reconnects:  m.reconnects,
		Identifies:  m.identifies,
		Events:      m.events,
		ConnectErrs: m.connectErrs,
		Drops:       m.drops,
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// runSession is the session goroutine: connect, identify, read until drop,
// repeat. Identify fires after every successful connect, never only the
// first, because the server forgets identity when the socket drops.
func (m *Manager) runSession(ctx context.Context, payload ConnectPayload, s *session) {
	defer close(s.done)

	logger := m.logger.With("session", s.id, "user_id", payload.UserID)
	reconnect := false

	for {
		if reconnect {
			m.setState(StateReconnecting)
			m.count(&m.reconnects)
		} else {
			m.setState(StateConnecting)
		}

		cl, err := m.connect(ctx, payload, logger)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setState(StateDisconnected)
			logger.Error("giving up", "attempts", m.cfg.ReconnectAttempts, "error", err)
			if m.hooks.OnError != nil {
				m.hooks.OnError(fmt.Errorf("%w (%d attempts): %v", ErrRetriesExhausted, m.cfg.ReconnectAttempts, err))
			}
			return
		}

		m.setState(StateConnected)
		m.count(&m.connects)
		if m.hooks.OnConnect != nil {
			m.hooks.OnConnect()
		}

		if err := m.identify(cl, payload); err != nil {
			logger.Warn("identify send failed", "error", err)
			cl.Close()
			reconnect = true
			continue
		}
		m.count(&m.identifies)

		m.readSession(ctx, cl, logger)
		cl.Close()

		if ctx.Err() != nil {
			return
		}

		m.count(&m.drops)
		logger.Info("connection dropped, reconnecting")
		reconnect = true
	}
}

// connect dials with bounded constant-delay retries. Each failed attempt
// fires OnConnectError; the returned error is the last attempt's.
func (m *Manager) connect(ctx context.Context, payload ConnectPayload, logger *slog.Logger) (Client, error) {
	clientCfg := ClientConfig{
		URL:              m.cfg.URL,
		HandshakeTimeout: m.cfg.HandshakeTimeout,
		PingTimeout:      m.cfg.PingTimeout,
		WriteTimeout:     m.cfg.WriteTimeout,
		BufferSize:       m.cfg.BufferSize,
	}

	var cl Client
	op := func() error {
		c := m.newClient(clientCfg, payload, logger)
		if err := c.Connect(ctx); err != nil {
			m.count(&m.connectErrs)
			logger.Warn("connect attempt failed", "error", err)
			if m.hooks.OnConnectError != nil {
				m.hooks.OnConnectError(err)
			}
			return err
		}
		cl = c
		return nil
	}

	// ReconnectAttempts counts total tries; MaxRetries counts retries after
	// the first.
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(m.cfg.ReconnectDelay),
			uint64(m.cfg.ReconnectAttempts-1),
		),
		ctx,
	)

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return cl, nil
}

// identify sends the identify handshake for the current scope.
func (m *Manager) identify(cl Client, payload ConnectPayload) error {
	data, err := json.Marshal(identifyFrame{
		Type:    "identify",
		UserID:  payload.UserID,
		UnitID:  payload.UnitID,
		TeamID:  payload.TeamID,
		BrandID: payload.BrandID,
	})
	if err != nil {
		return err
	}
	return cl.Send(data)
}

// readSession pumps frames until the context is cancelled or the transport
// drops.
func (m *Manager) readSession(ctx context.Context, cl Client, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return

		case err, ok := <-cl.Errors():
			if ok {
				logger.Warn("transport error", "error", err)
			}
			return

		case msg, ok := <-cl.Messages():
			if !ok {
				return
			}
			if drop := m.handleFrame(msg, logger); drop {
				return
			}
		}
	}
}

// handleFrame routes one inbound frame. Returns true when the session should
// drop and reconnect.
func (m *Manager) handleFrame(msg TimestampedMessage, logger *slog.Logger) bool {
	var frame serverFrame
	if err := json.Unmarshal(msg.Data, &frame); err != nil {
		logger.Warn("unparseable frame", "error", err)
		return false
	}

	switch frame.Type {
	case "connected":
		logger.Debug("connection acknowledged")

	case "identified":
		m.setState(StateIdentified)
		logger.Debug("identity acknowledged")
		if m.hooks.OnIdentified != nil {
			m.hooks.OnIdentified()
		}

	case "event":
		data := msg.Data
		if len(frame.Message) > 0 {
			data = frame.Message
		}
		env, err := router.ParseEnvelope(data, msg.ReceivedAt)
		if err != nil {
			logger.Warn("unparseable event envelope", "error", err)
			return false
		}
		m.count(&m.events)
		if m.hooks.OnEvent != nil {
			m.hooks.OnEvent(env)
		}

	case "error":
		logger.Warn("server error frame", "message", string(frame.Message))
		if m.hooks.OnError != nil {
			m.hooks.OnError(fmt.Errorf("server error: %s", frame.Message))
		}

	case "connect_error":
		logger.Warn("server connect_error frame", "message", string(frame.Message))
		if m.hooks.OnConnectError != nil {
			m.hooks.OnConnectError(fmt.Errorf("connect error: %s", frame.Message))
		}

	case "disconnect":
		logger.Info("server requested disconnect")
		return true

	default:
		logger.Debug("skipping frame type", "type", frame.Type)
	}

	return false
}

func (m *Manager) count(field *int64) {
	m.statsMu.Lock()
	*field++
	m.statsMu.Unlock()
}
