package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"event-match/internal/config"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/encoding/json"
)

var (
	ErrAckTimeout        = errors.New("no acknowledgement from server")
	ErrNotConnected      = errors.New("socket is not connected")
	ErrConnectionLost    = errors.New("connection lost before acknowledgement")
	ErrSessionIncomplete = errors.New("session is missing event, participant or match")
)

// AckError is returned when the server acknowledged a request with an error.
type AckError struct {
	Event   string
	Message string
}

func (e *AckError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Event, e.Message)
}

// Transport is one open socket.
type Transport interface {
	Send(data []byte) error
	Receive() ([]byte, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, target string) (Transport, error)
}

// WebsocketDialer dials the server's /ws endpoint with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

func (d WebsocketDialer) Dial(ctx context.Context, target string) (Transport, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (t *wsTransport) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Receive() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

// SocketURL turns the server's HTTP base URL into its websocket endpoint.
func SocketURL(serverURL, token string) (string, error) {
	parsed, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch parsed.Scheme {
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}
	parsed.Path += "/ws"
	if token != "" {
		q := parsed.Query()
		q.Set("token", token)
		parsed.RawQuery = q.Encode()
	}
	return parsed.String(), nil
}

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

type ConnectOptions struct {
	EventCode          string
	ParticipantID      string
	DisplayName        string
	MatchID            string
	MatchParticipantID string
}

func (o ConnectOptions) patch() SessionPatch {
	var patch SessionPatch
	set := func(dst **string, value string) {
		if value != "" {
			*dst = String(value)
		}
	}
	set(&patch.EventCode, o.EventCode)
	set(&patch.ParticipantID, o.ParticipantID)
	set(&patch.DisplayName, o.DisplayName)
	set(&patch.MatchID, o.MatchID)
	set(&patch.MatchParticipantID, o.MatchParticipantID)
	return patch
}

type inboundFrame struct {
	Event string          `json:"event"`
	ID    int64           `json:"id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	ID    int64  `json:"id,omitempty"`
}

type ackResult struct {
	data json.RawMessage
	err  error
}

// conn wraps a transport so it is closed exactly once. Requests waiting for
// an ack on it fail when it closes.
type conn struct {
	transport Transport
	closeOnce sync.Once

	pendingMu sync.Mutex
	pending   map[int64]chan ackResult
	closed    bool
}

func newConn(transport Transport) *conn {
	return &conn{transport: transport, pending: make(map[int64]chan ackResult)}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		if err := c.transport.Close(); err != nil {
			log.Debug().Err(err).Msg("socket close failed")
		}
		c.pendingMu.Lock()
		defer c.pendingMu.Unlock()
		c.closed = true
		for id, ch := range c.pending {
			ch <- ackResult{err: ErrConnectionLost}
			delete(c.pending, id)
		}
	})
}

func (c *conn) await(id int64) (chan ackResult, bool) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if c.closed {
		return nil, false
	}
	ch := make(chan ackResult, 1)
	c.pending[id] = ch
	return ch, true
}

func (c *conn) forget(id int64) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	delete(c.pending, id)
}

func (c *conn) resolve(frame inboundFrame) {
	c.pendingMu.Lock()
	ch, ok := c.pending[frame.ID]
	delete(c.pending, frame.ID)
	c.pendingMu.Unlock()
	if !ok {
		return
	}
	result := ackResult{data: frame.Data}
	if frame.Error != "" {
		result.err = &AckError{Message: frame.Error}
	}
	ch <- result
}

// run is one Connect call. It owns the connection and every redial that
// follows a drop until it is stopped.
type run struct {
	cancel context.CancelFunc

	mu      sync.Mutex
	current *conn
	stopped bool
}

func (r *run) setConn(c *conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.current = c
	return true
}

func (r *run) conn() *conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *run) stop() {
	r.mu.Lock()
	r.stopped = true
	current := r.current
	r.mu.Unlock()
	r.cancel()
	if current != nil {
		current.close()
	}
}

type ManagerOption func(*Manager)

func WithDialer(dialer Dialer) ManagerOption {
	return func(m *Manager) { m.dialer = dialer }
}

func WithNotifier(notifier Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = notifier }
}

func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *Manager) { m.clock = clock }
}

// WithToken authenticates the socket for host-only actions.
func WithToken(token string) ManagerOption {
	return func(m *Manager) { m.token = token }
}

// Manager keeps at most one live socket per session, restores room
// membership after every connect and correlates requests with acks.
type Manager struct {
	cfg      config.ClientConfig
	session  *SessionStore
	registry *Registry
	dialer   Dialer
	notifier Notifier
	clock    clockwork.Clock
	token    string

	mu        sync.Mutex
	active    *run
	state     State
	observers []func(State)

	nextID atomic.Int64
}

func NewManager(cfg config.ClientConfig, session *SessionStore, opts ...ManagerOption) *Manager {
	if session == nil {
		session = NewSessionStore()
	}
	m := &Manager{
		cfg:      cfg,
		session:  session,
		registry: NewRegistry(),
		dialer:   WebsocketDialer{},
		notifier: LogNotifier{},
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.installDefaults()
	return m
}

func (m *Manager) installDefaults() {
	for _, event := range []string{
		EventParticipantUpdate,
		EventCountdownUpdate,
		EventChatHistory,
		EventNewMessage,
		EventChatParticipantJoined,
		EventChatParticipantLeft,
		EventLeaderboardUpdate,
	} {
		m.registry.On(event, func(data json.RawMessage) {
			entry := log.Debug().Str("event", event)
			if len(data) > 0 {
				entry = entry.RawJSON("data", data)
			}
			entry.Msg("socket notification")
		})
	}
	m.registry.On(EventCountdownComplete, func(json.RawMessage) {
		log.Info().Str("event_code", m.session.Read().EventCode).Msg("countdown complete")
		m.notifier.Notify(LevelInfo, "Countdown complete! Time to vote.")
	})
	m.registry.On(EventMatchReveal, func(json.RawMessage) {
		log.Info().Str("event_code", m.session.Read().EventCode).Msg("matches revealed")
		m.notifier.Notify(LevelSuccess, "Matches revealed! Check your match.")
	})
	m.registry.On(EventError, func(data json.RawMessage) {
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &payload)
		log.Warn().Str("message", payload.Message).Msg("server reported an error")
		if payload.Message != "" {
			m.notifier.Notify(LevelError, payload.Message)
		}
	})
}

func (m *Manager) Session() *SessionStore {
	return m.session
}

func (m *Manager) On(event string, handler Handler) func() {
	return m.registry.On(event, handler)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers fn for every state transition.
func (m *Manager) OnStateChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// setState applies only while r is the active run. A nil r always applies.
func (m *Manager) setState(r *run, state State) {
	m.mu.Lock()
	if r != nil && m.active != r {
		m.mu.Unlock()
		return
	}
	if m.state == state {
		m.mu.Unlock()
		return
	}
	m.state = state
	observers := append([]func(State){}, m.observers...)
	m.mu.Unlock()
	log.Debug().Str("state", state.String()).Msg("socket state")
	for _, fn := range observers {
		fn(state)
	}
}

// Connect replaces any existing connection with a new one for opts, which are
// merged into the session first.
func (m *Manager) Connect(ctx context.Context, opts ConnectOptions) error {
	m.session.Update(opts.patch())

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{cancel: cancel}
	m.mu.Lock()
	prev := m.active
	m.active = r
	m.mu.Unlock()
	if prev != nil {
		prev.stop()
	}
	context.AfterFunc(runCtx, func() { m.abandon(r) })

	m.setState(r, StateConnecting)
	target, err := SocketURL(m.cfg.ServerURL, m.token)
	if err != nil {
		m.abandon(r)
		return err
	}
	transport, err := m.dialer.Dial(runCtx, target)
	if err != nil {
		m.abandon(r)
		log.Error().Err(err).Str("target", target).Msg("socket connect failed")
		m.notifier.Notify(LevelError, "Could not connect to the event server.")
		return fmt.Errorf("connect: %w", err)
	}
	c := newConn(transport)
	if !r.setConn(c) {
		c.close()
		return ErrNotConnected
	}
	go m.loop(runCtx, r, target, c)
	return nil
}

// abandon stops r and, if it is still the active run, marks the manager
// disconnected.
func (m *Manager) abandon(r *run) {
	r.stop()
	m.setState(r, StateDisconnected)
	m.mu.Lock()
	if m.active == r {
		m.active = nil
	}
	m.mu.Unlock()
}

// Disconnect closes the socket and stops reconnecting.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	r := m.active
	m.active = nil
	m.mu.Unlock()
	if r != nil {
		r.stop()
	}
	m.setState(nil, StateDisconnected)
}

func (m *Manager) loop(ctx context.Context, r *run, target string, c *conn) {
	for {
		m.setState(r, StateConnected)
		m.rejoin(c)
		err := m.read(c)
		c.close()
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("socket dropped")
		m.notifier.Notify(LevelError, "Connection lost. Reconnecting...")

		next, ok := m.reconnect(ctx, r, target)
		if !ok {
			return
		}
		c = next
	}
}

func (m *Manager) reconnect(ctx context.Context, r *run, target string) (*conn, bool) {
	m.setState(r, StateReconnecting)
	delay := m.cfg.ReconnectInitial
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	for attempt := 1; ; attempt++ {
		timer := m.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, false
		case <-timer.Chan():
		}

		transport, err := m.dialer.Dial(ctx, target)
		if err == nil {
			c := newConn(transport)
			if !r.setConn(c) {
				c.close()
				return nil, false
			}
			log.Info().Int("attempt", attempt).Msg("socket reconnected")
			return c, true
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("socket redial failed")
		if m.cfg.MaxReconnectAttempts > 0 && attempt >= m.cfg.MaxReconnectAttempts {
			m.abandon(r)
			m.notifier.Notify(LevelError, "Could not reconnect to the event server.")
			return nil, false
		}
		delay *= 2
		if m.cfg.ReconnectMax > 0 && delay > m.cfg.ReconnectMax {
			delay = m.cfg.ReconnectMax
		}
	}
}

// rejoin restores room membership on a fresh connection.
func (m *Manager) rejoin(c *conn) {
	session := m.session.Read()
	if session.EventCode == "" {
		return
	}
	m.emit(c, "join-event", session.EventCode)
	if session.MatchID == "" || session.ParticipantID == "" {
		return
	}
	name := session.DisplayName
	if name == "" {
		name = session.ParticipantID
	}
	m.emit(c, "join-chat", map[string]string{
		"eventCode":     session.EventCode,
		"matchId":       session.MatchID,
		"participantId": session.ParticipantID,
		"displayName":   name,
	})
}

func (m *Manager) emit(c *conn, event string, data any) {
	payload, err := json.Marshal(outboundFrame{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("socket encode failed")
		return
	}
	if err := c.transport.Send(payload); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("socket send failed")
	}
}

// read resolves acks inline and hands notifications to a dispatch queue, so
// a handler may issue requests of its own while the reader keeps going.
func (m *Manager) read(c *conn) error {
	queue := newDispatchQueue()
	go queue.run(m.registry)
	defer queue.close()
	for {
		data, err := c.transport.Receive()
		if err != nil {
			return err
		}
		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Msg("socket frame decode failed")
			continue
		}
		if frame.Event == "ack" {
			c.resolve(frame)
			continue
		}
		queue.push(frame)
	}
}

// dispatchQueue delivers notifications to the registry in arrival order on
// its own goroutine. It never blocks the pusher.
type dispatchQueue struct {
	mu     sync.Mutex
	frames []inboundFrame
	closed bool
	wake   chan struct{}
}

func newDispatchQueue() *dispatchQueue {
	return &dispatchQueue{wake: make(chan struct{}, 1)}
}

func (q *dispatchQueue) push(frame inboundFrame) {
	q.mu.Lock()
	q.frames = append(q.frames, frame)
	q.mu.Unlock()
	q.signal()
}

func (q *dispatchQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *dispatchQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run drains queued frames until the queue is closed and empty.
func (q *dispatchQueue) run(registry *Registry) {
	for range q.wake {
		q.mu.Lock()
		frames := q.frames
		q.frames = nil
		closed := q.closed
		q.mu.Unlock()
		for _, frame := range frames {
			registry.Dispatch(frame.Event, frame.Data)
		}
		if closed {
			return
		}
	}
}

func (m *Manager) currentConn() *conn {
	m.mu.Lock()
	r := m.active
	m.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.conn()
}

// request sends event and waits for its ack.
func (m *Manager) request(ctx context.Context, event string, data any) (json.RawMessage, error) {
	c := m.currentConn()
	if c == nil || m.State() != StateConnected {
		return nil, ErrNotConnected
	}
	id := m.nextID.Add(1)
	payload, err := json.Marshal(outboundFrame{Event: event, Data: data, ID: id})
	if err != nil {
		return nil, err
	}
	ch, ok := c.await(id)
	if !ok {
		return nil, ErrNotConnected
	}
	defer c.forget(id)

	if err := c.transport.Send(payload); err != nil {
		return nil, fmt.Errorf("send %s: %w", event, err)
	}
	timer := m.clock.NewTimer(m.cfg.AckTimeout)
	defer timer.Stop()
	select {
	case result := <-ch:
		var ackErr *AckError
		if errors.As(result.err, &ackErr) {
			ackErr.Event = event
		}
		return result.data, result.err
	case <-timer.Chan():
		return nil, fmt.Errorf("%s: %w", event, ErrAckTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendChatMessage posts content to the session's match chat.
func (m *Manager) SendChatMessage(ctx context.Context, content string) (ChatMessage, error) {
	session := m.session.Read()
	if session.EventCode == "" || session.ParticipantID == "" || session.MatchID == "" {
		return ChatMessage{}, ErrSessionIncomplete
	}
	data, err := m.request(ctx, "send-message", map[string]string{
		"eventCode": session.EventCode,
		"matchId":   session.MatchID,
		"senderId":  session.ParticipantID,
		"content":   content,
	})
	if err != nil {
		return ChatMessage{}, err
	}
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ChatMessage{}, fmt.Errorf("decode chat message: %w", err)
	}
	return msg, nil
}

func (m *Manager) TriggerMatchReveal(ctx context.Context, eventCode string, force bool) (int, error) {
	data, err := m.request(ctx, "trigger-match-reveal", map[string]any{"eventCode": eventCode, "force": force})
	if err != nil {
		return 0, err
	}
	var out struct {
		MatchCount int `json:"matchCount"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("decode reveal: %w", err)
	}
	return out.MatchCount, nil
}

// StartCountdown starts the event countdown. A zero duration keeps the
// event's configured one.
func (m *Manager) StartCountdown(ctx context.Context, eventCode string, duration int) (Countdown, error) {
	data, err := m.request(ctx, "start-countdown", map[string]any{"eventCode": eventCode, "duration": duration})
	if err != nil {
		return Countdown{}, err
	}
	var out Countdown
	if err := json.Unmarshal(data, &out); err != nil {
		return Countdown{}, fmt.Errorf("decode countdown: %w", err)
	}
	return out, nil
}

func (m *Manager) UpdateLeaderboard(ctx context.Context, eventCode string) ([]LeaderboardEntry, error) {
	data, err := m.request(ctx, "update-leaderboard", eventCode)
	if err != nil {
		return nil, err
	}
	var out struct {
		Leaderboard []LeaderboardEntry `json:"leaderboard"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return out.Leaderboard, nil
}
