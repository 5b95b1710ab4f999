package ctrader

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/metrics"
)

const writeWait = 10 * time.Second

// sender is the only way components other than the read loop reach the
// connection.
type sender interface {
	Send(payloadType int, payload any) *Handle
}

// Transport owns the single venue connection. Run drives it; Send may be
// called from any goroutine.
type Transport struct {
	url       string
	dialer    *websocket.Dialer
	heartbeat time.Duration

	connMu sync.RWMutex
	conn   *websocket.Conn

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]*Handle

	onConnected    func()
	onDisconnected func(error)
	onMessage      func(*Envelope)
}

var _ sender = (*Transport)(nil)

func NewTransport(url string, heartbeat time.Duration) *Transport {
	return &Transport{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 30 * time.Second,
		},
		heartbeat: heartbeat,
		pending:   make(map[string]*Handle),
	}
}

// SetCallbacks registers the lifecycle callbacks. Call before Run.
func (t *Transport) SetCallbacks(onConnected func(), onDisconnected func(error), onMessage func(*Envelope)) {
	t.onConnected = onConnected
	t.onDisconnected = onDisconnected
	t.onMessage = onMessage
}

// Run dials the venue and processes frames until ctx ends or the
// connection drops. It must run on its own goroutine. In-flight handles are
// left unresolved on disconnect; waiters fall back on their own timeout.
func (t *Transport) Run(ctx context.Context) error {
	conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrTransport, t.url, err)
	}
	t.setConn(conn)
	logger.Info(ctx, "Connected to venue", "url", t.url)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	if t.heartbeat > 0 {
		go t.heartbeatLoop(conn, stop)
	}

	if t.onConnected != nil {
		t.onConnected()
	}

	err = t.readLoop(ctx, conn)
	t.setConn(nil)
	_ = conn.Close()

	if ctx.Err() != nil {
		err = nil
	} else {
		err = fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if t.onDisconnected != nil {
		t.onDisconnected(err)
	}
	return err
}

func (t *Transport) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Warn(ctx, "Dropping undecodable venue frame", "error", err, "size", len(data))
			continue
		}
		t.dispatch(&env)
	}
}

func (t *Transport) dispatch(env *Envelope) {
	if env.ClientMsgID != "" {
		if h := t.take(env.ClientMsgID); h != nil {
			h.resolve(env, nil)
			return
		}
	}
	if t.onMessage != nil {
		t.onMessage(env)
	}
}

func (t *Transport) heartbeatLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(t.heartbeat)
	defer ticker.Stop()
	frame, _ := json.Marshal(Envelope{PayloadType: PayloadHeartbeatEvent, Payload: json.RawMessage("{}")})
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := t.write(conn, frame); err != nil {
				logger.Warn(context.Background(), "Heartbeat write failed", "error", err)
				return
			}
		}
	}
}

// Send stamps a fresh client message id, registers the handle and writes
// one frame. When the transport is down the handle resolves immediately
// with ErrTransport.
func (t *Transport) Send(payloadType int, payload any) *Handle {
	h := newHandle(uuid.NewString(), payloadType)

	body, err := json.Marshal(payload)
	if err != nil {
		h.resolve(nil, fmt.Errorf("%w: encode payload %d: %v", ErrTransport, payloadType, err))
		return h
	}
	frame, err := json.Marshal(Envelope{ClientMsgID: h.id, PayloadType: payloadType, Payload: body})
	if err != nil {
		h.resolve(nil, fmt.Errorf("%w: encode envelope: %v", ErrTransport, err))
		return h
	}

	conn := t.currentConn()
	if conn == nil {
		h.resolve(nil, fmt.Errorf("%w: not connected", ErrTransport))
		return h
	}

	// registered before the write so a fast reply always finds its handle
	t.register(h)
	if err := t.write(conn, frame); err != nil {
		t.drop(h.id)
		h.resolve(nil, fmt.Errorf("%w: write: %v", ErrTransport, err))
	}
	return h
}

func (t *Transport) write(conn *websocket.Conn, frame []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (t *Transport) register(h *Handle) {
	h.release = func() { t.drop(h.id) }
	t.pendingMu.Lock()
	t.pending[h.id] = h
	n := len(t.pending)
	t.pendingMu.Unlock()
	metrics.InFlight.WithLabelValues().Set(float64(n))
}

func (t *Transport) take(id string) *Handle {
	t.pendingMu.Lock()
	h, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	n := len(t.pending)
	t.pendingMu.Unlock()
	metrics.InFlight.WithLabelValues().Set(float64(n))
	return h
}

func (t *Transport) drop(id string) {
	_ = t.take(id)
}

// PendingCount is the number of registered, unresolved requests.
func (t *Transport) PendingCount() int {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	return len(t.pending)
}

// Connected reports whether the connection is up.
func (t *Transport) Connected() bool {
	return t.currentConn() != nil
}

func (t *Transport) currentConn() *websocket.Conn {
	t.connMu.RLock()
	defer t.connMu.RUnlock()
	return t.conn
}

func (t *Transport) setConn(conn *websocket.Conn) {
	t.connMu.Lock()
	t.conn = conn
	t.connMu.Unlock()
}
