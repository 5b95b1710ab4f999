package ctrader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/store"
	"smc-trading-bridge/internal/types"
)

type Params struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	AccessToken  string
	AccountID    int64

	Heartbeat            time.Duration
	HandshakeTimeout     time.Duration
	OrderTimeout         time.Duration
	AmendTimeout         time.Duration
	ReconcileTimeout     time.Duration
	PendingOrdersTimeout time.Duration
	BarsTimeout          time.Duration
	AmendAttempts        int
	AmendInterval        time.Duration
}

// ParamsFromConfig combines file tunables with environment credentials.
func ParamsFromConfig(cfg *store.Config, creds *store.Credentials) Params {
	return Params{
		Endpoint:             creds.Endpoint(cfg),
		ClientID:             creds.ClientID,
		ClientSecret:         creds.ClientSecret,
		AccessToken:          creds.AccessToken,
		AccountID:            creds.AccountID,
		Heartbeat:            time.Duration(cfg.Venue.HeartbeatSeconds) * time.Second,
		HandshakeTimeout:     time.Duration(cfg.Venue.HandshakeSeconds) * time.Second,
		OrderTimeout:         store.Seconds(cfg.Timeouts.OrderSeconds),
		AmendTimeout:         store.Seconds(cfg.Timeouts.AmendSeconds),
		ReconcileTimeout:     store.Seconds(cfg.Timeouts.ReconcileSeconds),
		PendingOrdersTimeout: store.Seconds(cfg.Timeouts.PendingOrdersSeconds),
		BarsTimeout:          store.Seconds(cfg.Timeouts.BarsSeconds),
		AmendAttempts:        cfg.Amend.Attempts,
		AmendInterval:        store.Seconds(cfg.Amend.IntervalSeconds),
	}
}

func (p *Params) applyDefaults() {
	if p.HandshakeTimeout <= 0 {
		p.HandshakeTimeout = 15 * time.Second
	}
	if p.OrderTimeout <= 0 {
		p.OrderTimeout = 25 * time.Second
	}
	if p.AmendTimeout <= 0 {
		p.AmendTimeout = 12 * time.Second
	}
	if p.ReconcileTimeout <= 0 {
		p.ReconcileTimeout = 5 * time.Second
	}
	if p.PendingOrdersTimeout <= 0 {
		p.PendingOrdersTimeout = 5 * time.Second
	}
	if p.BarsTimeout <= 0 {
		p.BarsTimeout = 10 * time.Second
	}
	if p.AmendAttempts <= 0 {
		p.AmendAttempts = 5
	}
	if p.AmendInterval < 0 {
		p.AmendInterval = 2 * time.Second
	}
}

// Client is the broker session facade over one venue connection.
type Client struct {
	p         Params
	transport *Transport
	send      sender
	directory *Directory
	session   *session
	snapshots *snapshotCache

	started  atomic.Bool
	cancel   context.CancelFunc
	loopDone chan struct{}
	stopOnce sync.Once
}

var _ interfaces.Broker = (*Client)(nil)

func New(p Params) *Client {
	p.applyDefaults()
	tr := NewTransport(p.Endpoint, p.Heartbeat)
	c := newClient(p, tr)
	c.transport = tr
	tr.SetCallbacks(c.session.onConnected, c.session.onDisconnected, c.onEvent)
	return c
}

func newClient(p Params, s sender) *Client {
	dir := NewDirectory()
	return &Client{
		p:         p,
		send:      s,
		directory: dir,
		session: newSession(sessionCredentials{
			clientID:     p.ClientID,
			clientSecret: p.ClientSecret,
			accessToken:  p.AccessToken,
			accountID:    p.AccountID,
		}, s, dir, p.HandshakeTimeout),
		snapshots: &snapshotCache{},
		loopDone:  make(chan struct{}),
	}
}

// Start launches the transport loop. The session is not reconnected after
// the loop exits.
func (c *Client) Start(ctx context.Context) error {
	if c.transport == nil || !c.started.CompareAndSwap(false, true) {
		return nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	go func() {
		defer close(c.loopDone)
		if err := c.transport.Run(runCtx); err != nil {
			logger.ErrorWithErr(runCtx, "Venue transport loop exited", err)
		}
	}()
	return nil
}

func (c *Client) Stop(ctx context.Context) {
	c.stopOnce.Do(func() {
		if c.cancel == nil {
			return
		}
		c.cancel()
		select {
		case <-c.loopDone:
		case <-ctx.Done():
			logger.Warn(ctx, "Venue loop did not stop before deadline")
		}
	})
}

// WaitReady blocks until the instrument directory is first loaded.
func (c *Client) WaitReady(ctx context.Context) error {
	return c.session.waitReady(ctx)
}

func (c *Client) Ready() bool {
	return c.directory.Ready()
}

func (c *Client) Stage() Stage {
	return c.session.Stage()
}

func (c *Client) Status() types.SessionStatus {
	connected := c.transport != nil && c.transport.Connected()
	return types.SessionStatus{
		Connected:   connected,
		Ready:       c.directory.Ready(),
		Stage:       c.session.Stage().String(),
		Instruments: c.directory.Len(),
	}
}

// Instruments lists instrument names in venue order. No network I/O.
func (c *Client) Instruments(ctx context.Context) []string {
	return c.directory.Names()
}

// Resolve looks an instrument up without touching the network.
func (c *Client) Resolve(name string) (types.Instrument, error) {
	return c.directory.Resolve(name)
}

// onEvent receives frames that matched no in-flight request.
func (c *Client) onEvent(env *Envelope) {
	ctx := context.Background()
	switch env.PayloadType {
	case PayloadHeartbeatEvent:
	case PayloadExecutionEvent:
		var ev executionEvent
		if err := env.decode(&ev); err != nil {
			logger.Warn(ctx, "Undecodable execution event", "error", err)
			return
		}
		fields := []any{"execution_type", executionTypeName(ev.ExecutionType)}
		if ev.Position != nil {
			fields = append(fields, "position_id", ev.Position.PositionID, "symbol", c.directory.NameOf(ev.Position.TradeData.SymbolID))
		}
		if ev.Order != nil {
			fields = append(fields, "order_id", ev.Order.OrderID)
		}
		logger.Info(ctx, "Execution event", fields...)
	case PayloadOrderErrorEvent, PayloadErrorRes:
		var e errorRes
		_ = env.decode(&e)
		logger.Warn(ctx, "Venue error event", "payload_type", env.PayloadType, "code", e.ErrorCode, "description", e.Description)
	default:
		logger.Debug(ctx, "Unhandled venue event", "payload_type", env.PayloadType)
	}
}
