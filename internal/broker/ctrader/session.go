package ctrader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/metrics"
)

// Stage is the authentication progress of the session.
type Stage int32

const (
	StageDisconnected Stage = iota
	StageConnected
	StageAppAuthenticated
	StageAccountAuthenticated
	StageSymbolsLoaded
)

func (s Stage) String() string {
	switch s {
	case StageConnected:
		return "CONNECTED"
	case StageAppAuthenticated:
		return "APP_AUTHENTICATED"
	case StageAccountAuthenticated:
		return "ACCOUNT_AUTHENTICATED"
	case StageSymbolsLoaded:
		return "SYMBOLS_LOADED"
	default:
		return "DISCONNECTED"
	}
}

type sessionCredentials struct {
	clientID     string
	clientSecret string
	accessToken  string
	accountID    int64
}

// session drives the handshake and owns the instrument directory.
type session struct {
	creds            sessionCredentials
	transport        sender
	directory        *Directory
	handshakeTimeout time.Duration

	stage atomic.Int32

	readyOnce sync.Once
	ready     chan struct{}
}

func newSession(creds sessionCredentials, tr sender, dir *Directory, handshakeTimeout time.Duration) *session {
	return &session{
		creds:            creds,
		transport:        tr,
		directory:        dir,
		handshakeTimeout: handshakeTimeout,
		ready:            make(chan struct{}),
	}
}

func (s *session) Stage() Stage {
	return Stage(s.stage.Load())
}

func (s *session) setStage(st Stage) {
	s.stage.Store(int32(st))
	metrics.SessionStage.WithLabelValues().Set(float64(st))
}

// onConnected runs on the transport loop, so the handshake gets its own
// goroutine.
func (s *session) onConnected() {
	s.setStage(StageConnected)
	go s.handshake(context.Background())
}

func (s *session) onDisconnected(err error) {
	prev := s.Stage()
	s.setStage(StageDisconnected)
	if err != nil {
		logger.ErrorWithErr(context.Background(), "Venue connection lost", err, "previous_stage", prev.String())
		return
	}
	logger.Info(context.Background(), "Venue connection closed", "previous_stage", prev.String())
}

// handshake chains application auth, account auth and the symbol list.
// Any failure logs and stops the chain.
func (s *session) handshake(ctx context.Context) {
	if _, ok := s.step(ctx, "application auth", PayloadApplicationAuthReq, appAuthReq{
		ClientID:     s.creds.clientID,
		ClientSecret: s.creds.clientSecret,
	}); !ok {
		return
	}
	s.setStage(StageAppAuthenticated)

	if _, ok := s.step(ctx, "account auth", PayloadAccountAuthReq, accountAuthReq{
		AccountID:   s.creds.accountID,
		AccessToken: s.creds.accessToken,
	}); !ok {
		return
	}
	s.setStage(StageAccountAuthenticated)

	res, ok := s.step(ctx, "symbols list", PayloadSymbolsListReq, symbolsListReq{
		AccountID:              s.creds.accountID,
		IncludeArchivedSymbols: false,
	})
	if !ok {
		return
	}
	var list symbolsListRes
	if err := res.Decode(&list); err != nil {
		logger.ErrorWithErr(ctx, "Handshake stopped: bad symbols list", err)
		return
	}
	s.onSymbolsLoaded(ctx, list.Symbol)
}

func (s *session) step(ctx context.Context, name string, payloadType int, payload any) (Result, bool) {
	logger.Debug(ctx, "Handshake step", "step", name, "payload_type", payloadType)
	res := Await(ctx, s.transport.Send(payloadType, payload), s.handshakeTimeout)
	if res.Err != nil {
		logger.ErrorWithErr(ctx, "Handshake stopped", res.Err, "step", name, "stage", s.Stage().String())
		return res, false
	}
	return res, true
}

func (s *session) onSymbolsLoaded(ctx context.Context, symbols []lightSymbol) {
	s.directory.Replace(instrumentsFromWire(symbols))
	s.setStage(StageSymbolsLoaded)
	if s.directory.Ready() {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	logger.Info(ctx, "Instrument directory loaded", "count", s.directory.Len())
}

// waitReady blocks until the directory is first loaded or ctx ends.
func (s *session) waitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
