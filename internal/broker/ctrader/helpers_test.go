package ctrader

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"smc-trading-bridge/internal/types"
)

type sentFrame struct {
	payloadType int
	body        []byte
}

// scriptedSender answers requests synchronously from respond; a nil reply
// leaves the handle unresolved.
type scriptedSender struct {
	mu      sync.Mutex
	n       int
	sent    []sentFrame
	respond func(payloadType int, body []byte) *Envelope
}

func (s *scriptedSender) Send(payloadType int, payload any) *Handle {
	body, _ := json.Marshal(payload)
	s.mu.Lock()
	s.n++
	h := newHandle(fmt.Sprintf("msg-%d", s.n), payloadType)
	s.sent = append(s.sent, sentFrame{payloadType: payloadType, body: body})
	respond := s.respond
	s.mu.Unlock()

	if respond != nil {
		if env := respond(payloadType, body); env != nil {
			env.ClientMsgID = h.id
			h.resolve(env, nil)
		}
	}
	return h
}

func (s *scriptedSender) setRespond(fn func(int, []byte) *Envelope) {
	s.mu.Lock()
	s.respond = fn
	s.mu.Unlock()
}

func (s *scriptedSender) frames(payloadType int) []sentFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentFrame
	for _, f := range s.sent {
		if f.payloadType == payloadType {
			out = append(out, f)
		}
	}
	return out
}

func (s *scriptedSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func envelope(payloadType int, payload any) *Envelope {
	body, _ := json.Marshal(payload)
	return &Envelope{PayloadType: payloadType, Payload: body}
}

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

var testInstruments = []types.Instrument{
	{ID: 1, Name: "EURUSD", Digits: 5},
	{ID: 2, Name: "XAUUSD", Digits: 2},
	{ID: 3, Name: "USDJPY", Digits: 3},
}

func testParams() Params {
	return Params{
		AccountID:            42,
		HandshakeTimeout:     time.Second,
		OrderTimeout:         time.Second,
		AmendTimeout:         time.Second,
		ReconcileTimeout:     200 * time.Millisecond,
		PendingOrdersTimeout: 200 * time.Millisecond,
		BarsTimeout:          time.Second,
		AmendAttempts:        5,
		AmendInterval:        time.Millisecond,
	}
}

func newTestClient(t *testing.T, s sender, p Params) *Client {
	t.Helper()
	p.applyDefaults()
	c := newClient(p, s)
	c.directory.Replace(testInstruments)
	return c
}
