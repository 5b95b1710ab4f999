package ctrader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"smc-trading-bridge/internal/metrics"
)

// Result is the outcome of waiting on a Handle. Err is nil, ErrTimeout,
// ErrTransport or a *VenueError; Message is set only when Err is nil.
type Result struct {
	Message *Envelope
	Err     error
}

// OK reports whether the venue answered positively.
func (r Result) OK() bool {
	return r.Err == nil && r.Message != nil
}

// Decode unmarshals the response payload into v.
func (r Result) Decode(v any) error {
	if !r.OK() {
		return r.Err
	}
	if len(r.Message.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Message.Payload, v); err != nil {
		return fmt.Errorf("decode payload %d: %w", r.Message.PayloadType, err)
	}
	return nil
}

// Await blocks until h resolves, timeout elapses or ctx ends, whichever is
// first. A zero timeout only inspects the handle. Await never panics and
// never waits past the timeout.
func Await(ctx context.Context, h *Handle, timeout time.Duration) Result {
	if h == nil {
		return Result{Err: fmt.Errorf("%w: no request handle", ErrTransport)}
	}
	if timeout < 0 {
		timeout = 0
	}

	select {
	case <-h.done:
		return finish(h)
	default:
	}
	if timeout == 0 {
		return expire(h, fmt.Errorf("%w: payload %d", ErrTimeout, h.payloadType))
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-h.done:
		return finish(h)
	case <-timer.C:
		return expire(h, fmt.Errorf("%w after %s: payload %d", ErrTimeout, timeout, h.payloadType))
	case <-ctx.Done():
		return expire(h, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err()))
	}
}

func finish(h *Handle) Result {
	res := Result{Message: h.msg, Err: h.err}
	if res.Err == nil {
		res.Err = classify(h.msg)
	}
	if res.Err != nil {
		res.Message = nil
	}
	observe(h, res.Err)
	return res
}

func expire(h *Handle, err error) Result {
	h.abandon()
	observe(h, err)
	return Result{Err: err}
}

// classify turns negative acknowledgments into *VenueError.
func classify(msg *Envelope) error {
	if msg == nil {
		return fmt.Errorf("%w: empty response", ErrTransport)
	}
	switch msg.PayloadType {
	case PayloadErrorRes, PayloadOrderErrorEvent:
		var e errorRes
		_ = json.Unmarshal(msg.Payload, &e)
		return &VenueError{PayloadType: msg.PayloadType, Code: e.ErrorCode, Description: e.Description}
	case PayloadExecutionEvent:
		var ev executionEvent
		if err := json.Unmarshal(msg.Payload, &ev); err == nil && ev.ExecutionType == execOrderRejected {
			code := ev.ErrorCode
			if code == "" {
				code = "ORDER_REJECTED"
			}
			return &VenueError{PayloadType: msg.PayloadType, Code: code}
		}
	}
	return nil
}

func observe(h *Handle, err error) {
	outcome := "ok"
	var venueErr *VenueError
	switch {
	case err == nil:
	case errors.Is(err, ErrTimeout):
		outcome = "timeout"
	case errors.As(err, &venueErr):
		outcome = "rejected"
	default:
		outcome = "transport"
	}
	metrics.VenueRequests.WithLabelValues(strconv.Itoa(h.payloadType), outcome).Inc()
}
