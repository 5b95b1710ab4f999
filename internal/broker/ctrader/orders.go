package ctrader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/metrics"
	"smc-trading-bridge/internal/types"
)

// builtOrder is a venue request plus the relative distances kept for the
// post-fill amendment.
type builtOrder struct {
	req    newOrderReq
	relSL  *int64
	relTP  *int64
	amends bool
}

// PlaceOrder validates, submits and, for MARKET orders carrying SL/TP,
// attaches protection once the position shows up in reconciliation.
// The returned error is non-nil only for validation failures, which are
// detected before any network call.
func (c *Client) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	inst, err := c.validate(req)
	if err != nil {
		res := failed(err, false)
		recordOrder(req, res)
		return res, err
	}

	built := c.buildOrder(inst, req)
	logger.Debug(ctx, "Submitting order",
		"symbol", inst.Name,
		"kind", string(req.Kind),
		"side", string(req.Direction),
		"volume", built.req.Volume,
	)

	res := Await(ctx, c.send.Send(PayloadNewOrderReq, built.req), c.p.OrderTimeout)
	if res.Err != nil {
		out := failed(res.Err, !errors.Is(res.Err, ErrTransport))
		recordOrder(req, out)
		return out, nil
	}

	details := detailsFromResponse(res)
	if !built.amends {
		out := types.OrderResult{Status: types.StatusSuccess, Submitted: true, Details: details}
		recordOrder(req, out)
		return out, nil
	}

	out := c.amendAfterFill(ctx, inst, req.Direction, built, details)
	recordOrder(req, out)
	return out, nil
}

func (c *Client) validate(req types.OrderRequest) (types.Instrument, error) {
	if !c.directory.Ready() {
		return types.Instrument{}, ErrNotReady
	}
	inst, err := c.directory.Resolve(req.Symbol)
	if err != nil {
		return types.Instrument{}, err
	}
	if !req.Direction.Valid() {
		return types.Instrument{}, fmt.Errorf("%w: direction must be BUY or SELL, got '%s'", ErrInvalidRequest, req.Direction)
	}
	switch req.Kind {
	case types.Market:
	case types.Limit, types.Stop:
		if req.EntryPrice == nil {
			return types.Instrument{}, fmt.Errorf("%w: %s order for %s", ErrMissingPrice, req.Kind, inst.Name)
		}
	default:
		return types.Instrument{}, fmt.Errorf("%w: order type must be MARKET, LIMIT or STOP, got '%s'", ErrInvalidRequest, req.Kind)
	}
	if req.Volume <= 0 || LotsToWire(req.Volume) <= 0 {
		return types.Instrument{}, ErrInvalidVolume
	}
	return inst, nil
}

// buildOrder converts human units to wire units. Pending orders carry
// absolute levels; MARKET orders carry pip distances as relative offsets.
func (c *Client) buildOrder(inst types.Instrument, req types.OrderRequest) builtOrder {
	b := builtOrder{req: newOrderReq{
		AccountID: c.p.AccountID,
		SymbolID:  inst.ID,
		TradeSide: sideToWire(req.Direction),
		Volume:    LotsToWire(req.Volume),
	}}

	switch req.Kind {
	case types.Limit:
		b.req.OrderType = wireOrderLimit
		b.req.LimitPrice = wirePrice(req.EntryPrice)
		b.req.StopLoss = wirePrice(req.StopLoss)
		b.req.TakeProfit = wirePrice(req.TakeProfit)
	case types.Stop:
		b.req.OrderType = wireOrderStop
		b.req.StopPrice = wirePrice(req.EntryPrice)
		b.req.StopLoss = wirePrice(req.StopLoss)
		b.req.TakeProfit = wirePrice(req.TakeProfit)
	case types.Market:
		b.req.OrderType = wireOrderMarket
		if req.StopLoss != nil {
			v := PipsToRelative(*req.StopLoss, inst.Digits)
			b.relSL = &v
		}
		if req.TakeProfit != nil {
			v := PipsToRelative(*req.TakeProfit, inst.Digits)
			b.relTP = &v
		}
		b.req.RelativeStopLoss = b.relSL
		b.req.RelativeTakeProfit = b.relTP
		b.amends = b.relSL != nil || b.relTP != nil
	}
	return b
}

func wirePrice(v *float64) *int64 {
	if v == nil {
		return nil
	}
	p := PriceToWire(*v)
	return &p
}

// amendAfterFill polls reconciliation a bounded number of times for the
// filled position and attaches absolute SL/TP derived from its entry.
func (c *Client) amendAfterFill(ctx context.Context, inst types.Instrument, side types.Side, b builtOrder, details types.OrderDetails) types.OrderResult {
	for attempt := 1; attempt <= c.p.AmendAttempts; attempt++ {
		if !sleepCtx(ctx, c.p.AmendInterval) {
			break
		}
		pos, ok := matchPosition(ctx, c.OpenPositions(ctx), inst.Name, side, details.PositionID)
		if !ok {
			logger.Warn(ctx, "Position not found yet, retrying",
				"symbol", inst.Name, "attempt", attempt, "max_attempts", c.p.AmendAttempts)
			continue
		}

		sl, tp := protectiveLevels(PriceToWire(pos.EntryPrice), side == types.Buy, b.relSL, b.relTP)
		details.PositionID = pos.PositionID
		if err := c.amend(ctx, pos.PositionID, sl, tp); err != nil {
			details.Status = types.StatusFailed
			details.Error = fmt.Sprintf("SL/TP amendment failed: %v", err)
			return types.OrderResult{Status: types.StatusSuccess, Submitted: true, Reason: details.Error, Details: details, Err: err}
		}
		details.Status = types.StatusOK
		details.AmendedSLTP = true
		logger.Info(ctx, "Protection attached to filled position",
			"symbol", inst.Name, "position_id", pos.PositionID, "attempt", attempt)
		return types.OrderResult{Status: types.StatusSuccess, Submitted: true, Details: details}
	}

	details.Status = types.StatusFailed
	details.Error = PositionNotFoundMessage
	return types.OrderResult{
		Status:    types.StatusSuccess,
		Submitted: true,
		Reason:    PositionNotFoundMessage,
		Details:   details,
		Err:       ErrPositionNotFoundAfterFill,
	}
}

// matchPosition prefers the position id reported by the fill. Without one
// it takes the first open position on the same symbol and side.
func matchPosition(ctx context.Context, positions []types.Position, symbol string, side types.Side, positionID int64) (types.Position, bool) {
	if positionID > 0 {
		for _, p := range positions {
			if p.PositionID == positionID {
				return p, true
			}
		}
		return types.Position{}, false
	}

	var matches []types.Position
	for _, p := range positions {
		if strings.EqualFold(p.SymbolName, symbol) && p.Direction == side {
			matches = append(matches, p)
		}
	}
	if len(matches) == 0 {
		return types.Position{}, false
	}
	if len(matches) > 1 {
		logger.Warn(ctx, "Several open positions match the fill, amending the first",
			"symbol", symbol, "side", string(side), "matches", len(matches))
	}
	return matches[0], true
}

// AmendPosition sets absolute SL/TP prices on an open position.
func (c *Client) AmendPosition(ctx context.Context, positionID int64, stopLoss, takeProfit *float64) error {
	if positionID <= 0 {
		return fmt.Errorf("%w: position id must be positive", ErrInvalidRequest)
	}
	if stopLoss == nil && takeProfit == nil {
		return fmt.Errorf("%w: stop loss or take profit required", ErrInvalidRequest)
	}
	return c.amend(ctx, positionID, wirePrice(stopLoss), wirePrice(takeProfit))
}

func (c *Client) amend(ctx context.Context, positionID int64, sl, tp *int64) error {
	res := Await(ctx, c.send.Send(PayloadAmendPositionSLTP, amendPositionReq{
		AccountID:  c.p.AccountID,
		PositionID: positionID,
		StopLoss:   sl,
		TakeProfit: tp,
	}), c.p.AmendTimeout)
	return res.Err
}

// AmendOrder sets absolute SL/TP prices on a pending order.
func (c *Client) AmendOrder(ctx context.Context, orderID int64, stopLoss, takeProfit *float64) error {
	if orderID <= 0 {
		return fmt.Errorf("%w: order id must be positive", ErrInvalidRequest)
	}
	if stopLoss == nil && takeProfit == nil {
		return fmt.Errorf("%w: stop loss or take profit required", ErrInvalidRequest)
	}
	res := Await(ctx, c.send.Send(PayloadAmendOrderReq, amendOrderReq{
		AccountID:  c.p.AccountID,
		OrderID:    orderID,
		StopLoss:   wirePrice(stopLoss),
		TakeProfit: wirePrice(takeProfit),
	}), c.p.AmendTimeout)
	return res.Err
}

func detailsFromResponse(res Result) types.OrderDetails {
	details := types.OrderDetails{Status: types.StatusOK}
	var ev executionEvent
	if res.Message.PayloadType != PayloadExecutionEvent || res.Decode(&ev) != nil {
		return details
	}
	details.ExecutionType = executionTypeName(ev.ExecutionType)
	if ev.Order != nil {
		details.OrderID = ev.Order.OrderID
	}
	if ev.Position != nil {
		details.PositionID = ev.Position.PositionID
	}
	return details
}

func failed(err error, submitted bool) types.OrderResult {
	return types.OrderResult{
		Status:    types.StatusFailed,
		Submitted: submitted,
		Reason:    err.Error(),
		Details:   types.OrderDetails{Status: types.StatusFailed, Error: err.Error()},
		Err:       err,
	}
}

func recordOrder(req types.OrderRequest, res types.OrderResult) {
	metrics.Orders.WithLabelValues(string(req.Kind), res.Status, res.Details.Status).Inc()
}

// sleepCtx waits d or until ctx ends; it reports whether d elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
