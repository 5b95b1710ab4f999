package ctrader

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smc-trading-bridge/internal/types"
)

// marketVenue fills every order as position 77 at entry and acknowledges
// every amendment.
func marketVenue(entry int64, side int, reportPositionID bool) func(int, []byte) *Envelope {
	return func(pt int, body []byte) *Envelope {
		switch pt {
		case PayloadNewOrderReq:
			ev := executionEvent{ExecutionType: execOrderFilled, Order: &wireOrder{OrderID: 501}}
			if reportPositionID {
				ev.Position = &wirePosition{PositionID: 77}
			}
			return envelope(PayloadExecutionEvent, ev)
		case PayloadReconcileReq:
			return envelope(PayloadReconcileRes, reconcileRes{Position: []wirePosition{{
				PositionID: 77,
				TradeData:  tradeData{SymbolID: 1, Volume: 100_000, TradeSide: side},
				Price:      entry,
			}}})
		case PayloadAmendPositionSLTP:
			return envelope(PayloadExecutionEvent, executionEvent{ExecutionType: execOrderReplaced})
		}
		return nil
	}
}

func TestMarketOrderConvertsPipsAndAmends(t *testing.T) {
	s := &scriptedSender{respond: marketVenue(109350, wireSideBuy, true)}
	c := newTestClient(t, s, testParams())

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol:     "eurusd",
		Direction:  types.Buy,
		Kind:       types.Market,
		Volume:     0.01,
		StopLoss:   floatPtr(20),
		TakeProfit: floatPtr(40),
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.True(t, res.Submitted)
	assert.Equal(t, types.StatusOK, res.Details.Status)
	assert.True(t, res.Details.AmendedSLTP)
	assert.Equal(t, int64(77), res.Details.PositionID)
	assert.Equal(t, int64(501), res.Details.OrderID)
	assert.NoError(t, res.Err)

	orders := s.frames(PayloadNewOrderReq)
	require.Len(t, orders, 1)
	var sent newOrderReq
	require.NoError(t, json.Unmarshal(orders[0].body, &sent))
	assert.Equal(t, int64(1), sent.SymbolID)
	assert.Equal(t, wireOrderMarket, sent.OrderType)
	assert.Equal(t, wireSideBuy, sent.TradeSide)
	assert.Equal(t, int64(100_000), sent.Volume)
	assert.Equal(t, int64(42), sent.AccountID)
	require.NotNil(t, sent.RelativeStopLoss)
	assert.Equal(t, int64(200), *sent.RelativeStopLoss)
	require.NotNil(t, sent.RelativeTakeProfit)
	assert.Equal(t, int64(400), *sent.RelativeTakeProfit)
	assert.Nil(t, sent.StopLoss)

	amends := s.frames(PayloadAmendPositionSLTP)
	require.Len(t, amends, 1)
	var amend amendPositionReq
	require.NoError(t, json.Unmarshal(amends[0].body, &amend))
	assert.Equal(t, int64(77), amend.PositionID)
	assert.Equal(t, int64(109150), *amend.StopLoss)
	assert.Equal(t, int64(109750), *amend.TakeProfit)
}

func TestSellMarketOrderMirrorsProtection(t *testing.T) {
	s := &scriptedSender{respond: marketVenue(110000, wireSideSell, false)}
	c := newTestClient(t, s, testParams())

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Sell, Kind: types.Market, Volume: 0.01,
		StopLoss: floatPtr(20), TakeProfit: floatPtr(40),
	})
	require.NoError(t, err)
	assert.True(t, res.Details.AmendedSLTP)

	var amend amendPositionReq
	require.NoError(t, json.Unmarshal(s.frames(PayloadAmendPositionSLTP)[0].body, &amend))
	assert.Equal(t, int64(110200), *amend.StopLoss)
	assert.Equal(t, int64(109600), *amend.TakeProfit)
}

func TestMarketOrderWithoutProtectionSkipsAmend(t *testing.T) {
	s := &scriptedSender{respond: marketVenue(109350, wireSideBuy, true)}
	c := newTestClient(t, s, testParams())

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market, Volume: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, "ORDER_FILLED", res.Details.ExecutionType)
	assert.Empty(t, s.frames(PayloadReconcileReq))
	assert.Empty(t, s.frames(PayloadAmendPositionSLTP))
}

func TestMarketOrderPositionNeverFound(t *testing.T) {
	s := &scriptedSender{respond: func(pt int, _ []byte) *Envelope {
		switch pt {
		case PayloadNewOrderReq:
			return envelope(PayloadExecutionEvent, executionEvent{ExecutionType: execOrderAccepted})
		case PayloadReconcileReq:
			return envelope(PayloadReconcileRes, reconcileRes{})
		}
		return nil
	}}
	c := newTestClient(t, s, testParams())

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market, Volume: 0.1, StopLoss: floatPtr(15),
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.True(t, res.Submitted)
	assert.Equal(t, types.StatusFailed, res.Details.Status)
	assert.Equal(t, PositionNotFoundMessage, res.Details.Error)
	assert.ErrorIs(t, res.Err, ErrPositionNotFoundAfterFill)
	assert.Len(t, s.frames(PayloadReconcileReq), 5)
	assert.Empty(t, s.frames(PayloadAmendPositionSLTP))
}

func TestMarketOrderIgnoresOtherPositionsWhenFillReportsID(t *testing.T) {
	s := &scriptedSender{respond: func(pt int, _ []byte) *Envelope {
		switch pt {
		case PayloadNewOrderReq:
			return envelope(PayloadExecutionEvent, executionEvent{
				ExecutionType: execOrderFilled, Position: &wirePosition{PositionID: 99},
			})
		case PayloadReconcileReq:
			return envelope(PayloadReconcileRes, reconcileRes{Position: []wirePosition{{
				PositionID: 12, TradeData: tradeData{SymbolID: 1, Volume: 100_000, TradeSide: wireSideBuy}, Price: 109000,
			}}})
		}
		return nil
	}}
	p := testParams()
	p.AmendAttempts = 2
	c := newTestClient(t, s, p)

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market, Volume: 0.01, TakeProfit: floatPtr(10),
	})
	require.NoError(t, err)
	assert.ErrorIs(t, res.Err, ErrPositionNotFoundAfterFill)
	assert.Len(t, s.frames(PayloadReconcileReq), 2)
}

func TestAmendFailureKeepsOrderSubmitted(t *testing.T) {
	base := marketVenue(109350, wireSideBuy, true)
	s := &scriptedSender{respond: func(pt int, body []byte) *Envelope {
		if pt == PayloadAmendPositionSLTP {
			return envelope(PayloadErrorRes, errorRes{ErrorCode: "TRADING_BAD_STOPS"})
		}
		return base(pt, body)
	}}
	c := newTestClient(t, s, testParams())

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market, Volume: 0.01, StopLoss: floatPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.True(t, res.Submitted)
	assert.Equal(t, types.StatusFailed, res.Details.Status)
	assert.Contains(t, res.Details.Error, "SL/TP amendment failed")
	assert.ErrorIs(t, res.Err, ErrVenueRejected)
}

func TestLimitOrderCarriesAbsolutePrices(t *testing.T) {
	s := &scriptedSender{respond: func(pt int, _ []byte) *Envelope {
		return envelope(PayloadExecutionEvent, executionEvent{ExecutionType: execOrderAccepted, Order: &wireOrder{OrderID: 8}})
	}}
	c := newTestClient(t, s, testParams())

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Sell, Kind: types.Limit, Volume: 0.5,
		EntryPrice: floatPtr(1.1), StopLoss: floatPtr(1.102), TakeProfit: floatPtr(1.095),
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusSuccess, res.Status)
	assert.Equal(t, "ORDER_ACCEPTED", res.Details.ExecutionType)
	assert.Equal(t, int64(8), res.Details.OrderID)

	var sent newOrderReq
	require.NoError(t, json.Unmarshal(s.frames(PayloadNewOrderReq)[0].body, &sent))
	assert.Equal(t, wireOrderLimit, sent.OrderType)
	assert.Equal(t, wireSideSell, sent.TradeSide)
	assert.Equal(t, int64(5_000_000), sent.Volume)
	assert.Equal(t, int64(110000), *sent.LimitPrice)
	assert.Equal(t, int64(110200), *sent.StopLoss)
	assert.Equal(t, int64(109500), *sent.TakeProfit)
	assert.Nil(t, sent.StopPrice)
	assert.Nil(t, sent.RelativeStopLoss)
	assert.Empty(t, s.frames(PayloadReconcileReq))
}

func TestStopOrderUsesStopPrice(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadExecutionEvent, executionEvent{ExecutionType: execOrderAccepted})
	}}
	c := newTestClient(t, s, testParams())

	_, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "XAUUSD", Direction: types.Buy, Kind: types.Stop, Volume: 0.1, EntryPrice: floatPtr(2400.5),
	})
	require.NoError(t, err)

	var sent newOrderReq
	require.NoError(t, json.Unmarshal(s.frames(PayloadNewOrderReq)[0].body, &sent))
	assert.Equal(t, wireOrderStop, sent.OrderType)
	assert.Equal(t, int64(240050000), *sent.StopPrice)
	assert.Nil(t, sent.LimitPrice)
}

func TestOrderValidationNeverTouchesNetwork(t *testing.T) {
	tests := []struct {
		name string
		req  types.OrderRequest
		want error
	}{
		{"limit without price", types.OrderRequest{Symbol: "EURUSD", Direction: types.Buy, Kind: types.Limit, Volume: 1}, ErrMissingPrice},
		{"stop without price", types.OrderRequest{Symbol: "EURUSD", Direction: types.Sell, Kind: types.Stop, Volume: 1}, ErrMissingPrice},
		{"unknown symbol", types.OrderRequest{Symbol: "NOPE", Direction: types.Buy, Kind: types.Market, Volume: 1}, ErrUnknownSymbol},
		{"zero volume", types.OrderRequest{Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market}, ErrInvalidVolume},
		{"bad direction", types.OrderRequest{Symbol: "EURUSD", Direction: "HOLD", Kind: types.Market, Volume: 1}, ErrInvalidRequest},
		{"bad kind", types.OrderRequest{Symbol: "EURUSD", Direction: types.Buy, Kind: "ICEBERG", Volume: 1}, ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scriptedSender{}
			c := newTestClient(t, s, testParams())

			res, err := c.PlaceOrder(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, types.StatusFailed, res.Status)
			assert.False(t, res.Submitted)
			assert.Zero(t, s.count())
		})
	}
}

func TestOrderBeforeSymbolsLoadedIsNotReady(t *testing.T) {
	s := &scriptedSender{}
	p := testParams()
	p.applyDefaults()
	c := newClient(p, s)

	_, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market, Volume: 1,
	})
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Zero(t, s.count())
}

func TestOrderTimeoutIsSubmittedFailure(t *testing.T) {
	s := &scriptedSender{}
	p := testParams()
	p.OrderTimeout = 20 * time.Millisecond
	c := newTestClient(t, s, p)

	start := time.Now()
	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market, Volume: 1,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, types.StatusFailed, res.Status)
	assert.True(t, res.Submitted)
	assert.ErrorIs(t, res.Err, ErrTimeout)
}

func TestOrderRejectedByVenue(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadOrderErrorEvent, errorRes{ErrorCode: "TRADING_BAD_VOLUME", Description: "volume too small"})
	}}
	c := newTestClient(t, s, testParams())

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market, Volume: 0.01,
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, res.Status)
	assert.True(t, res.Submitted)
	assert.Contains(t, res.Reason, "TRADING_BAD_VOLUME")

	var ve *VenueError
	require.True(t, errors.As(res.Err, &ve))
	assert.Equal(t, "volume too small", ve.Description)
}

func TestOrderWithTransportDownIsNotSubmitted(t *testing.T) {
	c := newTestClient(t, NewTransport("ws://127.0.0.1:1", 0), testParams())

	res, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		Symbol: "EURUSD", Direction: types.Buy, Kind: types.Market, Volume: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, types.StatusFailed, res.Status)
	assert.False(t, res.Submitted)
	assert.ErrorIs(t, res.Err, ErrTransport)
}

func TestMatchPositionWithoutFillID(t *testing.T) {
	positions := []types.Position{
		{SymbolName: "EURUSD", PositionID: 1, Direction: types.Sell},
		{SymbolName: "EURUSD", PositionID: 2, Direction: types.Buy},
		{SymbolName: "EURUSD", PositionID: 3, Direction: types.Buy},
	}

	p, ok := matchPosition(context.Background(), positions, "eurusd", types.Buy, 0)
	require.True(t, ok)
	assert.Equal(t, int64(2), p.PositionID)

	p, ok = matchPosition(context.Background(), positions, "EURUSD", types.Buy, 3)
	require.True(t, ok)
	assert.Equal(t, int64(3), p.PositionID)

	_, ok = matchPosition(context.Background(), positions, "XAUUSD", types.Buy, 0)
	assert.False(t, ok)
}

func TestAmendPosition(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadExecutionEvent, executionEvent{ExecutionType: execOrderReplaced})
	}}
	c := newTestClient(t, s, testParams())

	require.NoError(t, c.AmendPosition(context.Background(), 77, floatPtr(1.09), nil))

	var amend amendPositionReq
	require.NoError(t, json.Unmarshal(s.frames(PayloadAmendPositionSLTP)[0].body, &amend))
	assert.Equal(t, int64(109000), *amend.StopLoss)
	assert.Nil(t, amend.TakeProfit)

	assert.ErrorIs(t, c.AmendPosition(context.Background(), 0, floatPtr(1), nil), ErrInvalidRequest)
	assert.ErrorIs(t, c.AmendPosition(context.Background(), 77, nil, nil), ErrInvalidRequest)
	assert.Len(t, s.frames(PayloadAmendPositionSLTP), 1)
}

func TestAmendOrder(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadExecutionEvent, executionEvent{ExecutionType: execOrderReplaced})
	}}
	c := newTestClient(t, s, testParams())

	require.NoError(t, c.AmendOrder(context.Background(), 9, floatPtr(1.085), floatPtr(1.1)))

	frames := s.frames(PayloadAmendOrderReq)
	require.Len(t, frames, 1)
	var amend amendOrderReq
	require.NoError(t, json.Unmarshal(frames[0].body, &amend))
	assert.Equal(t, int64(9), amend.OrderID)
	assert.Equal(t, int64(108500), *amend.StopLoss)
	assert.Equal(t, int64(110000), *amend.TakeProfit)
	assert.Empty(t, s.frames(PayloadAmendPositionSLTP))

	assert.ErrorIs(t, c.AmendOrder(context.Background(), -1, floatPtr(1), nil), ErrInvalidRequest)
	assert.ErrorIs(t, c.AmendOrder(context.Background(), 9, nil, nil), ErrInvalidRequest)
	assert.Len(t, s.frames(PayloadAmendOrderReq), 1)
}

func TestAmendOrderRejectedByVenue(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadOrderErrorEvent, errorRes{ErrorCode: "OA_ORDER_NOT_FOUND"})
	}}
	c := newTestClient(t, s, testParams())

	err := c.AmendOrder(context.Background(), 9, floatPtr(1.085), nil)
	assert.ErrorIs(t, err, ErrVenueRejected)
	var ve *VenueError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "OA_ORDER_NOT_FOUND", ve.Code)
}
