package ctrader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smc-trading-bridge/internal/types"
)

func reconcileFixture() reconcileRes {
	return reconcileRes{
		Position: []wirePosition{
			{PositionID: 10, TradeData: tradeData{SymbolID: 1, Volume: 1_000_000, TradeSide: wireSideBuy}, Price: 109350},
			{PositionID: 11, TradeData: tradeData{SymbolID: 404, Volume: 10_000_000, TradeSide: wireSideSell}, Price: 5000},
		},
		Order: []wireOrder{
			{OrderID: 20, TradeData: tradeData{SymbolID: 1, Volume: 500_000, TradeSide: wireSideSell}, OrderType: wireOrderLimit, LimitPrice: int64Ptr(110000)},
			{OrderID: 21, TradeData: tradeData{SymbolID: 2, Volume: 100_000, TradeSide: wireSideBuy}, OrderType: wireOrderStop, StopPrice: int64Ptr(240050000)},
			{OrderID: 22, TradeData: tradeData{SymbolID: 1, Volume: 100_000, TradeSide: wireSideBuy}, OrderType: wireOrderMarket},
		},
	}
}

func TestOpenPositionsNormalizes(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadReconcileRes, reconcileFixture())
	}}
	c := newTestClient(t, s, testParams())

	positions := c.OpenPositions(context.Background())
	require.Len(t, positions, 2)

	assert.Equal(t, types.Position{
		SymbolName: "EURUSD", PositionID: 10, Direction: types.Buy, EntryPrice: 1.0935, VolumeLots: 0.1,
	}, positions[0])
	assert.Equal(t, "404", positions[1].SymbolName)
	assert.Equal(t, types.Sell, positions[1].Direction)
	assert.InDelta(t, 1.0, positions[1].VolumeLots, 1e-12)
}

func TestPendingOrdersNormalizes(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadReconcileRes, reconcileFixture())
	}}
	c := newTestClient(t, s, testParams())

	orders := c.PendingOrders(context.Background())
	require.Len(t, orders, 2)

	assert.Equal(t, types.PendingOrder{
		OrderID: 20, Symbol: "EURUSD", Kind: types.Limit, Side: types.Sell, Price: 1.1, Volume: 0.05,
	}, orders[0])
	assert.Equal(t, types.Stop, orders[1].Kind)
	assert.Equal(t, "XAUUSD", orders[1].Symbol)
	assert.InDelta(t, 2400.5, orders[1].Price, 1e-9)
}

func TestOpenPositionsTimeoutWithoutHistoryIsEmpty(t *testing.T) {
	s := &scriptedSender{}
	p := testParams()
	p.ReconcileTimeout = 10 * time.Millisecond
	c := newTestClient(t, s, p)

	start := time.Now()
	positions := c.OpenPositions(context.Background())
	assert.NotNil(t, positions)
	assert.Empty(t, positions)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	pending := c.PendingOrders(context.Background())
	assert.NotNil(t, pending)
	assert.Empty(t, pending)
}

func TestReconcileServesLastKnownOnFailure(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadReconcileRes, reconcileFixture())
	}}
	p := testParams()
	p.ReconcileTimeout = 10 * time.Millisecond
	p.PendingOrdersTimeout = 10 * time.Millisecond
	c := newTestClient(t, s, p)

	fresh := c.OpenPositions(context.Background())
	require.Len(t, fresh, 2)

	s.setRespond(nil)
	assert.Equal(t, fresh, c.OpenPositions(context.Background()))
	assert.Len(t, c.PendingOrders(context.Background()), 2)

	s.setRespond(func(int, []byte) *Envelope {
		return envelope(PayloadErrorRes, errorRes{ErrorCode: "INVALID_REQUEST"})
	})
	assert.Equal(t, fresh, c.OpenPositions(context.Background()))
}

func TestReconcileReturnsCopies(t *testing.T) {
	s := &scriptedSender{respond: func(int, []byte) *Envelope {
		return envelope(PayloadReconcileRes, reconcileFixture())
	}}
	c := newTestClient(t, s, testParams())

	first := c.OpenPositions(context.Background())
	first[0].SymbolName = "mutated"

	last, _ := c.snapshots.lastPositions()
	assert.Equal(t, "EURUSD", last[0].SymbolName)
}
