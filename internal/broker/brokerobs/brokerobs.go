package brokerobs

import (
	"context"
	"time"

	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/metrics"
	"smc-trading-bridge/internal/trace"
	"smc-trading-bridge/internal/types"
)

// observableBroker wraps a Broker with observability (logging, tracing & latency)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{
		broker: broker,
	}
}

func observe(method string, start time.Time, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	metrics.BrokerLatency.WithLabelValues(method, outcome).Observe(float64(time.Since(start).Milliseconds()))
}

func (ob *observableBroker) Start(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "broker.Start")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting venue session")
	if err := ob.broker.Start(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to start venue session", err)
		return err
	}
	return nil
}

func (ob *observableBroker) Stop(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "broker.Stop")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Stopping venue session")
	ob.broker.Stop(ctx)
}

func (ob *observableBroker) Ready() bool {
	return ob.broker.Ready()
}

func (ob *observableBroker) Status() types.SessionStatus {
	return ob.broker.Status()
}

func (ob *observableBroker) Instruments(ctx context.Context) []string {
	return ob.broker.Instruments(ctx)
}

// HistoricalBars fetches trendbars with observability
func (ob *observableBroker) HistoricalBars(ctx context.Context, symbol, timeframe string, count int) ([]types.Bar, error) {
	ctx, span := trace.StartSpan(ctx, "broker.HistoricalBars")
	defer span.End()
	start := time.Now()

	logger.DebugSkip(ctx, 1, "Fetching historical bars", "symbol", symbol, "timeframe", timeframe, "count", count)

	bars, err := ob.broker.HistoricalBars(ctx, symbol, timeframe, count)
	observe("HistoricalBars", start, err != nil)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch bars", err, "symbol", symbol, "timeframe", timeframe)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Bars fetched successfully", "symbol", symbol, "count", len(bars))
	return bars, nil
}

func (ob *observableBroker) OpenPositions(ctx context.Context) []types.Position {
	ctx, span := trace.StartSpan(ctx, "broker.OpenPositions")
	defer span.End()
	start := time.Now()

	positions := ob.broker.OpenPositions(ctx)
	observe("OpenPositions", start, false)
	logger.DebugSkip(ctx, 1, "Open positions", "count", len(positions))
	return positions
}

func (ob *observableBroker) PendingOrders(ctx context.Context) []types.PendingOrder {
	ctx, span := trace.StartSpan(ctx, "broker.PendingOrders")
	defer span.End()
	start := time.Now()

	orders := ob.broker.PendingOrders(ctx)
	observe("PendingOrders", start, false)
	logger.DebugSkip(ctx, 1, "Pending orders", "count", len(orders))
	return orders
}

// PlaceOrder places an order with observability
func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()
	start := time.Now()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", req.Direction,
		"type", req.Kind,
		"volume", req.Volume,
	)

	res, err := ob.broker.PlaceOrder(ctx, req)
	observe("PlaceOrder", start, err != nil || res.Status != types.StatusSuccess)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Order rejected before submission", err,
			"symbol", req.Symbol,
			"side", req.Direction,
			"type", req.Kind,
		)
		return res, err
	}

	logger.Trade(ctx, req.Symbol, string(req.Direction), string(req.Kind), req.Volume, res.Status,
		"submitted", res.Submitted,
		"detail", res.Details.Status,
		"order_id", res.Details.OrderID,
		"position_id", res.Details.PositionID,
	)
	if res.Err != nil {
		logger.WarnSkip(ctx, 1, "Order finished with error", "symbol", req.Symbol, "error", res.Err)
	}
	return res, nil
}

func (ob *observableBroker) AmendPosition(ctx context.Context, positionID int64, stopLoss, takeProfit *float64) error {
	ctx, span := trace.StartSpan(ctx, "broker.AmendPosition")
	defer span.End()
	start := time.Now()

	logger.InfoSkip(ctx, 1, "Amending position protection", "position_id", positionID)

	err := ob.broker.AmendPosition(ctx, positionID, stopLoss, takeProfit)
	observe("AmendPosition", start, err != nil)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to amend position", err, "position_id", positionID)
		return err
	}
	return nil
}

func (ob *observableBroker) AmendOrder(ctx context.Context, orderID int64, stopLoss, takeProfit *float64) error {
	ctx, span := trace.StartSpan(ctx, "broker.AmendOrder")
	defer span.End()
	start := time.Now()

	logger.InfoSkip(ctx, 1, "Amending pending order protection", "order_id", orderID)

	err := ob.broker.AmendOrder(ctx, orderID, stopLoss, takeProfit)
	observe("AmendOrder", start, err != nil)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to amend pending order", err, "order_id", orderID)
	}
	return err
}
