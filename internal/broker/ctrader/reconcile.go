package ctrader

import (
	"context"
	"sync"
	"time"

	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/metrics"
	"smc-trading-bridge/internal/types"
)

// snapshotCache keeps the last successful reconciliation. It is served,
// possibly stale, when a fresh query times out.
type snapshotCache struct {
	mu        sync.RWMutex
	positions []types.Position
	pending   []types.PendingOrder
	updatedAt time.Time
}

func (s *snapshotCache) store(positions []types.Position, pending []types.PendingOrder) {
	s.mu.Lock()
	s.positions = positions
	s.pending = pending
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

func (s *snapshotCache) lastPositions() ([]types.Position, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Position, len(s.positions))
	copy(out, s.positions)
	return out, s.updatedAt
}

func (s *snapshotCache) lastPending() ([]types.PendingOrder, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.PendingOrder, len(s.pending))
	copy(out, s.pending)
	return out, s.updatedAt
}

// OpenPositions queries the venue and falls back on the last known
// snapshot (empty if none) when the query fails or times out.
func (c *Client) OpenPositions(ctx context.Context) []types.Position {
	positions, _, err := c.reconcile(ctx, c.p.ReconcileTimeout)
	if err != nil {
		last, at := c.snapshots.lastPositions()
		metrics.StaleSnapshots.WithLabelValues("positions").Inc()
		logger.Warn(ctx, "Reconciliation failed, serving last known positions",
			"error", err, "count", len(last), "snapshot_age", staleness(at))
		return last
	}
	return positions
}

// PendingOrders has the same fallback contract as OpenPositions with its
// own bound.
func (c *Client) PendingOrders(ctx context.Context) []types.PendingOrder {
	_, pending, err := c.reconcile(ctx, c.p.PendingOrdersTimeout)
	if err != nil {
		last, at := c.snapshots.lastPending()
		metrics.StaleSnapshots.WithLabelValues("pending_orders").Inc()
		logger.Warn(ctx, "Reconciliation failed, serving last known pending orders",
			"error", err, "count", len(last), "snapshot_age", staleness(at))
		return last
	}
	return pending
}

func (c *Client) reconcile(ctx context.Context, timeout time.Duration) ([]types.Position, []types.PendingOrder, error) {
	res := Await(ctx, c.send.Send(PayloadReconcileReq, reconcileReq{AccountID: c.p.AccountID}), timeout)
	var rec reconcileRes
	if err := res.Decode(&rec); err != nil {
		return nil, nil, err
	}

	positions := make([]types.Position, 0, len(rec.Position))
	for _, p := range rec.Position {
		positions = append(positions, types.Position{
			SymbolName: c.directory.NameOf(p.TradeData.SymbolID),
			PositionID: p.PositionID,
			Direction:  sideFromWire(p.TradeData.TradeSide),
			EntryPrice: PriceFromWire(p.Price),
			VolumeLots: LotsFromWire(p.TradeData.Volume),
		})
	}

	pending := make([]types.PendingOrder, 0, len(rec.Order))
	for _, o := range rec.Order {
		var kind types.OrderKind
		var price int64
		switch o.OrderType {
		case wireOrderLimit:
			kind = types.Limit
			if o.LimitPrice != nil {
				price = *o.LimitPrice
			}
		case wireOrderStop:
			kind = types.Stop
			if o.StopPrice != nil {
				price = *o.StopPrice
			}
		default:
			// market and protection orders are not resting entries
			continue
		}
		pending = append(pending, types.PendingOrder{
			OrderID: o.OrderID,
			Symbol:  c.directory.NameOf(o.TradeData.SymbolID),
			Kind:    kind,
			Side:    sideFromWire(o.TradeData.TradeSide),
			Price:   PriceFromWire(price),
			Volume:  LotsFromWire(o.TradeData.Volume),
		})
	}

	c.snapshots.store(positions, pending)
	logger.Debug(ctx, "Reconciled", "positions", len(positions), "pending_orders", len(pending))

	outP := make([]types.Position, len(positions))
	copy(outP, positions)
	outO := make([]types.PendingOrder, len(pending))
	copy(outO, pending)
	return outP, outO, nil
}

func sideFromWire(v int) types.Side {
	if v == wireSideSell {
		return types.Sell
	}
	return types.Buy
}

func sideToWire(s types.Side) int {
	if s == types.Sell {
		return wireSideSell
	}
	return wireSideBuy
}

func staleness(at time.Time) string {
	if at.IsZero() {
		return "never"
	}
	return time.Since(at).Round(time.Millisecond).String()
}
