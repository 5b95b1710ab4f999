package interfaces

import (
	"context"

	"smc-trading-bridge/internal/types"
)

type Broker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Ready() bool
	Status() types.SessionStatus
	Instruments(ctx context.Context) []string
	HistoricalBars(ctx context.Context, symbol, timeframe string, count int) ([]types.Bar, error)
	OpenPositions(ctx context.Context) []types.Position
	PendingOrders(ctx context.Context) []types.PendingOrder
	PlaceOrder(ctx context.Context, req types.OrderRequest) (types.OrderResult, error)
	AmendPosition(ctx context.Context, positionID int64, stopLoss, takeProfit *float64) error
	AmendOrder(ctx context.Context, orderID int64, stopLoss, takeProfit *float64) error
}
