package interfaces

import (
	"context"

	"smc-trading-bridge/internal/types"
)

type Engine interface {
	Analyze(ctx context.Context, req types.AnalysisRequest) (*types.Analysis, error)
}

// ChartRenderer draws an OHLC window as a PNG.
type ChartRenderer interface {
	Render(bars []types.Bar, overlay types.ChartOverlay) ([]byte, error)
}
