package engineobs

import (
	"context"
	"time"

	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/trace"
	"smc-trading-bridge/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.Analysis, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Analyze")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting analysis",
		"symbol", req.Symbol,
		"timeframe", req.Timeframe,
	)

	result, err := oe.engine.Analyze(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Analysis failed", err,
			"symbol", req.Symbol,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Analysis completed",
		"symbol", result.Symbol,
		"timeframe", result.Timeframe,
		"signal", result.Decision.Signal,
		"confidence", result.Decision.Confidence,
		"bars", result.Bars,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
