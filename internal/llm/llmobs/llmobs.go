package llmobs

import (
	"context"
	"strings"

	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/metrics"
	"smc-trading-bridge/internal/trace"
	"smc-trading-bridge/internal/types"
)

// observableDecider wraps a Decider with observability (logging, tracing, metrics)
type observableDecider struct {
	decider interfaces.Decider
}

// Compile-time interface check
var _ interfaces.Decider = (*observableDecider)(nil)

// Wrap wraps a decider with observability middleware
func Wrap(decider interfaces.Decider) interfaces.Decider {
	return &observableDecider{
		decider: decider,
	}
}

func (od *observableDecider) Decide(ctx context.Context, in types.DecisionInput) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Decide")
	defer span.End()

	// DebugSkip(1) reports the caller, not this wrapper
	logger.DebugSkip(ctx, 1, "Requesting trading decision",
		"symbol", in.Symbol,
		"timeframe", in.Timeframe,
		"bars", len(in.Bars),
		"chart_bytes", len(in.Chart),
	)

	decision, err := od.decider.Decide(ctx, in)
	if err != nil {
		metrics.Decisions.WithLabelValues("error").Inc()
		logger.ErrorWithErrSkip(ctx, 1, "Failed to get trading decision", err,
			"symbol", in.Symbol,
			"timeframe", in.Timeframe,
		)
		return types.Decision{}, err
	}

	metrics.Decisions.WithLabelValues(string(decision.Signal)).Inc()

	confidence := 0.0
	if decision.Confidence != nil {
		confidence = *decision.Confidence
	}
	logger.Decision(ctx, in.Symbol, string(decision.Signal), confidence,
		strings.Join(decision.Reasons, " "),
		"timeframe", in.Timeframe,
		"stop_loss", decision.StopLoss,
		"take_profit", decision.TakeProfit,
	)

	return decision, nil
}
