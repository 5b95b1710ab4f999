package noop

import (
	"context"

	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/types"
)

// NoopDecider is a fallback decider used when no vision model is configured
type NoopDecider struct{}

// NewNoopDecider returns a new instance that always decides no_trade
func NewNoopDecider() *NoopDecider {
	return &NoopDecider{}
}

// Decide implements the Decider interface. It never proposes a trade.
func (d *NoopDecider) Decide(ctx context.Context, in types.DecisionInput) (types.Decision, error) {
	logger.Debug(ctx, "Noop decider called - always returns no_trade", "symbol", in.Symbol)
	return types.Decision{
		Signal:  types.NoTrade,
		Reasons: []string{"noop_decider_fallback"},
	}, nil
}
