package interfaces

import (
	"context"

	"smc-trading-bridge/internal/types"
)

type Decider interface {
	Decide(ctx context.Context, in types.DecisionInput) (types.Decision, error)
}
