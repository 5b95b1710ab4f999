package engine

import (
	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/store"
)

func New(cfg *store.Config, brk interfaces.Broker, d interfaces.Decider, r interfaces.ChartRenderer) interfaces.Engine {
	return newEngine(cfg, brk, d, r)
}
