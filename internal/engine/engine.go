package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/smc"
	"smc-trading-bridge/internal/store"
	"smc-trading-bridge/internal/tradelog"
	"smc-trading-bridge/internal/types"
)

// ErrNoData is returned when the venue has no bars for the request.
var ErrNoData = errors.New("no data available")

type Engine struct {
	cfg     *store.Config
	brk     interfaces.Broker
	decider interfaces.Decider
	chart   interfaces.ChartRenderer
}

func newEngine(cfg *store.Config, brk interfaces.Broker, d interfaces.Decider, r interfaces.ChartRenderer) *Engine {
	return &Engine{cfg: cfg, brk: brk, decider: d, chart: r}
}

// Analyze fetches bars, derives the structure snapshot, renders the chart and
// asks the decider for a verdict. Every verdict is journaled.
func (e *Engine) Analyze(ctx context.Context, req types.AnalysisRequest) (*types.Analysis, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = e.cfg.Analysis.Timeframe
	}
	indicators := req.Indicators
	if indicators == nil {
		indicators = e.cfg.Analysis.Indicators
	}

	logger.Debug(ctx, "Starting analysis", "symbol", symbol, "timeframe", timeframe, "indicators", indicators)

	bars, err := e.brk.HistoricalBars(ctx, symbol, timeframe, e.cfg.Analysis.Bars)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch bars", err, "symbol", symbol, "timeframe", timeframe)
		return nil, err
	}
	if len(bars) == 0 {
		logger.Warn(ctx, "No bars returned", "symbol", symbol, "timeframe", timeframe)
		return nil, ErrNoData
	}
	logger.Debug(ctx, "Bars fetched successfully", "symbol", symbol, "count", len(bars))

	features := smc.Snapshot(bars)
	overlay := overlayFor(bars, features, Series(bars, indicators))

	png, err := e.chart.Render(bars, overlay)
	if err != nil {
		logger.ErrorWithErr(ctx, "Chart rendering failed", err, "symbol", symbol)
		return nil, fmt.Errorf("render chart: %w", err)
	}

	decision, err := e.decider.Decide(ctx, types.DecisionInput{
		Symbol:    symbol,
		Timeframe: timeframe,
		Chart:     png,
		Bars:      bars,
		Features:  features,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Decision failed", err, "symbol", symbol)
		return nil, err
	}

	if err := tradelog.AppendDecision(tradelog.DecisionEntry{
		Symbol:     symbol,
		Timeframe:  timeframe,
		Signal:     string(decision.Signal),
		Confidence: decision.Confidence,
		StopLoss:   decision.StopLoss,
		TakeProfit: decision.TakeProfit,
		Reasons:    decision.Reasons,
		Features:   features,
	}); err != nil {
		logger.Warn(ctx, "Failed to journal decision", "symbol", symbol, "error", err)
	}

	return &types.Analysis{
		Symbol:    symbol,
		Timeframe: timeframe,
		Features:  features,
		Decision:  decision,
		Bars:      len(bars),
	}, nil
}

func overlayFor(bars []types.Bar, features types.FeatureSnapshot, lines map[string][]float64) types.ChartOverlay {
	ov := types.ChartOverlay{Lines: map[string][]float64{}}
	for key, series := range lines {
		if priceScale(key) {
			ov.Lines[key] = series
		}
	}
	ov.Structure, _ = features[smc.FeatureStructure].(string)
	ov.FVG, _ = features[smc.FeatureFVG].(string)
	ov.Zone, _ = features[smc.FeatureZone].(string)
	ov.NearOB = features[smc.FeatureOrderBlock] != nil
	if mid, ok := smc.Equilibrium(bars); ok {
		ov.Equilibrium = &mid
	}
	return ov
}
