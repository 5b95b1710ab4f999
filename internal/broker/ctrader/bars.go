package ctrader

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"smc-trading-bridge/internal/types"
)

type period struct {
	wire int
	span time.Duration
}

var periods = map[string]period{
	"M1":  {1, time.Minute},
	"M2":  {2, 2 * time.Minute},
	"M3":  {3, 3 * time.Minute},
	"M4":  {4, 4 * time.Minute},
	"M5":  {5, 5 * time.Minute},
	"M10": {6, 10 * time.Minute},
	"M15": {7, 15 * time.Minute},
	"M30": {8, 30 * time.Minute},
	"H1":  {9, time.Hour},
	"H4":  {10, 4 * time.Hour},
	"H12": {11, 12 * time.Hour},
	"D1":  {12, 24 * time.Hour},
	"W1":  {13, 7 * 24 * time.Hour},
	"MN1": {14, 30 * 24 * time.Hour},
}

const maxBarsWindow = 52 * 7 * 24 * time.Hour

// Timeframes lists the accepted timeframe names.
func Timeframes() []string {
	out := make([]string, 0, len(periods))
	for k := range periods {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return periods[out[i]].wire < periods[out[j]].wire })
	return out
}

// barsWindow is three times the requested span, to ride over weekends and
// sessions without quotes, capped at 52 weeks.
func barsWindow(p period, count int) time.Duration {
	if count <= 0 || int64(count) > int64(maxBarsWindow/(3*p.span)) {
		return maxBarsWindow
	}
	return time.Duration(count) * p.span * 3
}

// HistoricalBars returns up to count most recent trendbars, oldest first.
func (c *Client) HistoricalBars(ctx context.Context, symbol, timeframe string, count int) ([]types.Bar, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: bar count must be positive", ErrInvalidRequest)
	}
	p, ok := periods[strings.ToUpper(timeframe)]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownTimeframe, timeframe)
	}
	inst, err := c.directory.Resolve(symbol)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	from := now.Add(-barsWindow(p, count))
	res := Await(ctx, c.send.Send(PayloadGetTrendbarsReq, getTrendbarsReq{
		AccountID:     c.p.AccountID,
		SymbolID:      inst.ID,
		Period:        p.wire,
		FromTimestamp: from.UnixMilli(),
		ToTimestamp:   now.UnixMilli(),
	}), c.p.BarsTimeout)

	var tb getTrendbarsRes
	if err := res.Decode(&tb); err != nil {
		return nil, fmt.Errorf("trendbars for %s %s: %w", inst.Name, timeframe, err)
	}

	bars := make([]types.Bar, 0, len(tb.Trendbar))
	for _, b := range tb.Trendbar {
		bars = append(bars, barFromWire(b))
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

func barFromWire(b wireTrendbar) types.Bar {
	return types.Bar{
		Time:   time.Unix(b.UTCTimestampInMinutes*60, 0).UTC(),
		Open:   PriceFromWire(b.Low + b.DeltaOpen),
		High:   PriceFromWire(b.Low + b.DeltaHigh),
		Low:    PriceFromWire(b.Low),
		Close:  PriceFromWire(b.Low + b.DeltaClose),
		Volume: b.Volume,
	}
}
