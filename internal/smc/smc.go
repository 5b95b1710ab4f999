// Package smc extracts Smart Money Concepts market-structure features from
// an OHLC window.
package smc

import (
	"math"

	"smc-trading-bridge/internal/types"
)

const (
	StructureLookback = 5
	ZoneWindow        = 50
	ZoneBuffer        = 0.01
	OrderBlockWindow  = 20
	OrderBlockNearPct = 0.015
	TrendWindow       = 20
)

// Feature names in the snapshot.
const (
	FeatureStructure  = "bos_choch"
	FeatureZone       = "zone"
	FeatureFVG        = "fvg"
	FeatureOrderBlock = "ob"
	FeatureTrend      = "trend_strength"
	FeatureClose      = "close"
)

// Structure reports the newest break of structure or change of character:
// bullish_BOS, bearish_BOS, bullish_CHOCH, bearish_CHOCH or "".
// A BOS takes precedence over a CHoCH.
func Structure(bars []types.Bar, lookback int) string {
	n := len(bars)
	if lookback <= 0 || n < lookback+2 {
		return ""
	}
	hhNow, llNow := extremes(bars[n-lookback:])
	hhPrev, llPrev := extremes(bars[n-1-lookback : n-1])
	closeNow, closePrev := bars[n-1].Close, bars[n-2].Close

	bos := ""
	if hhNow > hhPrev && closeNow > hhPrev {
		bos = "bullish_BOS"
	}
	if llNow < llPrev && closeNow < llPrev {
		bos = "bearish_BOS"
	}
	if bos != "" {
		return bos
	}

	choch := ""
	if closeNow < llPrev && closePrev > llPrev {
		choch = "bearish_CHOCH"
	}
	if closeNow > hhPrev && closePrev < hhPrev {
		choch = "bullish_CHOCH"
	}
	return choch
}

// Zone places the last close in the premium, discount or equilibrium band
// of the last 50 bars' swing range. Empty when fewer than 50 bars.
func Zone(bars []types.Bar) string {
	if len(bars) < ZoneWindow {
		return ""
	}
	hi, lo := extremes(bars[len(bars)-ZoneWindow:])
	mid := (hi + lo) / 2
	upper := mid + ZoneBuffer*(hi-lo)
	lower := mid - ZoneBuffer*(hi-lo)
	c := bars[len(bars)-1].Close
	switch {
	case c > upper:
		return "premium"
	case c < lower:
		return "discount"
	default:
		return "equilibrium"
	}
}

// Equilibrium is the midpoint of the zone window, ok false when too short.
func Equilibrium(bars []types.Bar) (float64, bool) {
	if len(bars) < ZoneWindow {
		return 0, false
	}
	hi, lo := extremes(bars[len(bars)-ZoneWindow:])
	return (hi + lo) / 2, true
}

// FairValueGap compares the last bar with the one two bars back.
func FairValueGap(bars []types.Bar) string {
	n := len(bars)
	if n < 3 {
		return ""
	}
	c0, c2 := bars[n-1], bars[n-3]
	switch {
	case c0.Low > c2.High:
		return "bullish_FVG"
	case c0.High < c2.Low:
		return "bearish_FVG"
	}
	return ""
}

// NearOrderBlock reports whether the last close is within 1.5% of the
// 20-bar high or low.
func NearOrderBlock(bars []types.Bar) bool {
	if len(bars) < OrderBlockWindow {
		return false
	}
	hi, lo := extremes(bars[len(bars)-OrderBlockWindow:])
	c := bars[len(bars)-1].Close
	if c == 0 {
		return false
	}
	return math.Abs(c-hi)/c < OrderBlockNearPct || math.Abs(c-lo)/c < OrderBlockNearPct
}

// TrendStrength counts rising 3-bar highs minus falling 3-bar lows across
// the window. Zero when fewer than window+3 bars.
func TrendStrength(bars []types.Bar, window int) int {
	if len(bars) < window+3 {
		return 0
	}
	count := 0
	var prevHi, prevLo float64
	for i := 2; i < len(bars); i++ {
		hi, lo := extremes(bars[i-2 : i+1])
		if i > 2 {
			if hi > prevHi {
				count++
			}
			if lo < prevLo {
				count--
			}
		}
		prevHi, prevLo = hi, lo
	}
	return count
}

// Snapshot builds the feature map handed to the decider. Absent features
// are nil.
func Snapshot(bars []types.Bar) types.FeatureSnapshot {
	snap := types.FeatureSnapshot{
		FeatureStructure:  nilIfEmpty(Structure(bars, StructureLookback)),
		FeatureZone:       nilIfEmpty(Zone(bars)),
		FeatureFVG:        nilIfEmpty(FairValueGap(bars)),
		FeatureOrderBlock: nil,
		FeatureTrend:      TrendStrength(bars, TrendWindow),
		FeatureClose:      nil,
	}
	if NearOrderBlock(bars) {
		snap[FeatureOrderBlock] = "near_OB"
	}
	if len(bars) > 0 {
		snap[FeatureClose] = math.Round(bars[len(bars)-1].Close*1e5) / 1e5
	}
	return snap
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func extremes(bars []types.Bar) (hi, lo float64) {
	hi, lo = math.Inf(-1), math.Inf(1)
	for _, b := range bars {
		hi = math.Max(hi, b.High)
		lo = math.Min(lo, b.Low)
	}
	return hi, lo
}
