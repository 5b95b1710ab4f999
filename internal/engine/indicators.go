package engine

import (
	"math"
	"strings"

	"smc-trading-bridge/internal/ta"
	"smc-trading-bridge/internal/types"
)

const (
	indicatorWindow  = 20
	vwapWindow       = 14
	bollingerK       = 2.0
	oscillatorWindow = 14
)

// Series keys, as returned by the candles endpoint.
const (
	KeySMA20   = "SMA_20"
	KeyEMA20   = "EMA_20"
	KeyVWAP    = "VWAP"
	KeyBBUpper = "BB_Upper"
	KeyBBLower = "BB_Lower"
	KeyRSI14   = "RSI_14"
	KeyATR14   = "ATR_14"
)

// priceScale reports whether a series shares the price axis and can be drawn
// over the candles.
func priceScale(key string) bool {
	return key != KeyRSI14 && key != KeyATR14
}

// indicatorKind maps a requested name to its family. Display names such as
// "SMA (20)" and "Bollinger Bands" are accepted alongside the series keys.
func indicatorKind(name string) string {
	n := strings.ToUpper(strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '(' || r == ')' || r == '_' || r == '-'
	}), ""))
	switch n {
	case "SMA20", "SMA":
		return KeySMA20
	case "EMA20", "EMA":
		return KeyEMA20
	case "VWAP":
		return KeyVWAP
	case "BOLLINGERBANDS", "BB", "BBUPPER", "BBLOWER", "BOLLINGER":
		return "BB"
	case "RSI14", "RSI":
		return KeyRSI14
	case "ATR14", "ATR":
		return KeyATR14
	default:
		return ""
	}
}

// Series computes the requested overlays, aligned with bars. Unknown names
// are ignored.
func Series(bars []types.Bar, names []string) map[string][]float64 {
	out := map[string][]float64{}
	if len(bars) == 0 {
		return out
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	vols := make([]float64, len(bars))
	for i, b := range bars {
		closes[i], highs[i], lows[i], vols[i] = b.Close, b.High, b.Low, float64(b.Volume)
	}

	for _, name := range names {
		switch indicatorKind(name) {
		case KeySMA20:
			out[KeySMA20] = ta.SMASeries(closes, indicatorWindow)
		case KeyEMA20:
			out[KeyEMA20] = ta.EMASeries(closes, indicatorWindow)
		case KeyVWAP:
			out[KeyVWAP] = ta.VWAPSeries(highs, lows, closes, vols, vwapWindow)
		case "BB":
			out[KeyBBUpper], out[KeyBBLower] = ta.BollingerSeries(closes, indicatorWindow, bollingerK)
		case KeyRSI14:
			out[KeyRSI14] = ta.RSISeries(closes, oscillatorWindow)
		case KeyATR14:
			out[KeyATR14] = ta.ATRSeries(highs, lows, closes, oscillatorWindow)
		}
	}
	return out
}

// Points turns aligned series into time/value pairs, skipping warmup gaps.
func Points(bars []types.Bar, series map[string][]float64) map[string][]types.IndicatorPoint {
	out := make(map[string][]types.IndicatorPoint, len(series))
	for key, vals := range series {
		pts := make([]types.IndicatorPoint, 0, len(vals))
		for i, v := range vals {
			if i >= len(bars) || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			pts = append(pts, types.IndicatorPoint{Time: bars[i].Time.Unix(), Value: v})
		}
		out[key] = pts
	}
	return out
}
