package ta

import "math"

// Series variants return one value per input element; positions before the
// window is full hold NaN.

func SMASeries(vals []float64, n int) []float64 {
	out := nanSeries(len(vals))
	if n <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= n {
			sum -= vals[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// EMASeries seeds with the first value (no bias adjustment) and uses
// alpha = 2/(n+1).
func EMASeries(vals []float64, n int) []float64 {
	out := nanSeries(len(vals))
	if n <= 0 || len(vals) == 0 {
		return out
	}
	alpha := 2.0 / float64(n+1)
	ema := vals[0]
	for i, v := range vals {
		if i > 0 {
			ema = alpha*v + (1-alpha)*ema
		}
		if i >= n-1 {
			out[i] = ema
		}
	}
	return out
}

func EMA(vals []float64, n int) float64 {
	s := EMASeries(vals, n)
	if len(s) == 0 {
		return math.NaN()
	}
	return s[len(s)-1]
}

// VWAPSeries is a rolling volume-weighted typical price over n bars.
func VWAPSeries(highs, lows, closes, volumes []float64, n int) []float64 {
	out := nanSeries(len(closes))
	if n <= 0 || len(highs) != len(closes) || len(lows) != len(closes) || len(volumes) != len(closes) {
		return out
	}
	pv, vol := 0.0, 0.0
	for i := range closes {
		tp := (highs[i] + lows[i] + closes[i]) / 3
		pv += tp * volumes[i]
		vol += volumes[i]
		if i >= n {
			j := i - n
			pv -= (highs[j] + lows[j] + closes[j]) / 3 * volumes[j]
			vol -= volumes[j]
		}
		if i >= n-1 && vol > 0 {
			out[i] = pv / vol
		}
	}
	return out
}

// BollingerSeries returns the upper and lower bands using the population
// standard deviation.
func BollingerSeries(closes []float64, n int, k float64) (up, low []float64) {
	up, low = nanSeries(len(closes)), nanSeries(len(closes))
	if n <= 0 {
		return up, low
	}
	for i := n - 1; i < len(closes); i++ {
		_, u, l := Bollinger(closes[:i+1], n, k)
		up[i], low[i] = u, l
	}
	return up, low
}

func RSISeries(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	for i := period; period > 0 && i < len(closes); i++ {
		out[i] = RSI(closes[:i+1], period)
	}
	return out
}

func ATRSeries(highs, lows, closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	for i := period; period > 0 && i < len(closes); i++ {
		out[i] = ATR(highs[:i+1], lows[:i+1], closes[:i+1], period)
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
