// Package ta computes the indicator values overlaid on charts and returned
// by the candles endpoint. Scalar functions evaluate the newest window only.
package ta

import "math"

// SMA is the mean of the last n values.
func SMA(vals []float64, n int) float64 {
	if n <= 0 || len(vals) < n {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals[len(vals)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// RSI uses simple averages of the last period close-to-close changes.
// A window without losses reads 100.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return math.NaN()
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		switch d := closes[i] - closes[i-1]; {
		case d > 0:
			gain += d
		case d < 0:
			loss -= d
		}
	}
	if loss == 0 {
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// StdDev is the population standard deviation of the last n values.
func StdDev(vals []float64, n int) float64 {
	m := SMA(vals, n)
	if math.IsNaN(m) {
		return m
	}
	ss := 0.0
	for _, v := range vals[len(vals)-n:] {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(n))
}

func Bollinger(closes []float64, n int, k float64) (mid, up, low float64) {
	mid = SMA(closes, n)
	band := k * StdDev(closes, n)
	return mid, mid + band, mid - band
}

// ATR averages the true range of the last period bars.
func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return math.NaN()
	}
	if period <= 0 || len(closes) < period+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		prev := closes[i-1]
		sum += math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
	}
	return sum / float64(period)
}
