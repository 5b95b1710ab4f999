package ctrader

import "github.com/shopspring/decimal"

// Wire scale factors: prices are 1/100000 of a unit, volume is lots × 10^7.
var (
	priceFactor  = decimal.NewFromInt(100_000)
	volumeFactor = decimal.NewFromInt(10_000_000)
)

func PriceToWire(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(priceFactor).Round(0).IntPart()
}

func PriceFromWire(v int64) float64 {
	f, _ := decimal.NewFromInt(v).Div(priceFactor).Float64()
	return f
}

func LotsToWire(lots float64) int64 {
	return decimal.NewFromFloat(lots).Mul(volumeFactor).Round(0).IntPart()
}

func LotsFromWire(v int64) float64 {
	f, _ := decimal.NewFromInt(v).Div(volumeFactor).Float64()
	return f
}

// PipsToRelative converts a pip distance to relative wire units:
// pips × 10^(6 − digits).
func PipsToRelative(pips float64, digits int) int64 {
	return decimal.NewFromFloat(pips).Mul(decimal.New(1, int32(6-digits))).Round(0).IntPart()
}

// RelativeToPips is the inverse of PipsToRelative.
func RelativeToPips(rel int64, digits int) float64 {
	f, _ := decimal.NewFromInt(rel).Div(decimal.New(1, int32(6-digits))).Float64()
	return f
}

// protectiveLevels derives absolute wire SL/TP from an entry price and
// relative distances. Buys put the stop below entry, sells above.
func protectiveLevels(entryWire int64, buy bool, relSL, relTP *int64) (sl, tp *int64) {
	sign := int64(1)
	if !buy {
		sign = -1
	}
	if relSL != nil {
		v := entryWire - sign*(*relSL)
		sl = &v
	}
	if relTP != nil {
		v := entryWire + sign*(*relTP)
		tp = &v
	}
	return sl, tp
}
