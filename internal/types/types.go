package types

import "time"

// Side is the trade direction of an order or position.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Valid reports whether s is BUY or SELL.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// OrderKind is the closed set of order types the venue accepts.
type OrderKind string

const (
	Market OrderKind = "MARKET"
	Limit  OrderKind = "LIMIT"
	Stop   OrderKind = "STOP"
)

// Instrument is a tradable symbol as published by the venue.
type Instrument struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Digits int    `json:"digits"`
}

// Position is one open position as reported by the last reconciliation.
type Position struct {
	SymbolName string  `json:"symbol_name"`
	PositionID int64   `json:"position_id"`
	Direction  Side    `json:"direction"`
	EntryPrice float64 `json:"entry_price"`
	VolumeLots float64 `json:"volume_lots"`
}

// PendingOrder is a resting LIMIT or STOP order.
type PendingOrder struct {
	OrderID int64     `json:"order_id"`
	Symbol  string    `json:"symbol"`
	Kind    OrderKind `json:"type"`
	Side    Side      `json:"side"`
	Price   float64   `json:"price"`
	Volume  float64   `json:"volume"`
}

// OrderRequest is a placement request in human units.
// For MARKET orders StopLoss and TakeProfit are pip distances,
// for LIMIT and STOP orders they are absolute prices.
type OrderRequest struct {
	Symbol     string    `json:"symbol"`
	Direction  Side      `json:"action"`
	Kind       OrderKind `json:"order_type"`
	Volume     float64   `json:"volume"`
	EntryPrice *float64  `json:"entry_price,omitempty"`
	StopLoss   *float64  `json:"stop_loss,omitempty"`
	TakeProfit *float64  `json:"take_profit,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusOK      = "ok"
)

// OrderDetails carries the venue-side outcome of a placement.
type OrderDetails struct {
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	OrderID       int64  `json:"order_id,omitempty"`
	PositionID    int64  `json:"position_id,omitempty"`
	ExecutionType string `json:"execution_type,omitempty"`
	AmendedSLTP   bool   `json:"amended_sl_tp,omitempty"`
}

// OrderResult is the structured outcome of PlaceOrder.
type OrderResult struct {
	Status    string       `json:"status"`
	Submitted bool         `json:"submitted"`
	Reason    string       `json:"reason,omitempty"`
	Details   OrderDetails `json:"details"`
	Err       error        `json:"-"`
}

// Bar is one OHLC candle.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

type Signal string

const (
	Long    Signal = "long"
	Short   Signal = "short"
	NoTrade Signal = "no_trade"
)

// Decision is the verdict returned by a Decider.
type Decision struct {
	Signal     Signal   `json:"signal"`
	StopLoss   *float64 `json:"stop_loss"`
	TakeProfit *float64 `json:"take_profit"`
	Confidence *float64 `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// FeatureSnapshot maps a feature name to a bool, string or number.
type FeatureSnapshot map[string]any

// IndicatorPoint is one value of an indicator series.
type IndicatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// DecisionInput is everything a Decider sees for one analysis.
type DecisionInput struct {
	Symbol    string
	Timeframe string
	Chart     []byte
	Bars      []Bar
	Features  FeatureSnapshot
}

// ChartOverlay carries the market-structure annotations drawn on a chart.
type ChartOverlay struct {
	Structure   string
	FVG         string
	NearOB      bool
	Zone        string
	Equilibrium *float64
	Lines       map[string][]float64
}

// AnalysisRequest selects the market and overlays for an analysis run.
type AnalysisRequest struct {
	Symbol     string   `json:"symbol"`
	Timeframe  string   `json:"timeframe"`
	Indicators []string `json:"indicators"`
}

// Analysis is the result of one chart analysis run.
type Analysis struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Features  FeatureSnapshot `json:"features"`
	Decision  Decision        `json:"decision"`
	Bars      int             `json:"bars"`
}

// SessionStatus is the venue session health as seen by callers.
type SessionStatus struct {
	Connected   bool   `json:"connected"`
	Ready       bool   `json:"ready"`
	Stage       string `json:"stage"`
	Instruments int    `json:"instruments"`
}
