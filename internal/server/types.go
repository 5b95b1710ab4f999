package server

import "smc-trading-bridge/internal/types"

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Ready     bool   `json:"ready"`
	Stage     string `json:"stage"`
}

// Candle is a bar with a unix-seconds timestamp, as charting frontends expect.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type CandlesResponse struct {
	Candles    []Candle                          `json:"candles"`
	Indicators map[string][]types.IndicatorPoint `json:"indicators"`
}

// AnalysisResponse carries either an analysis or the "No data available." notice.
type AnalysisResponse struct {
	Analysis any `json:"analysis"`
}

type ProtectionRequest struct {
	StopLoss   *float64 `json:"stop_loss"`
	TakeProfit *float64 `json:"take_profit"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
