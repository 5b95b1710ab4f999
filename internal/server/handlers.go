package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"smc-trading-bridge/internal/broker/ctrader"
	"smc-trading-bridge/internal/engine"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/tradelog"
	"smc-trading-bridge/internal/types"
)

const (
	defaultCandles = 5000
	noDataNotice   = "No data available."
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.brk.Status()
	respondJSON(w, HealthResponse{
		Status:    "ok",
		Connected: st.Connected,
		Ready:     st.Ready,
		Stage:     st.Stage,
	})
}

// handleSymbols lists the loaded instrument names; empty until the
// directory arrives.
func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	var names []string
	if s.brk.Ready() {
		names = s.brk.Instruments(r.Context())
	}
	if names == nil {
		names = []string{}
	}
	respondJSON(w, names)
}

func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	symbol := strings.TrimSpace(q.Get("symbol"))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "Bad Request", "symbol is required")
		return
	}
	timeframe := q.Get("timeframe")
	if timeframe == "" {
		timeframe = s.cfg.Analysis.Timeframe
	}
	count := defaultCandles
	if v := q.Get("num_bars"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Bad Request", "num_bars must be a positive integer")
			return
		}
		count = n
	}

	bars, err := s.brk.HistoricalBars(r.Context(), symbol, timeframe, count)
	if err != nil {
		respondErr(w, err)
		return
	}

	out := CandlesResponse{
		Candles:    make([]Candle, len(bars)),
		Indicators: engine.Points(bars, engine.Series(bars, q["indicators"])),
	}
	for i, b := range bars {
		out.Candles[i] = Candle{Time: b.Time.Unix(), Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}
	respondJSON(w, out)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req types.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		respondError(w, http.StatusBadRequest, "Bad Request", "symbol is required")
		return
	}

	res, err := s.eng.Analyze(r.Context(), req)
	if errors.Is(err, engine.ErrNoData) {
		respondJSON(w, AnalysisResponse{Analysis: noDataNotice})
		return
	}
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, AnalysisResponse{Analysis: res})
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	req := types.OrderRequest{Kind: types.Market, Volume: 1.0}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	req.Direction = types.Side(strings.ToUpper(strings.TrimSpace(string(req.Direction))))
	req.Kind = types.OrderKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))

	res, err := s.brk.PlaceOrder(r.Context(), req)
	if err != nil && ctrader.IsValidation(err) {
		respondErr(w, err)
		return
	}

	if jerr := tradelog.Append(tradelog.EntryFromResult(req, res)); jerr != nil {
		logger.Warn(r.Context(), "Failed to journal order", "symbol", req.Symbol, "error", jerr)
	}
	respondJSON(w, res)
}

type amendFunc func(ctx context.Context, id int64, stopLoss, takeProfit *float64) error

// handleProtection sets SL/TP on whatever amend targets: an open position
// or a pending order.
func (s *Server) handleProtection(amend amendFunc, what string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Bad Request", what+" id must be an integer")
			return
		}
		var req ProtectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}

		if err := amend(r.Context(), id, req.StopLoss, req.TakeProfit); err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, StatusResponse{Status: types.StatusOK})
	}
}

func (s *Server) handleOpenPositions(w http.ResponseWriter, r *http.Request) {
	positions := s.brk.OpenPositions(r.Context())
	if positions == nil {
		positions = []types.Position{}
	}
	respondJSON(w, positions)
}

func (s *Server) handlePendingOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.brk.PendingOrders(r.Context())
	if orders == nil {
		orders = []types.PendingOrder{}
	}
	respondJSON(w, orders)
}
