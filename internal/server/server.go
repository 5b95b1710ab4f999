// Package server exposes the bridge over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"smc-trading-bridge/internal/broker/ctrader"
	"smc-trading-bridge/internal/engine"
	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/llm"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/metrics"
	"smc-trading-bridge/internal/store"
	"smc-trading-bridge/internal/trace"
)

// Server handles the REST API
type Server struct {
	cfg    *store.Config
	brk    interfaces.Broker
	eng    interfaces.Engine
	router *mux.Router
}

func New(cfg *store.Config, brk interfaces.Broker, eng interfaces.Engine) *Server {
	s := &Server{
		cfg:    cfg,
		brk:    brk,
		eng:    eng,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(observe)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/symbols", s.handleSymbols).Methods(http.MethodGet)
	api.HandleFunc("/candles", s.handleCandles).Methods(http.MethodGet)
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)

	api.HandleFunc("/execute_trade", s.handleExecuteTrade).Methods(http.MethodPost)
	api.HandleFunc("/positions/{id}/protection", s.handleProtection(s.brk.AmendPosition, "position")).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/protection", s.handleProtection(s.brk.AmendOrder, "order")).Methods(http.MethodPost)
	api.HandleFunc("/open_positions", s.handleOpenPositions).Methods(http.MethodGet)
	api.HandleFunc("/pending_orders", s.handlePendingOrders).Methods(http.MethodGet)

	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

// Handler is the router behind the CORS policy.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(s.router)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		ctx, span := trace.StartSpan(r.Context(), "http "+r.Method+" "+route)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Debug(ctx, "HTTP request served",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// statusFor maps the broker and decider error taxonomy onto HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ctrader.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, ctrader.ErrUnknownSymbol):
		return http.StatusNotFound
	case ctrader.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ctrader.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ctrader.ErrTransport), errors.Is(err, ctrader.ErrVenueRejected),
		errors.Is(err, llm.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, engine.ErrNoData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	respondError(w, status, http.StatusText(status), err.Error())
}
