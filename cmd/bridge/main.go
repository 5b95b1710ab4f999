package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smc-trading-bridge/internal/eod"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/server"
	"smc-trading-bridge/internal/trace"
)

const shutdownGrace = 10 * time.Second

func main() {
	os.Exit(run())
}

// run returns the process exit code.
func run() int {
	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, creds, err := loadConfig(ctx)
	if err != nil {
		return 1
	}
	compressOldLogs(ctx, cfg)

	brk := initializeBroker(ctx, cfg, creds)
	decider, err := initializeDecider(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize decider", err)
		return 1
	}
	eng := initializeEngine(cfg, brk, decider)

	if err := brk.Start(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Failed to start venue session", err)
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(cfg, brk, eng).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	eodTick := time.NewTicker(60 * time.Second)
	defer eodTick.Stop()

	logger.Info(ctx, "Bridge started")
	code := 0
loop:
	for {
		select {
		case now := <-eodTick.C:
			if eod.Due(now) {
				if _, err := eod.SummarizeDay(now); err != nil {
					logger.Warn(ctx, "EOD summary failed", "error", err)
				}
			}
		case err, ok := <-serveErr:
			if ok && err != nil {
				logger.ErrorWithErr(ctx, "HTTP server failed", err)
				code = 1
			}
			break loop
		case sig := <-sigc:
			logger.Info(ctx, "Shutting down", "signal", sig.String())
			break loop
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownGrace)
	defer stop()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "HTTP server shutdown incomplete", "error", err)
	}
	brk.Stop(shutdownCtx)
	if _, err := eod.SummarizeToday(); err != nil {
		logger.Warn(shutdownCtx, "EOD summary failed", "error", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "Tracer shutdown failed", "error", err)
	}
	return code
}
