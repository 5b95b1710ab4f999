package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"smc-trading-bridge/internal/broker/brokerobs"
	"smc-trading-bridge/internal/broker/ctrader"
	"smc-trading-bridge/internal/chart"
	"smc-trading-bridge/internal/engine"
	"smc-trading-bridge/internal/engine/engineobs"
	"smc-trading-bridge/internal/eod"
	"smc-trading-bridge/internal/eod/eodobs"
	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/llm/llmobs"
	"smc-trading-bridge/internal/llm/noop"
	"smc-trading-bridge/internal/llm/ollama"
	"smc-trading-bridge/internal/llm/openai"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/store"
	"smc-trading-bridge/internal/trace"
	"smc-trading-bridge/internal/tradelog"
)

// initializeSystem initializes logger, tracer, and EOD summarizer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	initializeEOD()
	return nil
}

// loadConfig loads the tunables file and the venue credentials
func loadConfig(ctx context.Context) (*store.Config, *store.Credentials, error) {
	path := os.Getenv("BRIDGE_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, nil, err
	}
	creds, err := store.LoadCredentials()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load venue credentials", err)
		return nil, nil, err
	}
	tradelog.SetDir(cfg.Journal.Dir)
	return cfg, creds, nil
}

// compressOldLogs compresses journal files past the retention window
func compressOldLogs(ctx context.Context, cfg *store.Config) {
	if err := tradelog.CompressOlder(cfg.Journal.RetentionDays); err != nil {
		logger.Warn(ctx, "Failed to compress old logs", "error", err)
	}
}

// initializeBroker creates the venue client with observability
func initializeBroker(ctx context.Context, cfg *store.Config, creds *store.Credentials) interfaces.Broker {
	p := ctrader.ParamsFromConfig(cfg, creds)
	logger.Info(ctx, "Connecting to venue",
		"endpoint", p.Endpoint,
		"account_id", p.AccountID,
		"live", creds.Live(),
	)
	if creds.Live() {
		logger.Warn(ctx, "LIVE venue selected - orders are real")
	}
	return brokerobs.Wrap(ctrader.New(p))
}

// initializeDecider picks the vision model backend with observability
func initializeDecider(ctx context.Context, cfg *store.Config) (interfaces.Decider, error) {
	var decider interfaces.Decider

	switch strings.ToUpper(cfg.LLM.Provider) {
	case "OLLAMA":
		decider = ollama.New(cfg)
		logger.Info(ctx, "Using Ollama decider", "endpoint", cfg.LLM.Endpoint, "model", cfg.LLM.Model)
	case "OPENAI":
		d, err := openai.New(cfg)
		if err != nil {
			return nil, err
		}
		decider = d
		logger.Info(ctx, "Using OpenAI-compatible decider", "endpoint", cfg.LLM.Endpoint, "model", cfg.LLM.Model)
	default:
		decider = noop.NewNoopDecider()
		logger.Warn(ctx, "No LLM provider configured - using Noop decider (always no_trade)")
	}

	return llmobs.Wrap(decider), nil
}

// initializeEngine builds the analysis pipeline with observability
func initializeEngine(cfg *store.Config, brk interfaces.Broker, decider interfaces.Decider) interfaces.Engine {
	renderer := chart.New(cfg.Chart.Width, cfg.Chart.Height)
	return engineobs.Wrap(engine.New(cfg, brk, decider, renderer))
}

// initializeEOD wraps the default EOD summarizer with observability
func initializeEOD() {
	eod.Use(eodobs.Wrap(eod.NewSummarizer()))
}
