package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Venue struct {
		LiveURL          string `yaml:"live_url"`
		DemoURL          string `yaml:"demo_url"`
		HeartbeatSeconds int    `yaml:"heartbeat_seconds"`
		HandshakeSeconds int    `yaml:"handshake_seconds"`
	} `yaml:"venue"`
	Timeouts struct {
		OrderSeconds         float64 `yaml:"order_seconds"`
		AmendSeconds         float64 `yaml:"amend_seconds"`
		ReconcileSeconds     float64 `yaml:"reconcile_seconds"`
		PendingOrdersSeconds float64 `yaml:"pending_orders_seconds"`
		BarsSeconds          float64 `yaml:"bars_seconds"`
	} `yaml:"timeouts"`
	Amend struct {
		Attempts        int     `yaml:"attempts"`
		IntervalSeconds float64 `yaml:"interval_seconds"`
	} `yaml:"amend"`
	Analysis struct {
		Timeframe  string   `yaml:"timeframe"`
		Bars       int      `yaml:"bars"`
		PromptRows int      `yaml:"prompt_rows"`
		Indicators []string `yaml:"indicators"`
	} `yaml:"analysis"`
	Chart struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"chart"`
	LLM struct {
		Provider       string  `yaml:"provider"`
		Endpoint       string  `yaml:"endpoint"`
		Model          string  `yaml:"model"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		Temperature    float32 `yaml:"temperature"`
		System         string  `yaml:"system"`
	} `yaml:"llm"`
	Journal struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"journal"`
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if c.Amend.Attempts < 1 {
		return fmt.Errorf("amend.attempts must be at least 1, got %d", c.Amend.Attempts)
	}
	if c.Amend.IntervalSeconds < 0 {
		return fmt.Errorf("amend.interval_seconds must not be negative, got %.2f", c.Amend.IntervalSeconds)
	}
	for name, v := range map[string]float64{
		"order_seconds":          c.Timeouts.OrderSeconds,
		"amend_seconds":          c.Timeouts.AmendSeconds,
		"reconcile_seconds":      c.Timeouts.ReconcileSeconds,
		"pending_orders_seconds": c.Timeouts.PendingOrdersSeconds,
		"bars_seconds":           c.Timeouts.BarsSeconds,
	} {
		if v <= 0 {
			return fmt.Errorf("timeouts.%s must be positive, got %.2f", name, v)
		}
	}
	switch strings.ToUpper(c.LLM.Provider) {
	case "OLLAMA", "OPENAI", "NOOP":
	default:
		return fmt.Errorf("llm.provider must be 'OLLAMA', 'OPENAI' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	return nil
}

// ApplyDefaults fills every unset tunable.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Venue.LiveURL == "" {
		c.Venue.LiveURL = "wss://live.ctraderapi.com:5036"
	}
	if c.Venue.DemoURL == "" {
		c.Venue.DemoURL = "wss://demo.ctraderapi.com:5036"
	}
	if c.Venue.HeartbeatSeconds == 0 {
		c.Venue.HeartbeatSeconds = 10
	}
	if c.Venue.HandshakeSeconds == 0 {
		c.Venue.HandshakeSeconds = 15
	}
	if c.Timeouts.OrderSeconds == 0 {
		c.Timeouts.OrderSeconds = 25
	}
	if c.Timeouts.AmendSeconds == 0 {
		c.Timeouts.AmendSeconds = 12
	}
	if c.Timeouts.ReconcileSeconds == 0 {
		c.Timeouts.ReconcileSeconds = 5
	}
	if c.Timeouts.PendingOrdersSeconds == 0 {
		c.Timeouts.PendingOrdersSeconds = 5
	}
	if c.Timeouts.BarsSeconds == 0 {
		c.Timeouts.BarsSeconds = 10
	}
	if c.Amend.Attempts == 0 {
		c.Amend.Attempts = 5
	}
	if c.Amend.IntervalSeconds == 0 {
		c.Amend.IntervalSeconds = 2
	}
	if c.Analysis.Timeframe == "" {
		c.Analysis.Timeframe = "M5"
	}
	if c.Analysis.Bars == 0 {
		c.Analysis.Bars = 500
	}
	if c.Analysis.PromptRows == 0 {
		c.Analysis.PromptRows = 50
	}
	if c.Chart.Width == 0 {
		c.Chart.Width = 800
	}
	if c.Chart.Height == 0 {
		c.Chart.Height = 400
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NOOP"
	}
	if c.LLM.Endpoint == "" {
		c.LLM.Endpoint = "http://localhost:11434"
		if strings.EqualFold(c.LLM.Provider, "OPENAI") {
			c.LLM.Endpoint = "https://api.openai.com"
		}
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llava"
		if strings.EqualFold(c.LLM.Provider, "OPENAI") {
			c.LLM.Model = "gpt-4o-mini"
		}
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 120
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "logs"
	}
}

// Seconds converts a fractional seconds setting to a duration.
func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
