package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "llm:\n  provider: NOOP\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Amend.Attempts)
	assert.Equal(t, 2.0, cfg.Amend.IntervalSeconds)
	assert.Equal(t, 25.0, cfg.Timeouts.OrderSeconds)
	assert.Equal(t, 5.0, cfg.Timeouts.ReconcileSeconds)
	assert.Equal(t, 5.0, cfg.Timeouts.PendingOrdersSeconds)
	assert.Equal(t, 10.0, cfg.Timeouts.BarsSeconds)
	assert.Equal(t, 10, cfg.Venue.HeartbeatSeconds)
	assert.Equal(t, "M5", cfg.Analysis.Timeframe)
	assert.Equal(t, 50, cfg.Analysis.PromptRows)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
server:
  addr: ":9090"
amend:
  attempts: 3
  interval_seconds: 0.5
timeouts:
  order_seconds: 12
llm:
  provider: OLLAMA
  model: llava:13b
`))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Amend.Attempts)
	assert.Equal(t, 500*time.Millisecond, Seconds(cfg.Amend.IntervalSeconds))
	assert.Equal(t, 12.0, cfg.Timeouts.OrderSeconds)
	assert.Equal(t, "llava:13b", cfg.LLM.Model)
}

func TestLoadConfigOpenAIDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "llm:\n  provider: openai\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.openai.com", cfg.LLM.Endpoint)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "llm:\n  provider: GPT\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("CTRADER_CLIENT_ID", "id")
	t.Setenv("CTRADER_CLIENT_SECRET", "secret")
	t.Setenv("CTRADER_ACCESS_TOKEN", "token")
	t.Setenv("CTRADER_ACCOUNT_ID", "42")
	t.Setenv("CTRADER_HOST_TYPE", "LIVE")

	creds, err := LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, int64(42), creds.AccountID)
	assert.True(t, creds.Live())

	cfg := &Config{}
	cfg.ApplyDefaults()
	assert.Equal(t, cfg.Venue.LiveURL, creds.Endpoint(cfg))
}

func TestCredentialsValidateListsMissing(t *testing.T) {
	c := &Credentials{HostType: "demo"}
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CTRADER_CLIENT_ID")
	assert.Contains(t, err.Error(), "CTRADER_ACCOUNT_ID")
}
