package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smc-trading-bridge/internal/llm"
	"smc-trading-bridge/internal/store"
	"smc-trading-bridge/internal/types"
)

func newDecider(t *testing.T, h http.HandlerFunc) *Decider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &store.Config{}
	cfg.LLM.Provider = "OLLAMA"
	cfg.LLM.Endpoint = srv.URL
	cfg.ApplyDefaults()
	return New(cfg)
}

func TestDecideSendsChartAndParsesReply(t *testing.T) {
	var got generateRequest
	d := newDecider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, generatePath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{
			Response: `{"signal":"short","sl":1.102,"tp":1.096,"confidence":0.6} Explanation: bearish CHoCH at premium`,
		})
	})

	chart := []byte{0x89, 'P', 'N', 'G'}
	dec, err := d.Decide(context.Background(), types.DecisionInput{Symbol: "EURUSD", Timeframe: "M5", Chart: chart})
	require.NoError(t, err)

	assert.Equal(t, "llava", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(chart), got.Images[0])
	assert.Contains(t, got.Prompt, "EURUSD")

	assert.Equal(t, types.Short, dec.Signal)
	assert.Equal(t, []string{"bearish CHoCH at premium"}, dec.Reasons)
}

func TestDecideMalformedReply(t *testing.T) {
	d := newDecider(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "I cannot tell."})
	})
	_, err := d.Decide(context.Background(), types.DecisionInput{Symbol: "EURUSD"})
	assert.ErrorIs(t, err, llm.ErrMalformedResponse)
}

func TestDecideEmptyReply(t *testing.T) {
	d := newDecider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":""}`))
	})
	_, err := d.Decide(context.Background(), types.DecisionInput{Symbol: "EURUSD"})
	assert.ErrorIs(t, err, llm.ErrMalformedResponse)
}

func TestDecideUpstreamError(t *testing.T) {
	d := newDecider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})
	_, err := d.Decide(context.Background(), types.DecisionInput{Symbol: "EURUSD"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, llm.ErrMalformedResponse)
}
