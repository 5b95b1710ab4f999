package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"smc-trading-bridge/internal/api"
	"smc-trading-bridge/internal/llm"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/store"
	"smc-trading-bridge/internal/types"
)

const generatePath = "/api/generate"

// Decider asks a local vision model served by Ollama for a verdict.
type Decider struct {
	client      *api.Client
	model       string
	system      string
	temperature float32
	rows        int
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func New(cfg *store.Config) *Decider {
	return &Decider{
		client: api.NewClient(
			api.WithBaseURL(cfg.LLM.Endpoint),
			api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
			api.WithLogging(true),
		),
		model:       cfg.LLM.Model,
		system:      cfg.LLM.System,
		temperature: cfg.LLM.Temperature,
		rows:        cfg.Analysis.PromptRows,
	}
}

func (d *Decider) Decide(ctx context.Context, in types.DecisionInput) (types.Decision, error) {
	req := generateRequest{
		Model:  d.model,
		Prompt: llm.BuildPrompt(in, d.rows, d.system),
		Stream: false,
	}
	if len(in.Chart) > 0 {
		req.Images = []string{base64.StdEncoding.EncodeToString(in.Chart)}
	}
	if d.temperature > 0 {
		req.Options = map[string]any{"temperature": d.temperature}
	}

	logger.Debug(ctx, "Sending chart to vision model", "model", d.model, "symbol", in.Symbol, "prompt_len", len(req.Prompt))

	resp, err := d.client.POST(ctx, generatePath, req)
	if err != nil {
		return types.Decision{}, errors.Wrap(err, "ollama generate")
	}

	var out generateResponse
	if err := resp.ParseJSON(&out); err != nil {
		return types.Decision{}, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return types.Decision{}, fmt.Errorf("%w: empty response", llm.ErrMalformedResponse)
	}
	return llm.ParseDecision(out.Response)
}
