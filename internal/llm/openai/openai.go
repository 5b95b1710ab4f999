package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"smc-trading-bridge/internal/api"
	"smc-trading-bridge/internal/llm"
	"smc-trading-bridge/internal/store"
	"smc-trading-bridge/internal/trace"
	"smc-trading-bridge/internal/types"
)

const completionsPath = "/v1/chat/completions"

// Decider talks to any OpenAI-compatible chat completions endpoint with vision input.
type Decider struct {
	client      *api.Client
	model       string
	system      string
	temperature float32
	rows        int
}

func New(cfg *store.Config) (*Decider, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}
	return &Decider{
		client: api.NewClient(
			api.WithBaseURL(cfg.LLM.Endpoint),
			api.WithTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second),
			api.WithHeader("Authorization", "Bearer "+apiKey),
			api.WithRetry(api.DefaultRetryConfig()),
		),
		model:       cfg.LLM.Model,
		system:      cfg.LLM.System,
		temperature: cfg.LLM.Temperature,
		rows:        cfg.Analysis.PromptRows,
	}, nil
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

func (d *Decider) Decide(ctx context.Context, in types.DecisionInput) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	parts := []contentPart{{Type: "text", Text: llm.BuildPrompt(in, d.rows, d.system)}}
	if len(in.Chart) > 0 {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(in.Chart)},
		})
	}
	body := map[string]any{
		"model":       d.model,
		"messages":    []message{{Role: "user", Content: parts}},
		"temperature": d.temperature,
	}

	resp, err := d.client.POST(ctx, completionsPath, body)
	if err != nil {
		return types.Decision{}, errors.Wrap(err, "openai chat completion")
	}

	var r struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := resp.ParseJSON(&r); err != nil {
		return types.Decision{}, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}
	if len(r.Choices) == 0 {
		return types.Decision{}, fmt.Errorf("%w: no choices", llm.ErrMalformedResponse)
	}

	return llm.ParseDecision(strings.TrimSpace(r.Choices[0].Message.Content))
}
