// Package llm holds the prompt and reply format shared by the vision deciders.
package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"smc-trading-bridge/internal/types"
)

// ErrMalformedResponse is returned when the model reply carries no usable verdict.
var ErrMalformedResponse = errors.New("llm: malformed response")

const explanationMarker = "Explanation:"

const defaultSystem = "You are a disciplined Smart Money Concepts trader. " +
	"Read the chart and the market-structure summary and decide whether to trade."

var jsonBlock = regexp.MustCompile(`(?s)\{.*?\}`)

// BuildPrompt renders the feature summary, the last rows bars and the reply format.
func BuildPrompt(in types.DecisionInput, rows int, system string) string {
	if system == "" {
		system = defaultSystem
	}

	var b strings.Builder
	b.WriteString(system)
	fmt.Fprintf(&b, "\n\nThe attached image is a %s candlestick chart of %s.\n\n", in.Timeframe, in.Symbol)

	b.WriteString("SMC summary:\n")
	keys := make([]string, 0, len(in.Features))
	for k, v := range in.Features {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		b.WriteString("No strong SMC features detected.\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, in.Features[k])
	}

	bars := in.Bars
	if rows > 0 && len(bars) > rows {
		bars = bars[len(bars)-rows:]
	}
	b.WriteString("\nRecent OHLC data:\ntime,open,high,low,close\n")
	for _, bar := range bars {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n",
			bar.Time.UTC().Format("2006-01-02 15:04"),
			num(bar.Open), num(bar.High), num(bar.Low), num(bar.Close))
	}

	b.WriteString("\nRespond with a JSON object in exactly this format:\n")
	b.WriteString(`{"signal": "long" | "short" | "no_trade", "sl": <price or null>, "tp": <price or null>, "confidence": <0.0 to 1.0>}`)
	b.WriteString("\nThen write \"" + explanationMarker + "\" followed by your reasoning.\n")
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseDecision extracts the first JSON object of a reply and the explanation after it.
func ParseDecision(text string) (types.Decision, error) {
	loc := jsonBlock.FindStringIndex(text)
	if loc == nil {
		return types.Decision{}, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(text[loc[0]:loc[1]]), &raw); err != nil {
		return types.Decision{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	d := types.Decision{
		Signal:     normalizeSignal(raw["signal"]),
		StopLoss:   number(raw["sl"]),
		TakeProfit: number(raw["tp"]),
		Confidence: number(raw["confidence"]),
		Reasons:    []string{},
	}
	if d.Confidence != nil && (*d.Confidence < 0 || *d.Confidence > 1) {
		d.Confidence = nil
	}

	rest := strings.TrimSpace(text[loc[1]:])
	if i := strings.Index(rest, explanationMarker); i >= 0 {
		rest = rest[i+len(explanationMarker):]
	}
	for _, line := range strings.Split(rest, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			d.Reasons = append(d.Reasons, line)
		}
	}
	return d, nil
}

func normalizeSignal(v any) types.Signal {
	s, _ := v.(string)
	switch types.Signal(strings.ToLower(strings.TrimSpace(s))) {
	case types.Long:
		return types.Long
	case types.Short:
		return types.Short
	default:
		return types.NoTrade
	}
}

func number(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
