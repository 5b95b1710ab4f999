package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"smc-trading-bridge/internal/types"
)

var (
	mu  sync.Mutex
	dir string
)

// Entry is one order placement outcome.
type Entry struct {
	Time       string   `json:"time"`
	Symbol     string   `json:"symbol"`
	Side       string   `json:"side"`
	Kind       string   `json:"kind"`
	Volume     float64  `json:"volume"`
	EntryPrice *float64 `json:"entry_price,omitempty"`
	StopLoss   *float64 `json:"stop_loss,omitempty"`
	TakeProfit *float64 `json:"take_profit,omitempty"`
	Status     string   `json:"status"`
	Submitted  bool     `json:"submitted"`
	Detail     string   `json:"detail"`
	OrderID    int64    `json:"order_id,omitempty"`
	PositionID int64    `json:"position_id,omitempty"`
	Amended    bool     `json:"amended,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// DecisionEntry is one analysis verdict.
type DecisionEntry struct {
	Time       string                `json:"time"`
	Symbol     string                `json:"symbol"`
	Timeframe  string                `json:"timeframe"`
	Signal     string                `json:"signal"`
	Confidence *float64              `json:"confidence,omitempty"`
	StopLoss   *float64              `json:"stop_loss,omitempty"`
	TakeProfit *float64              `json:"take_profit,omitempty"`
	Reasons    []string              `json:"reasons,omitempty"`
	Features   types.FeatureSnapshot `json:"features,omitempty"`
}

// SetDir overrides the journal root. Empty restores the default.
func SetDir(d string) {
	mu.Lock()
	dir = d
	mu.Unlock()
}

// Dir is the journal root: SetDir, then JOURNAL_DIR, then "logs".
func Dir() string {
	mu.Lock()
	defer mu.Unlock()
	return logDir()
}

func logDir() string {
	if dir != "" {
		return dir
	}
	if v := os.Getenv("JOURNAL_DIR"); v != "" {
		return v
	}
	return "logs"
}

// OrdersFile is the order journal path for the UTC day of t.
func OrdersFile(root string, t time.Time) string {
	return filepath.Join(root, "orders", t.UTC().Format("2006-01-02")+".jsonl")
}

func decisionsFile(root string, t time.Time) string {
	return filepath.Join(root, "decisions", t.UTC().Format("2006-01-02")+".jsonl")
}

// EntryFromResult builds a journal line from a request and its outcome.
func EntryFromResult(req types.OrderRequest, res types.OrderResult) Entry {
	return Entry{
		Symbol:     req.Symbol,
		Side:       string(req.Direction),
		Kind:       string(req.Kind),
		Volume:     req.Volume,
		EntryPrice: req.EntryPrice,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		Status:     res.Status,
		Submitted:  res.Submitted,
		Detail:     res.Details.Status,
		OrderID:    res.Details.OrderID,
		PositionID: res.Details.PositionID,
		Amended:    res.Details.AmendedSLTP,
		Reason:     res.Reason,
	}
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format(time.RFC3339)
	return appendLine(OrdersFile(logDir(), now), e)
}

func AppendDecision(e DecisionEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format(time.RFC3339)
	return appendLine(decisionsFile(logDir(), now), e)
}

func appendLine(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files untouched for retentionDays.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := Dir()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, er := d.Info()
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// if already gz exists, remove original
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		if compressFile(p, gz) == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	_, err = io.Copy(gw, in)
	if cerr := gw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
