package eod

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"smc-trading-bridge/internal/types"
)

type eodSummarizer struct {
	mu   sync.Mutex
	done map[string]bool
}

// SummarizeDay aggregates the order journal of t's UTC day per symbol and
// writes a CSV with a trailing TOTAL row. It returns "" when there were no
// orders that day.
func (s *eodSummarizer) SummarizeDay(t time.Time) (string, error) {
	path, err := s.summarize(t)
	if err == nil {
		s.mu.Lock()
		s.done[dayKey(t)] = true
		s.mu.Unlock()
	}
	return path, err
}

func (s *eodSummarizer) summarize(t time.Time) (string, error) {
	f, err := os.Open(ordersFile(t))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*summaryRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ol orderLine
		if err := json.Unmarshal(sc.Bytes(), &ol); err != nil || ol.Symbol == "" {
			continue
		}
		row := aggs[ol.Symbol]
		if row == nil {
			row = &summaryRow{Symbol: ol.Symbol}
			aggs[ol.Symbol] = row
		}
		row.add(ol)
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]*summaryRow, 0, len(keys)+1)
	total := &summaryRow{Symbol: "TOTAL"}
	for _, k := range keys {
		r := aggs[k]
		r.NetLots = r.BuyLots - r.SellLots
		rows = append(rows, r)
		total.merge(r)
	}
	rows = append(rows, total)

	outPath := eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := gocsv.MarshalFile(&rows, out); err != nil {
		return "", err
	}
	return outPath, nil
}

func (s *eodSummarizer) SummarizeToday() (string, error) {
	return s.SummarizeDay(utcNow())
}

// Due is true once now passes the rollover, until that day has been
// summarized or its CSV already exists.
func (s *eodSummarizer) Due(now time.Time) bool {
	if !now.UTC().After(rolloverTime(now)) {
		return false
	}
	s.mu.Lock()
	done := s.done[dayKey(now)]
	s.mu.Unlock()
	if done {
		return false
	}
	_, err := os.Stat(eodCSVPath(now))
	return errors.Is(err, os.ErrNotExist)
}

func (r *summaryRow) add(ol orderLine) {
	r.Orders++
	if ol.Submitted {
		r.Submitted++
	}
	if ol.Status == types.StatusFailed {
		r.Failed++
	}
	if ol.Submitted && ol.Status == types.StatusSuccess {
		switch types.Side(ol.Side) {
		case types.Buy:
			r.BuyLots += ol.Volume
		case types.Sell:
			r.SellLots += ol.Volume
		}
	}
	if types.OrderKind(ol.Kind) == types.Market {
		r.Market++
	} else {
		r.Pending++
	}
	if ol.Amended {
		r.Amended++
	} else if ol.Status == types.StatusSuccess && ol.Detail == types.StatusFailed {
		r.Unamended++
	}
}

func (r *summaryRow) merge(o *summaryRow) {
	r.Orders += o.Orders
	r.Submitted += o.Submitted
	r.Failed += o.Failed
	r.BuyLots += o.BuyLots
	r.SellLots += o.SellLots
	r.NetLots += o.NetLots
	r.Market += o.Market
	r.Pending += o.Pending
	r.Amended += o.Amended
	r.Unamended += o.Unamended
}
