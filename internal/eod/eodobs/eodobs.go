package eodobs

import (
	"context"
	"time"

	"smc-trading-bridge/internal/interfaces"
	"smc-trading-bridge/internal/logger"
	"smc-trading-bridge/internal/trace"
)

type observableEodSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableEodSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableEodSummarizer{
		summarizer: summarizer,
	}
}

func (oes *observableEodSummarizer) summarize(span string, day string, fn func() (string, error)) (string, error) {
	ctx, s := trace.StartSpan(context.Background(), span)
	defer s.End()

	op := logger.StartOperation(ctx, span, "date", day)
	csvPath, err := fn()
	if err != nil {
		op.EndWithError(err)
		return "", err
	}
	if csvPath == "" {
		logger.InfoSkip(ctx, 2, "No orders journaled, skipping EOD summary", "date", day)
		op.End("written", false)
		return "", nil
	}
	op.End("written", true, "csv_path", csvPath)
	return csvPath, nil
}

func (oes *observableEodSummarizer) SummarizeDay(t time.Time) (string, error) {
	return oes.summarize("eod.SummarizeDay", t.UTC().Format("2006-01-02"), func() (string, error) {
		return oes.summarizer.SummarizeDay(t)
	})
}

func (oes *observableEodSummarizer) SummarizeToday() (string, error) {
	return oes.summarize("eod.SummarizeToday", time.Now().UTC().Format("2006-01-02"), oes.summarizer.SummarizeToday)
}

func (oes *observableEodSummarizer) Due(now time.Time) bool {
	due := oes.summarizer.Due(now)
	if due {
		logger.DebugSkip(context.Background(), 1, "EOD summary due", "date", now.UTC().Format("2006-01-02"))
	}
	return due
}
