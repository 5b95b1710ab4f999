package eod

import (
	"sync"
	"time"

	"smc-trading-bridge/internal/interfaces"
)

var (
	mu      sync.RWMutex
	current interfaces.EodSummarizer = NewSummarizer()
)

// Use replaces the package summarizer, typically with an observed one.
func Use(s interfaces.EodSummarizer) {
	mu.Lock()
	current = s
	mu.Unlock()
}

func NewSummarizer() interfaces.EodSummarizer {
	return &eodSummarizer{done: map[string]bool{}}
}

func get() interfaces.EodSummarizer {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func SummarizeDay(day time.Time) (string, error) { return get().SummarizeDay(day) }

func SummarizeToday() (string, error) { return get().SummarizeToday() }

func Due(now time.Time) bool { return get().Due(now) }
