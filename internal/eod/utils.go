package eod

import (
	"path/filepath"
	"time"

	"smc-trading-bridge/internal/tradelog"
)

// The trading day closes at 21:05 UTC, just after the 5pm New York
// rollover in summer time.
const (
	rolloverHour   = 21
	rolloverMinute = 5
)

func utcNow() time.Time {
	return time.Now().UTC()
}

func ordersFile(t time.Time) string {
	return tradelog.OrdersFile(tradelog.Dir(), t)
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func eodCSVPath(t time.Time) string {
	return filepath.Join(tradelog.Dir(), "eod", dayKey(t)+".csv")
}

func rolloverTime(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), rolloverHour, rolloverMinute, 0, 0, time.UTC)
}
