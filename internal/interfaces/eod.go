package interfaces

import "time"

// EodSummarizer turns a day of the order journal into a CSV summary.
// An empty path means there was nothing to summarize.
type EodSummarizer interface {
	SummarizeDay(day time.Time) (csvPath string, err error)
	SummarizeToday() (csvPath string, err error)
	// Due reports whether now is past the rollover of a day that has not
	// been summarized yet.
	Due(now time.Time) bool
}
