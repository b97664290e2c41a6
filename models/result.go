package models

import "time"

// TimestampLayout formats a run timestamp as YYYYMMDDHHMMSS.
const TimestampLayout = "20060102150405"

// RunTimestamp returns the identifier used to namespace one run's output files.
func RunTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// RunResult holds the overall result of a crawl, scrape, or selector listing.
type RunResult struct {
	Mode         string
	Timestamp    string
	StartTime    time.Time
	EndTime      time.Time
	PageCount    int
	RecordCount  int
	LinkCount    int
	Selectors    []string
	ErrorCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
}

// Duration reports how long the run took.
func (r *RunResult) Duration() time.Duration {
	if r == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}
