package tasks

import "time"

type OutcomeStatus string

const (
	StatusSuccess    OutcomeStatus = "success"
	StatusNoEntries  OutcomeStatus = "no_entries"
	StatusHTTPError  OutcomeStatus = "http_error"
	StatusParseError OutcomeStatus = "parse_error"
	StatusTimeout    OutcomeStatus = "timeout"
	StatusStoreError OutcomeStatus = "store_error"
)

// Outcome is the per-source result of one scrape pass. A batch run reports
// one Outcome per source name regardless of how the source fared; a failing
// source never erases its neighbors' results.
type Outcome struct {
	Status     OutcomeStatus
	Total      int // entries seen in the feed before filtering
	Added      int
	Duplicates int
	Stale      int // rejected by the recency cutoff
	Irrelevant int // rejected by the relevance threshold
	Error      string
	Duration   time.Duration
}

func (o Outcome) Failed() bool {
	return o.Status != StatusSuccess && o.Status != StatusNoEntries
}
