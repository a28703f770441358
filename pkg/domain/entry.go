package domain

import "time"

// FeedEntry is a single normalized feed item as it leaves the parser.
// Link is the natural key; the store enforces its uniqueness.
type FeedEntry struct {
	Title     string    // never empty
	Content   string    // may be empty when the feed omits a body
	Published time.Time // feed publish time, or parse time when the feed has none
	Link      string    // absolute http/https URL
}

// InsertFailure records one entry the store rejected during a run.
type InsertFailure struct {
	Link  string
	Cause error
}

// Summary reports the outcome of a single pipeline run.
type Summary struct {
	Fetched  int // entries parsed from the feed
	New      int // entries not yet present in the store
	Inserted int // entries durably written this run
	Failed   int // entries the store rejected (len(Failures))

	// Failures carries per-entry detail so callers can log link and cause.
	Failures []InsertFailure
}
