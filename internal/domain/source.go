package domain

import "time"

// DataSource is a configured collection origin. Sources are created and
// edited elsewhere; the collector reads enabled ones and writes back the
// collection counters.
//
// Recognized Config keys by type: "channelId" (youtube), "action" (gas),
// "category", "language". Missing keys fall back to defaults.
type DataSource struct {
	ID              int64
	Name            string
	Type            SourceType
	URL             string
	Enabled         bool
	Config          map[string]string
	LastCollectedAt *time.Time
	CollectionCount int
	ErrorCount      int
}

// SourceResult reports one source's collection outcome inside a batch.
type SourceResult struct {
	Success    bool
	Source     string
	Type       SourceType
	Collected  int
	Saved      int
	Duplicates int
	Errors     []SaveError
	Error      string
}

// Summary aggregates a whole collection run. It is always returned, even when
// every source failed, so callers can render partial success.
type Summary struct {
	TotalSources    int
	Successful      int
	Failed          int
	TotalCollected  int
	TotalDuplicates int
	Results         []SourceResult
}

// SaveError records a single candidate that could not be persisted.
type SaveError struct {
	Title string
	URL   string
	Error string
}

// SaveReport is the dedup gate's accounting for one batch of candidates.
type SaveReport struct {
	Saved       int
	Duplicates  int
	Errors      []SaveError
	NewArticles []Article
}

// URLReport accounts for a direct URL collection batch.
type URLReport struct {
	Total      int
	Saved      int
	Duplicates int
	Failed     int
	Errors     []SaveError
}

// SourceStatus is the per-source slice of the status surface.
type SourceStatus struct {
	ID              int64
	Name            string
	Type            SourceType
	Enabled         bool
	LastCollectedAt *time.Time
	CollectionCount int
	ErrorCount      int
}

// CollectionStatus is returned by the status operation.
type CollectionStatus struct {
	TotalSources   int
	EnabledSources int
	Articles       ArticleStats
	Sources        []SourceStatus
}

// DailyNote describes a generated vault aggregation note.
type DailyNote struct {
	Path         string
	Date         string
	ArticleCount int
}
