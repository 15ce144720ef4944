package domain

import (
	"errors"
	"time"
)

// SourceType identifies which adapter produced a candidate.
type SourceType string

const (
	SourceRSS     SourceType = "rss"
	SourceYouTube SourceType = "youtube"
	SourceURL     SourceType = "url"
	SourceGAS     SourceType = "gas"
)

// Status describes the downstream lifecycle of a persisted article. The
// collector only ever writes StatusUnprocessed on insert, StatusProcessed
// after vault aggregation, and StatusArchived by age.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusProcessing  Status = "processing"
	StatusProcessed   Status = "processed"
	StatusError       Status = "error"
	StatusArchived    Status = "archived"
)

// Candidate is a normalized, not-yet-persisted collected item. Adapters never
// hand raw feed or API objects past their boundary; everything is mapped to
// this shape first.
type Candidate struct {
	SourceType  SourceType
	SourceName  string
	Title       string
	URL         string
	Description string
	Author      string
	// PublishedAt holds RFC 3339 when the source date parsed, the raw source
	// text otherwise, and "" when the source carried no date.
	PublishedAt string
	Content     string
	Tags        []string
	Metadata    map[string]any
}

// Article is a persisted candidate. ID is assigned on insert and immutable;
// URL is unique across all articles.
type Article struct {
	ID int64
	Candidate
	Status      Status
	CollectedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Enrichment is the output of a successful full-text scrape.
type Enrichment struct {
	Content string
	Images  []string
	OGImage string
}

// ArticleFilter narrows repository listings. Zero values mean "no filter".
type ArticleFilter struct {
	Status     Status
	SourceType SourceType
	SourceName string
	Limit      int
	Offset     int
}

// ArticleStats summarizes the article table for the status surface.
type ArticleStats struct {
	Total       int
	Unprocessed int
	Processing  int
	Processed   int
	Error       int
	Archived    int
	Today       int
}

var (
	// ErrDuplicateURL reports an insert rejected by the unique-url constraint.
	// The gate treats it as the normal duplicate outcome, not a failure.
	ErrDuplicateURL = errors.New("article url already exists")

	// ErrMissingURL reports a candidate that reached the gate without an
	// identity key.
	ErrMissingURL = errors.New("candidate has no url")

	ErrSourceNotFound = errors.New("data source not found")
	ErrSourceDisabled = errors.New("data source is disabled")
)
