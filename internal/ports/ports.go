package ports

import (
	"context"
	"encoding/json"
	"time"

	"contentops/internal/domain"
)

// ArticleRepository persists collected articles and enforces url uniqueness
// as the authoritative backstop against concurrent duplicate inserts.
type ArticleRepository interface {
	// FindByURL returns (nil, nil) when no article has the url.
	FindByURL(ctx context.Context, url string) (*domain.Article, error)
	// Insert assigns ID/CollectedAt and returns domain.ErrDuplicateURL when
	// the unique constraint rejects the row.
	Insert(ctx context.Context, article *domain.Article) error
	UpdateStatus(ctx context.Context, id int64, status domain.Status) error
	List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
	// CollectedOn returns articles whose collection date falls on the given day.
	CollectedOn(ctx context.Context, day time.Time) ([]domain.Article, error)
	Stats(ctx context.Context) (domain.ArticleStats, error)
	// ArchiveOlderThan flips unprocessed/processed articles collected more
	// than days ago to archived and reports how many changed.
	ArchiveOlderThan(ctx context.Context, days int) (int64, error)
}

// SourceRepository reads configured data sources and records collection
// outcomes on them.
type SourceRepository interface {
	ListSources(ctx context.Context, enabledOnly bool) ([]domain.DataSource, error)
	// GetSource returns (nil, nil) when the id is unknown.
	GetSource(ctx context.Context, id int64) (*domain.DataSource, error)
	// UpdateSourceStats bumps last_collected_at and collection_count on every
	// attempt, and error_count additionally when success is false.
	UpdateSourceStats(ctx context.Context, id int64, success bool) error
}

// Enricher retrieves a page's full body as Markdown. A (nil, nil) return
// means the url is skip-listed or yielded nothing useful; callers must treat
// any nil result, with or without error, as "no enrichment available".
type Enricher interface {
	Enrich(ctx context.Context, url string) (*domain.Enrichment, error)
}

// ScriptResult is the decoded envelope of a remote script call.
type ScriptResult struct {
	Success bool
	Message string
	Data    json.RawMessage
}

// ScriptClient talks to the remote script (GAS) web app.
type ScriptClient interface {
	Execute(ctx context.Context, action string, params map[string]any) (*ScriptResult, error)
	// PushArticles sends newly collected articles via the save_articles action.
	PushArticles(ctx context.Context, articles []domain.Article) error
	Health(ctx context.Context) error
}

// Scheduler drives a recurring job. Start runs the job once immediately and
// then on every tick until Stop or context cancellation.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// VaultWriter renders a day's collected articles into a note file.
type VaultWriter interface {
	GenerateDailyNote(ctx context.Context, day time.Time, articles []domain.Article) (domain.DailyNote, error)
}
