package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"contentops/internal/domain"
	"contentops/internal/ports"
	"contentops/internal/source"
)

// URLFetcher extracts a single page into a candidate. Implemented by the url
// adapter; split out so direct url collection does not go through the
// registry.
type URLFetcher interface {
	FetchURL(ctx context.Context, url, sourceName string) (domain.Candidate, error)
}

// Deps wires all driven adapters into the collection orchestrator.
type Deps struct {
	Articles     ports.ArticleRepository
	Sources      ports.SourceRepository
	Registry     *source.Registry
	Enricher     ports.Enricher
	URLs         URLFetcher
	Script       ports.ScriptClient
	Vault        ports.VaultWriter
	VaultEnabled bool
	BlogFeedURL  string
	Logger       *slog.Logger
}

// Collector orchestrates collection runs: it dispatches sources to adapters,
// feeds candidates through the dedup gate, updates source counters and fires
// background propagation. Partial failures never abort a batch.
type Collector struct {
	articles     ports.ArticleRepository
	sources      ports.SourceRepository
	registry     *source.Registry
	enricher     ports.Enricher
	urls         URLFetcher
	script       ports.ScriptClient
	vault        ports.VaultWriter
	vaultEnabled bool
	blogFeedURL  string
	logger       *slog.Logger

	syncWG sync.WaitGroup
}

// NewCollector constructs the orchestration component.
func NewCollector(deps Deps) *Collector {
	return &Collector{
		articles:     deps.Articles,
		sources:      deps.Sources,
		registry:     deps.Registry,
		enricher:     deps.Enricher,
		urls:         deps.URLs,
		script:       deps.Script,
		vault:        deps.Vault,
		vaultEnabled: deps.VaultEnabled,
		blogFeedURL:  deps.BlogFeedURL,
		logger:       deps.Logger,
	}
}

// CollectAll runs every enabled data source in listing order. One source's
// failure is recorded in its result and does not stop the rest.
func (c *Collector) CollectAll(ctx context.Context) (domain.Summary, error) {
	sources, err := c.sources.ListSources(ctx, true)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("list enabled sources: %w", err)
	}

	c.info("collection started", "sources", len(sources))

	summary := domain.Summary{TotalSources: len(sources)}
	for _, src := range sources {
		result := c.CollectSource(ctx, src)
		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
		summary.TotalCollected += result.Saved
		summary.TotalDuplicates += result.Duplicates
	}

	c.info("collection completed",
		"successful", summary.Successful,
		"failed", summary.Failed,
		"collected", summary.TotalCollected,
		"duplicates", summary.TotalDuplicates,
	)
	return summary, nil
}

// CollectSource dispatches one source to its adapter and persists the output.
// Failures come back inside the result, never as a panic or error value, and
// the source's counters are updated either way.
func (c *Collector) CollectSource(ctx context.Context, src domain.DataSource) domain.SourceResult {
	c.info("collecting source", "source", src.Name, "type", src.Type)

	result := domain.SourceResult{Source: src.Name, Type: src.Type}

	adapter, err := c.registry.Resolve(src.Type)
	if err != nil {
		result.Error = err.Error()
		c.recordOutcome(ctx, src, false)
		c.warn("source failed", "source", src.Name, "error", err)
		return result
	}

	candidates, err := adapter.Fetch(ctx, src)
	if err != nil {
		result.Error = err.Error()
		c.recordOutcome(ctx, src, false)
		c.warn("source failed", "source", src.Name, "error", err)
		return result
	}

	report := c.saveCandidates(ctx, candidates)

	result.Success = true
	result.Collected = len(candidates)
	result.Saved = report.Saved
	result.Duplicates = report.Duplicates
	result.Errors = report.Errors
	c.recordOutcome(ctx, src, true)
	return result
}

// CollectSourceByID loads and runs a single source. Unknown ids and disabled
// sources are misuse and error out synchronously, with no side effects.
func (c *Collector) CollectSourceByID(ctx context.Context, id int64) (domain.SourceResult, error) {
	src, err := c.sources.GetSource(ctx, id)
	if err != nil {
		return domain.SourceResult{}, fmt.Errorf("load source %d: %w", id, err)
	}
	if src == nil {
		return domain.SourceResult{}, fmt.Errorf("source %d: %w", id, domain.ErrSourceNotFound)
	}
	if !src.Enabled {
		return domain.SourceResult{}, fmt.Errorf("source %s: %w", src.Name, domain.ErrSourceDisabled)
	}
	return c.CollectSource(ctx, *src), nil
}

// CollectURLs extracts and persists a batch of explicit urls, bypassing the
// data source table.
func (c *Collector) CollectURLs(ctx context.Context, urls []string, sourceName string) (domain.URLReport, error) {
	if len(urls) == 0 {
		return domain.URLReport{}, fmt.Errorf("no urls provided")
	}
	if c.urls == nil {
		return domain.URLReport{}, fmt.Errorf("url fetcher is not configured")
	}
	if sourceName == "" {
		sourceName = "URL Import"
	}

	report := domain.URLReport{Total: len(urls)}
	var candidates []domain.Candidate
	for _, url := range urls {
		candidate, err := c.urls.FetchURL(ctx, url, sourceName)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, domain.SaveError{URL: url, Error: err.Error()})
			c.warn("url fetch failed", "url", url, "error", err)
			continue
		}
		candidates = append(candidates, candidate)
	}

	saved := c.saveCandidates(ctx, candidates)
	report.Saved = saved.Saved
	report.Duplicates = saved.Duplicates
	report.Errors = append(report.Errors, saved.Errors...)
	return report, nil
}

// CollectURL is the single-url convenience form of CollectURLs.
func (c *Collector) CollectURL(ctx context.Context, url, sourceName string) (domain.URLReport, error) {
	return c.CollectURLs(ctx, []string{url}, sourceName)
}

// CollectBlog collects the configured product blog feed directly.
func (c *Collector) CollectBlog(ctx context.Context) (domain.SourceResult, error) {
	if c.blogFeedURL == "" {
		return domain.SourceResult{}, fmt.Errorf("blog feed url is not configured")
	}
	return c.CollectSource(ctx, domain.DataSource{
		Name: "Product Blog",
		Type: domain.SourceRSS,
		URL:  c.blogFeedURL,
	}), nil
}

// CollectQiita collects a Qiita tag feed directly.
func (c *Collector) CollectQiita(ctx context.Context, tag string) (domain.SourceResult, error) {
	if tag == "" {
		return domain.SourceResult{}, fmt.Errorf("no qiita tag provided")
	}
	return c.CollectSource(ctx, domain.DataSource{
		Name: "Qiita " + tag,
		Type: domain.SourceRSS,
		URL:  fmt.Sprintf("https://qiita.com/tags/%s/feed", tag),
	}), nil
}

// CollectZenn collects a Zenn topic feed directly.
func (c *Collector) CollectZenn(ctx context.Context, topic string) (domain.SourceResult, error) {
	if topic == "" {
		return domain.SourceResult{}, fmt.Errorf("no zenn topic provided")
	}
	return c.CollectSource(ctx, domain.DataSource{
		Name: "Zenn " + topic,
		Type: domain.SourceRSS,
		URL:  fmt.Sprintf("https://zenn.dev/topics/%s/feed", topic),
	}), nil
}

// TriggerRemoteCollection asks the remote script to run its own collect_all.
func (c *Collector) TriggerRemoteCollection(ctx context.Context) (*ports.ScriptResult, error) {
	if c.script == nil {
		return nil, fmt.Errorf("script client is not configured")
	}
	result, err := c.script.Execute(ctx, "collect_all", nil)
	if err != nil {
		return nil, fmt.Errorf("trigger remote collection: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("remote collection rejected: %s", result.Message)
	}
	return result, nil
}

// ListArticles returns stored articles matching the filter, newest first.
func (c *Collector) ListArticles(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	return c.articles.List(ctx, filter)
}

// RemoteHealth probes the remote script web app.
func (c *Collector) RemoteHealth(ctx context.Context) error {
	if c.script == nil {
		return fmt.Errorf("script client is not configured")
	}
	return c.script.Health(ctx)
}

// Status reports source and article counts for dashboards.
func (c *Collector) Status(ctx context.Context) (domain.CollectionStatus, error) {
	sources, err := c.sources.ListSources(ctx, false)
	if err != nil {
		return domain.CollectionStatus{}, fmt.Errorf("list sources: %w", err)
	}
	stats, err := c.articles.Stats(ctx)
	if err != nil {
		return domain.CollectionStatus{}, fmt.Errorf("article stats: %w", err)
	}

	status := domain.CollectionStatus{
		TotalSources: len(sources),
		Articles:     stats,
	}
	for _, src := range sources {
		if src.Enabled {
			status.EnabledSources++
		}
		status.Sources = append(status.Sources, domain.SourceStatus{
			ID:              src.ID,
			Name:            src.Name,
			Type:            src.Type,
			Enabled:         src.Enabled,
			LastCollectedAt: src.LastCollectedAt,
			CollectionCount: src.CollectionCount,
			ErrorCount:      src.ErrorCount,
		})
	}
	return status, nil
}

// ArchiveOld flips stale articles to archived and reports how many changed.
func (c *Collector) ArchiveOld(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = 30
	}
	return c.articles.ArchiveOlderThan(ctx, days)
}

// recordOutcome updates the source's counters; synthetic sources (id 0) have
// no row to update.
func (c *Collector) recordOutcome(ctx context.Context, src domain.DataSource, success bool) {
	if src.ID == 0 || c.sources == nil {
		return
	}
	if err := c.sources.UpdateSourceStats(ctx, src.ID, success); err != nil {
		c.warn("update source stats failed", "source", src.Name, "error", err)
	}
}

func (c *Collector) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Collector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
