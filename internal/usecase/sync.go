package usecase

import (
	"context"
	"time"

	"contentops/internal/domain"
)

// syncTimeout bounds one background propagation run. The run is detached from
// the request that produced the articles, so it carries its own deadline.
const syncTimeout = 2 * time.Minute

// dispatchSync propagates newly saved articles in the background: push to the
// remote script, regenerate today's daily note, then mark the articles
// processed. The caller returns immediately; failures are logged and never
// surface to the collection that triggered them.
func (c *Collector) dispatchSync(articles []domain.Article) {
	c.syncWG.Add(1)
	go func() {
		defer c.syncWG.Done()
		defer func() {
			if r := recover(); r != nil {
				c.warn("background sync panicked", "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		c.runSync(ctx, articles)
	}()
}

func (c *Collector) runSync(ctx context.Context, articles []domain.Article) {
	c.debug("background sync started", "articles", len(articles))

	if c.script != nil {
		if err := c.script.PushArticles(ctx, articles); err != nil {
			c.warn("script push failed", "articles", len(articles), "error", err)
		} else {
			c.debug("script push completed", "articles", len(articles))
		}
	}

	if !c.vaultEnabled || c.vault == nil {
		return
	}

	today := time.Now()
	collected, err := c.articles.CollectedOn(ctx, today)
	if err != nil {
		c.warn("daily note query failed", "error", err)
		return
	}
	note, err := c.vault.GenerateDailyNote(ctx, today, collected)
	if err != nil {
		c.warn("daily note generation failed", "error", err)
		return
	}
	c.info("daily note written", "path", note.Path, "articles", note.ArticleCount)

	for _, article := range articles {
		if err := c.articles.UpdateStatus(ctx, article.ID, domain.StatusProcessed); err != nil {
			c.warn("status update failed", "id", article.ID, "error", err)
		}
	}
}

// WaitBackgroundSync blocks until all dispatched background syncs finish.
// Intended for shutdown and tests.
func (c *Collector) WaitBackgroundSync() {
	c.syncWG.Wait()
}
