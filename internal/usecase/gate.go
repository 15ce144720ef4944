package usecase

import (
	"context"
	"errors"
	"time"

	"contentops/internal/domain"
)

// minContentLength is the threshold below which a candidate's feed content is
// considered a teaser and full-page enrichment is attempted.
const minContentLength = 500

// saveCandidates is the single write path for collected candidates. It checks
// each candidate against the store by url, enriches thin content, inserts the
// survivors and dispatches background propagation for anything new. Candidates
// are processed in input order so duplicates within one batch resolve
// first-wins.
func (c *Collector) saveCandidates(ctx context.Context, candidates []domain.Candidate) domain.SaveReport {
	var report domain.SaveReport
	for _, candidate := range candidates {
		if candidate.URL == "" {
			report.Errors = append(report.Errors, domain.SaveError{
				Title: candidate.Title,
				Error: domain.ErrMissingURL.Error(),
			})
			continue
		}

		existing, err := c.articles.FindByURL(ctx, candidate.URL)
		if err != nil {
			report.Errors = append(report.Errors, saveError(candidate, err))
			continue
		}
		if existing != nil {
			report.Duplicates++
			c.debug("duplicate skipped", "url", candidate.URL)
			continue
		}

		c.enrichCandidate(ctx, &candidate)

		article := domain.Article{
			Candidate:   candidate,
			Status:      domain.StatusUnprocessed,
			CollectedAt: time.Now(),
		}
		if err := c.articles.Insert(ctx, &article); err != nil {
			if errors.Is(err, domain.ErrDuplicateURL) {
				report.Duplicates++
				continue
			}
			report.Errors = append(report.Errors, saveError(candidate, err))
			c.warn("save failed", "url", candidate.URL, "error", err)
			continue
		}

		report.Saved++
		report.NewArticles = append(report.NewArticles, article)
		c.debug("article saved", "id", article.ID, "title", article.Title)
	}

	if len(report.NewArticles) > 0 {
		c.dispatchSync(report.NewArticles)
	}
	return report
}

// enrichCandidate fills in thin content by scraping the article page. The
// scraped body only replaces the feed body when it is strictly longer, so the
// stored content never degrades. Enrichment failures leave the candidate
// untouched.
func (c *Collector) enrichCandidate(ctx context.Context, candidate *domain.Candidate) {
	if c.enricher == nil || len(candidate.Content) >= minContentLength {
		return
	}

	enriched, err := c.enricher.Enrich(ctx, candidate.URL)
	if err != nil {
		c.warn("enrichment failed", "url", candidate.URL, "error", err)
		return
	}
	if enriched == nil {
		return
	}

	if len(enriched.Content) > len(candidate.Content) {
		candidate.Content = enriched.Content
	}
	if len(enriched.Images) > 0 || enriched.OGImage != "" {
		if candidate.Metadata == nil {
			candidate.Metadata = make(map[string]any)
		}
		if len(enriched.Images) > 0 {
			candidate.Metadata["images"] = enriched.Images
		}
		if enriched.OGImage != "" {
			candidate.Metadata["ogImage"] = enriched.OGImage
		}
	}
}

func saveError(candidate domain.Candidate, err error) domain.SaveError {
	return domain.SaveError{
		Title: candidate.Title,
		URL:   candidate.URL,
		Error: err.Error(),
	}
}
