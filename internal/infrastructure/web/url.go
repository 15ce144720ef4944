package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"contentops/internal/domain"
	"contentops/internal/ports"
	"contentops/internal/source"
)

const (
	descriptionLimit = 300
	fallbackBodyCap  = 5000
	maxTags          = 10
)

var whitespaceExpr = regexp.MustCompile(`\s+`)

// URLAdapter turns one arbitrary page into a single candidate. Main-content
// extraction is delegated to the enricher; metadata comes from the page's
// meta tags.
type URLAdapter struct {
	client    *http.Client
	userAgent string
	enricher  ports.Enricher
	logger    *slog.Logger
}

var _ source.Adapter = (*URLAdapter)(nil)

// NewURLAdapter wires an HTTP client and the enricher used for full-body
// Markdown extraction.
func NewURLAdapter(client *http.Client, userAgent string, enricher ports.Enricher, logger *slog.Logger) *URLAdapter {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	return &URLAdapter{client: client, userAgent: userAgent, enricher: enricher, logger: logger}
}

// Type identifies the adapter inside the registry.
func (a *URLAdapter) Type() domain.SourceType {
	return domain.SourceURL
}

// Fetch collects the source's url as a one-candidate batch.
func (a *URLAdapter) Fetch(ctx context.Context, src domain.DataSource) ([]domain.Candidate, error) {
	sourceName := src.Name
	if sourceName == "" {
		sourceName = "URL Import"
	}
	candidate, err := a.FetchURL(ctx, src.URL, sourceName)
	if err != nil {
		return nil, err
	}
	return []domain.Candidate{candidate}, nil
}

// FetchURL extracts title, description, author, date, tags, primary image and
// full-body Markdown from one page.
func (a *URLAdapter) FetchURL(ctx context.Context, pageURL, sourceName string) (domain.Candidate, error) {
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return domain.Candidate{}, fmt.Errorf("invalid url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en;q=0.9")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Candidate{}, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	content := a.mainContent(ctx, doc, pageURL)

	candidate := domain.Candidate{
		SourceType:  domain.SourceURL,
		SourceName:  sourceName,
		Title:       extractTitle(doc),
		URL:         pageURL,
		Description: extractDescription(doc),
		Author:      extractAuthor(doc),
		PublishedAt: extractPublishedDate(doc),
		Content:     content,
		Tags:        extractTags(doc),
		Metadata: map[string]any{
			"image":          extractImage(doc, base),
			"fetched_at":     time.Now().UTC().Format(time.RFC3339),
			"content_length": len(content),
		},
	}

	a.debug("url fetched", "url", pageURL, "title", candidate.Title, "content", len(content))
	return candidate, nil
}

// mainContent delegates to the enricher and falls back to stripped body text
// when enrichment yields nothing.
func (a *URLAdapter) mainContent(ctx context.Context, doc *goquery.Document, pageURL string) string {
	if a.enricher != nil {
		enrichment, err := a.enricher.Enrich(ctx, pageURL)
		if err != nil {
			a.debug("enrichment failed, falling back to body text", "url", pageURL, "error", err)
		}
		if enrichment != nil && enrichment.Content != "" {
			return enrichment.Content
		}
	}

	doc.Find("script, style, nav, header, footer, aside, .sidebar, .navigation, .menu, .ad, .advertisement, .comment, .comments").Remove()
	return truncateRunes(cleanText(doc.Find("body").Text()), fallbackBodyCap)
}

// extractTitle cascades og:title → twitter:title → <title> → first h1.
func extractTitle(doc *goquery.Document) string {
	if v := metaContent(doc, "meta[property=\"og:title\"]"); v != "" {
		return v
	}
	if v := metaContent(doc, "meta[name=\"twitter:title\"]"); v != "" {
		return v
	}
	if v := strings.TrimSpace(doc.Find("title").First().Text()); v != "" {
		return v
	}
	if v := strings.TrimSpace(doc.Find("h1").First().Text()); v != "" {
		return v
	}
	return "Untitled"
}

// extractDescription cascades og/meta/twitter descriptions, then the first
// paragraph truncated to 300 characters.
func extractDescription(doc *goquery.Document) string {
	if v := metaContent(doc, "meta[property=\"og:description\"]"); v != "" {
		return v
	}
	if v := metaContent(doc, "meta[name=\"description\"]"); v != "" {
		return v
	}
	if v := metaContent(doc, "meta[name=\"twitter:description\"]"); v != "" {
		return v
	}
	return truncateRunes(strings.TrimSpace(doc.Find("p").First().Text()), descriptionLimit)
}

// truncateRunes caps text at limit characters without splitting a UTF-8 rune.
func truncateRunes(text string, limit int) string {
	if len(text) <= limit || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}

func extractAuthor(doc *goquery.Document) string {
	if v := metaContent(doc, "meta[name=\"author\"]"); v != "" {
		return v
	}
	if v := metaContent(doc, "meta[property=\"article:author\"]"); v != "" {
		return v
	}
	if v := strings.TrimSpace(doc.Find("[rel=\"author\"]").First().Text()); v != "" {
		return v
	}
	return strings.TrimSpace(doc.Find(".author").First().Text())
}

// extractPublishedDate tries the usual meta and time selectors, normalizing
// to RFC 3339 when the value parses.
func extractPublishedDate(doc *goquery.Document) string {
	raw := metaContent(doc, "meta[property=\"article:published_time\"]")
	if raw == "" {
		raw = metaContent(doc, "meta[name=\"date\"]")
	}
	if raw == "" {
		raw, _ = doc.Find("time[datetime]").First().Attr("datetime")
	}
	if raw == "" {
		raw = strings.TrimSpace(doc.Find("time").First().Text())
	}
	if raw == "" {
		return ""
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format(time.RFC3339)
		}
	}
	return raw
}

// extractTags unions meta keywords with article:tag entries, capped at 10.
func extractTags(doc *goquery.Document) []string {
	var tags []string
	seen := map[string]struct{}{}
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" || len(tags) >= maxTags {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	if keywords := metaContent(doc, "meta[name=\"keywords\"]"); keywords != "" {
		for _, keyword := range strings.Split(keywords, ",") {
			add(keyword)
		}
	}
	doc.Find("meta[property=\"article:tag\"]").Each(func(_ int, meta *goquery.Selection) {
		add(meta.AttrOr("content", ""))
	})

	return tags
}

// extractImage resolves the og/twitter/first image against the page url.
func extractImage(doc *goquery.Document, base *url.URL) string {
	raw := metaContent(doc, "meta[property=\"og:image\"]")
	if raw == "" {
		raw = metaContent(doc, "meta[name=\"twitter:image\"]")
	}
	if raw == "" {
		raw, _ = doc.Find("img").First().Attr("src")
	}
	if raw == "" {
		return ""
	}
	resolved, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return base.ResolveReference(resolved).String()
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func cleanText(text string) string {
	return strings.TrimSpace(whitespaceExpr.ReplaceAllString(text, " "))
}

func (a *URLAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
