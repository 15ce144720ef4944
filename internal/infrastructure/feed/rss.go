package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/mmcdole/gofeed"

	"contentops/internal/domain"
	"contentops/internal/source"
)

var hashtagExpr = regexp.MustCompile(`#(\w+)`)

// RSSAdapter collects candidates from RSS/Atom feeds.
type RSSAdapter struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ source.Adapter = (*RSSAdapter)(nil)

// NewRSSAdapter wires a feed parser with a bounded-timeout HTTP client.
func NewRSSAdapter(client *http.Client, userAgent string, logger *slog.Logger) *RSSAdapter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &RSSAdapter{parser: parser, logger: logger}
}

// Type identifies the adapter inside the registry.
func (a *RSSAdapter) Type() domain.SourceType {
	return domain.SourceRSS
}

// Fetch parses the source's feed and normalizes every item. Items without a
// link or guid carry no identity key and are dropped here rather than handed
// to the dedup gate.
func (a *RSSAdapter) Fetch(ctx context.Context, src domain.DataSource) ([]domain.Candidate, error) {
	parsed, err := a.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		cand, ok := normalizeItem(item, src.Name, domain.SourceRSS)
		if !ok {
			a.debug("drop feed item without url", "source", src.Name, "title", item.Title)
			continue
		}
		candidates = append(candidates, cand)
	}

	a.debug("feed fetched", "source", src.Name, "items", len(parsed.Items), "candidates", len(candidates))
	return candidates, nil
}

// normalizeItem maps one feed item to the candidate shape. The second return
// is false when the item has no usable url.
func normalizeItem(item *gofeed.Item, sourceName string, sourceType domain.SourceType) (domain.Candidate, bool) {
	url := item.Link
	if url == "" {
		url = item.GUID
	}
	if url == "" {
		return domain.Candidate{}, false
	}

	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	metadata := map[string]any{
		"guid":       item.GUID,
		"categories": item.Categories,
	}
	if len(item.Enclosures) > 0 {
		metadata["enclosure"] = item.Enclosures[0].URL
	}

	return domain.Candidate{
		SourceType:  sourceType,
		SourceName:  sourceName,
		Title:       title,
		URL:         url,
		Description: item.Description,
		Author:      itemAuthor(item),
		PublishedAt: itemPublished(item),
		Content:     item.Content,
		Tags:        extractTags(item),
		Metadata:    metadata,
	}, true
}

// itemAuthor prefers dc:creator over the plain author element.
func itemAuthor(item *gofeed.Item) string {
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return item.DublinCoreExt.Creator[0]
	}
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}
	return ""
}

// itemPublished returns RFC 3339 when the date parsed, the raw feed text
// otherwise.
func itemPublished(item *gofeed.Item) string {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.Format(time.RFC3339)
	}
	if item.Published != "" {
		return item.Published
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.Format(time.RFC3339)
	}
	return item.Updated
}

// extractTags unions feed categories with #hashtag tokens found in the item's
// content or description, deduplicated in first-seen order.
func extractTags(item *gofeed.Item) []string {
	var tags []string
	seen := map[string]struct{}{}
	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	for _, category := range item.Categories {
		add(category)
	}

	text := item.Content
	if text == "" {
		text = item.Description
	}
	for _, match := range hashtagExpr.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}

	return tags
}

func (a *RSSAdapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
