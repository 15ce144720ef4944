package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"contentops/internal/domain"
	"contentops/internal/ports"
)

// Resources where scraping is pointless or impossible. Matching urls are
// skipped before any network request.
var (
	skipExtensions = []string{".pdf", ".jpg", ".png", ".gif", ".mp4", ".mp3"}
	skipDomains    = []string{"youtube.com", "youtu.be", "twitter.com", "x.com"}
)

// boilerplateSelector matches chrome to strip before content extraction.
const boilerplateSelector = "script, style, nav, footer, iframe, form, noscript, .ad, .advertisement, #comments, .comments, aside, .sidebar"

// contentSelectors is tried in order: platform-specific article containers
// first, generic ones after.
var contentSelectors = []string{
	".o-noteContentText",
	".note-common-styles__textnote-body",
	".it-MdContent",
	".zenn-embedded-markdown",
	"article .content",
	"article",
	"[role=\"main\"]",
	".post-content",
	".entry-content",
	".article-body",
	".markdown-body",
	"#main-content",
	"main",
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// Enricher retrieves a page's main content as Markdown plus discovered
// images. Enrichment is best-effort: every failure path returns nil and the
// caller keeps the original content.
type Enricher struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ ports.Enricher = (*Enricher)(nil)

// NewEnricher wires an HTTP client; the timeout defaults to 10s.
func NewEnricher(client *http.Client, userAgent string, logger *slog.Logger) *Enricher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	return &Enricher{client: client, userAgent: userAgent, logger: logger}
}

// Enrich fetches the page and extracts its main content region as Markdown.
// Skip-listed urls return (nil, nil) without touching the network.
func (e *Enricher) Enrich(ctx context.Context, pageURL string) (*domain.Enrichment, error) {
	if pageURL == "" || skippable(pageURL) {
		return nil, nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	absolutizeImages(doc, base)
	ogImage := representativeImage(doc)

	doc.Find(boilerplateSelector).Remove()
	doc.Find("[aria-hidden=\"true\"]").Remove()

	selection := e.selectContent(doc, base)
	markdown := convertToMarkdown(selection, base)

	images := make([]string, 0)
	selection.Find("img").Each(func(_ int, img *goquery.Selection) {
		if src := imageSource(img); src != "" {
			images = append(images, src)
		}
	})

	e.debug("page enriched", "url", pageURL, "markdown", len(markdown), "images", len(images))

	return &domain.Enrichment{
		Content: markdown,
		Images:  images,
		OGImage: ogImage,
	}, nil
}

// selectContent tries the selector cascade, then a readability pass, then the
// whole body.
func (e *Enricher) selectContent(doc *goquery.Document, base *url.URL) *goquery.Selection {
	for _, selector := range contentSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			return found.First()
		}
	}

	if html, err := doc.Html(); err == nil {
		if article, err := readability.FromReader(strings.NewReader(html), base); err == nil && article.Content != "" {
			if extracted, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content)); err == nil {
				e.debug("content selector not found, readability extraction used", "url", base.String())
				return extracted.Selection
			}
		}
	}

	e.debug("content selector not found, using body", "url", base.String())
	return doc.Find("body")
}

// convertToMarkdown renders the selected region as Markdown with fenced code
// blocks and lazy-load-aware image handling.
func convertToMarkdown(selection *goquery.Selection, base *url.URL) string {
	converter := md.NewConverter(base.Host, true, nil)
	converter.AddRules(md.Rule{
		Filter: []string{"img"},
		Replacement: func(_ string, img *goquery.Selection, _ *md.Options) *string {
			src := imageSource(img)
			if src == "" {
				return md.String("")
			}
			alt := img.AttrOr("alt", "image")
			return md.String(fmt.Sprintf("\n\n![%s](%s)\n\n", alt, src))
		},
	})

	markdown := converter.Convert(selection)
	markdown = excessNewlines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}

// imageSource resolves an img element's source through the common lazy-load
// attributes. Data URIs and implausibly short placeholders yield "".
func imageSource(img *goquery.Selection) string {
	src := img.AttrOr("src", "")
	for _, attr := range []string{"data-src", "data-original", "data-lazy-src"} {
		if src != "" {
			break
		}
		src = img.AttrOr(attr, "")
	}
	if src == "" || strings.HasPrefix(src, "data:") || len(src) < 20 {
		return ""
	}
	return src
}

// absolutizeImages rewrites relative and protocol-relative img sources
// against the page's own url.
func absolutizeImages(doc *goquery.Document, base *url.URL) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			return
		}
		resolved, err := url.Parse(src)
		if err != nil {
			return
		}
		img.SetAttr("src", base.ResolveReference(resolved).String())
	})
}

// representativeImage picks the page thumbnail: OpenGraph, then Twitter card,
// then the first in-article image.
func representativeImage(doc *goquery.Document) string {
	if content, ok := doc.Find("meta[property=\"og:image\"]").Attr("content"); ok && content != "" {
		return content
	}
	if content, ok := doc.Find("meta[name=\"twitter:image\"]").Attr("content"); ok && content != "" {
		return content
	}
	if src, ok := doc.Find("article img").First().Attr("src"); ok {
		return src
	}
	return ""
}

// skippable reports urls pointing at non-HTML resources or social/video
// domains where scraping is not useful.
func skippable(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, domain := range skipDomains {
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}

func (e *Enricher) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
