package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseFragment(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	return doc
}

// countingTransport fails the test if any request goes out.
type countingTransport struct {
	requests atomic.Int64
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.requests.Add(1)
	return nil, http.ErrNotSupported
}

func TestEnrichSkipsWithoutNetwork(t *testing.T) {
	t.Parallel()

	transport := &countingTransport{}
	enricher := NewEnricher(&http.Client{Transport: transport}, "", nil)

	urls := []string{
		"https://example.com/report.pdf",
		"https://example.com/photo.JPG",
		"https://www.youtube.com/watch?v=abc",
		"https://x.com/someone/status/1",
		"",
	}
	for _, u := range urls {
		result, err := enricher.Enrich(context.Background(), u)
		if err != nil {
			t.Fatalf("Enrich(%q) error: %v", u, err)
		}
		if result != nil {
			t.Fatalf("Enrich(%q) expected nil result, got %+v", u, result)
		}
	}

	if n := transport.requests.Load(); n != 0 {
		t.Fatalf("expected no network requests, got %d", n)
	}
}

func TestEnrichExtractsArticleContent(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html>
<html>
<head>
  <meta property="og:image" content="https://example.com/og.png">
</head>
<body>
  <nav>Site navigation</nav>
  <article>
    <h1>Release Notes</h1>
    <p>The new version ships today.</p>
    <img src="/img/diagram-of-the-release.png" alt="diagram">
    <img data-src="https://cdn.example.com/lazy-loaded-figure.png" alt="figure">
    <img src="data:image/gif;base64,R0lGOD" alt="placeholder">
  </article>
  <footer>Copyright</footer>
</body>
</html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	enricher := NewEnricher(server.Client(), "test-agent", nil)

	result, err := enricher.Enrich(context.Background(), server.URL+"/posts/release")
	if err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if result == nil {
		t.Fatal("expected enrichment result")
	}

	if !strings.Contains(result.Content, "# Release Notes") {
		t.Fatalf("expected heading in markdown, got:\n%s", result.Content)
	}
	if !strings.Contains(result.Content, "The new version ships today.") {
		t.Fatalf("expected paragraph in markdown, got:\n%s", result.Content)
	}
	if strings.Contains(result.Content, "Site navigation") || strings.Contains(result.Content, "Copyright") {
		t.Fatalf("boilerplate leaked into markdown:\n%s", result.Content)
	}
	if !strings.Contains(result.Content, server.URL+"/img/diagram-of-the-release.png") {
		t.Fatalf("expected absolutized image url, got:\n%s", result.Content)
	}
	if !strings.Contains(result.Content, "https://cdn.example.com/lazy-loaded-figure.png") {
		t.Fatalf("expected lazy image source, got:\n%s", result.Content)
	}
	if strings.Contains(result.Content, "data:image") {
		t.Fatalf("placeholder image leaked into markdown:\n%s", result.Content)
	}

	if result.OGImage != "https://example.com/og.png" {
		t.Fatalf("unexpected og image: %s", result.OGImage)
	}
	if len(result.Images) != 2 {
		t.Fatalf("expected 2 images, got %v", result.Images)
	}
}

func TestEnrichFallsBackToBody(t *testing.T) {
	t.Parallel()

	page := `<html><body><div><p>Plain page without any article container, just text.</p></div></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	enricher := NewEnricher(server.Client(), "", nil)

	result, err := enricher.Enrich(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if result == nil {
		t.Fatal("expected enrichment result")
	}
	if !strings.Contains(result.Content, "Plain page without any article container") {
		t.Fatalf("expected body text in markdown, got:\n%s", result.Content)
	}
}

func TestEnrichNonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	enricher := NewEnricher(server.Client(), "", nil)

	_, err := enricher.Enrich(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestImageSourceFiltering(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		html string
		want string
	}{
		{"regular", `<img src="https://example.com/a/long/enough/path.png">`, "https://example.com/a/long/enough/path.png"},
		{"lazy", `<img data-lazy-src="https://example.com/images/lazy-photo.png">`, "https://example.com/images/lazy-photo.png"},
		{"data uri", `<img src="data:image/png;base64,AAAA">`, ""},
		{"too short", `<img src="/x.png">`, ""},
	}

	for _, tc := range cases {
		doc := parseFragment(t, tc.html)
		if got := imageSource(doc.Find("img")); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
