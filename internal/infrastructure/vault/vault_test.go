package vault

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contentops/internal/domain"
)

func TestGenerateDailyNote(t *testing.T) {
	t.Parallel()

	vaultPath := t.TempDir()
	writer := NewWriter(vaultPath, "DailyNotes", nil)

	day := time.Date(2025, time.March, 10, 15, 0, 0, 0, time.UTC)
	articles := []domain.Article{
		{Candidate: domain.Candidate{
			SourceName:  "Tech Notes",
			Title:       "First Post",
			URL:         "https://example.com/posts/1",
			Description: "teaser line\nsecond line",
			Tags:        []string{"golang"},
		}},
		{Candidate: domain.Candidate{
			SourceName: "Dev Channel",
			Title:      "Release Walkthrough",
			URL:        "https://www.youtube.com/watch?v=abc",
		}},
		{Candidate: domain.Candidate{
			SourceName: "Tech Notes",
			Title:      "Second Post",
			URL:        "https://example.com/posts/2",
		}},
	}

	note, err := writer.GenerateDailyNote(context.Background(), day, articles)
	if err != nil {
		t.Fatalf("GenerateDailyNote error: %v", err)
	}

	if note.Date != "2025-03-10" || note.ArticleCount != 3 {
		t.Fatalf("unexpected note: %+v", note)
	}
	wantPath := filepath.Join(vaultPath, "DailyNotes", "2025-03-10.md")
	if note.Path != wantPath {
		t.Fatalf("unexpected path: %s", note.Path)
	}

	raw, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	content := string(raw)

	if !strings.Contains(content, "# 2025-03-10 Collected Articles") {
		t.Fatalf("missing header:\n%s", content)
	}
	if !strings.Contains(content, "Collected: 3") {
		t.Fatalf("missing count:\n%s", content)
	}
	if !strings.Contains(content, "## Tech Notes") || !strings.Contains(content, "## Dev Channel") {
		t.Fatalf("missing source sections:\n%s", content)
	}
	if !strings.Contains(content, "- [First Post](https://example.com/posts/1)") {
		t.Fatalf("missing article link:\n%s", content)
	}
	if !strings.Contains(content, "  - teaser line\n") || strings.Contains(content, "second line") {
		t.Fatalf("description not truncated to first line:\n%s", content)
	}
	if !strings.Contains(content, "  - Tags: golang") {
		t.Fatalf("missing tags line:\n%s", content)
	}

	// Groups keep first-seen order.
	if strings.Index(content, "## Tech Notes") > strings.Index(content, "## Dev Channel") {
		t.Fatalf("unexpected group order:\n%s", content)
	}
}

func TestGenerateDailyNoteRewrites(t *testing.T) {
	t.Parallel()

	writer := NewWriter(t.TempDir(), "", nil)
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	first, err := writer.GenerateDailyNote(context.Background(), day, []domain.Article{
		{Candidate: domain.Candidate{SourceName: "Tech Notes", Title: "One", URL: "https://example.com/1"}},
	})
	if err != nil {
		t.Fatalf("GenerateDailyNote error: %v", err)
	}

	second, err := writer.GenerateDailyNote(context.Background(), day, []domain.Article{
		{Candidate: domain.Candidate{SourceName: "Tech Notes", Title: "One", URL: "https://example.com/1"}},
		{Candidate: domain.Candidate{SourceName: "Tech Notes", Title: "Two", URL: "https://example.com/2"}},
	})
	if err != nil {
		t.Fatalf("GenerateDailyNote error: %v", err)
	}
	if first.Path != second.Path {
		t.Fatalf("expected same path, got %s vs %s", first.Path, second.Path)
	}

	raw, err := os.ReadFile(second.Path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if !strings.Contains(string(raw), "Collected: 2") {
		t.Fatalf("expected rewritten note:\n%s", raw)
	}
}

func TestGenerateDailyNoteRequiresVaultPath(t *testing.T) {
	t.Parallel()

	writer := NewWriter("", "DailyNotes", nil)
	if _, err := writer.GenerateDailyNote(context.Background(), time.Now(), nil); err == nil {
		t.Fatal("expected error without vault path")
	}
}
