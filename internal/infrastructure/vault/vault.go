package vault

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentops/internal/domain"
	"contentops/internal/ports"
)

// Writer renders daily aggregation notes into a note vault directory.
type Writer struct {
	vaultPath    string
	dailyNoteDir string
	logger       *slog.Logger
}

var _ ports.VaultWriter = (*Writer)(nil)

// NewWriter wires the vault location. dailyNoteDir is a subfolder of the
// vault, created on demand.
func NewWriter(vaultPath, dailyNoteDir string, logger *slog.Logger) *Writer {
	if dailyNoteDir == "" {
		dailyNoteDir = "DailyNotes"
	}
	return &Writer{vaultPath: vaultPath, dailyNoteDir: dailyNoteDir, logger: logger}
}

// GenerateDailyNote writes (or rewrites) the aggregation note for the given
// day from the articles collected on it, grouped by source.
func (w *Writer) GenerateDailyNote(ctx context.Context, day time.Time, articles []domain.Article) (domain.DailyNote, error) {
	if w.vaultPath == "" {
		return domain.DailyNote{}, fmt.Errorf("vault path is not configured")
	}
	if err := ctx.Err(); err != nil {
		return domain.DailyNote{}, err
	}

	dir := filepath.Join(w.vaultPath, w.dailyNoteDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.DailyNote{}, fmt.Errorf("create daily note directory: %w", err)
	}

	date := day.UTC().Format("2006-01-02")
	path := filepath.Join(dir, date+".md")

	if err := os.WriteFile(path, []byte(renderDailyNote(date, articles)), 0o644); err != nil {
		return domain.DailyNote{}, fmt.Errorf("write daily note: %w", err)
	}

	if w.logger != nil {
		w.logger.Info("daily note generated", "path", path, "articles", len(articles))
	}

	return domain.DailyNote{Path: path, Date: date, ArticleCount: len(articles)}, nil
}

func renderDailyNote(date string, articles []domain.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Collected Articles\n\n", date)
	fmt.Fprintf(&b, "Collected: %d\n", len(articles))

	var order []string
	grouped := map[string][]domain.Article{}
	for _, article := range articles {
		name := article.SourceName
		if name == "" {
			name = "Unknown"
		}
		if _, ok := grouped[name]; !ok {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], article)
	}

	for _, name := range order {
		fmt.Fprintf(&b, "\n## %s\n\n", name)
		for _, article := range grouped[name] {
			fmt.Fprintf(&b, "- [%s](%s)\n", article.Title, article.URL)
			if article.Description != "" {
				fmt.Fprintf(&b, "  - %s\n", firstLine(article.Description))
			}
			if len(article.Tags) > 0 {
				fmt.Fprintf(&b, "  - Tags: %s\n", strings.Join(article.Tags, ", "))
			}
		}
	}

	return b.String()
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
