package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"contentops/internal/domain"
	"contentops/internal/ports"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

var articleColumns = []string{
	"id", "source_type", "source_name", "title", "url", "description",
	"author", "published_date", "collected_date", "content", "tags",
	"status", "metadata", "created_at", "updated_at",
}

// ArticleRepository persists articles in sqlite. The UNIQUE(url) constraint
// is the authoritative arbiter against duplicate inserts.
type ArticleRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*ArticleRepository)(nil)

// NewArticleRepository wires the sqlite handle.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// FindByURL returns the article with the exact url, or (nil, nil).
func (r *ArticleRepository) FindByURL(ctx context.Context, url string) (*domain.Article, error) {
	query := fmt.Sprintf("SELECT %s FROM articles WHERE url = ? LIMIT 1", strings.Join(articleColumns, ", "))
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by url: %w", err)
	}
	return article, nil
}

// Insert stores a new article, assigning ID and CollectedAt. A unique-url
// violation comes back as domain.ErrDuplicateURL.
func (r *ArticleRepository) Insert(ctx context.Context, article *domain.Article) error {
	tags, err := json.Marshal(article.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	metadata, err := json.Marshal(article.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if article.Status == "" {
		article.Status = domain.StatusUnprocessed
	}
	if article.CollectedAt.IsZero() {
		article.CollectedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO articles (
			source_type, source_name, title, url, description, author,
			published_date, collected_date, content, tags, status, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		article.SourceType, article.SourceName, article.Title, article.URL,
		article.Description, article.Author, article.PublishedAt,
		article.CollectedAt.UTC().Format(timeLayout), article.Content,
		string(tags), article.Status, string(metadata),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrDuplicateURL
		}
		return fmt.Errorf("insert article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	article.ID = id
	return nil
}

// UpdateStatus moves an article through its lifecycle.
func (r *ArticleRepository) UpdateStatus(ctx context.Context, id int64, status domain.Status) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE articles SET status = ?, updated_at = datetime('now') WHERE id = ?",
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update article status: %w", err)
	}
	return nil
}

// List returns articles matching the filter, newest collected first.
func (r *ArticleRepository) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	builder := sq.Select(articleColumns...).
		From("articles").
		OrderBy("collected_date DESC")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.SourceType != "" {
		builder = builder.Where(sq.Eq{"source_type": filter.SourceType})
	}
	if filter.SourceName != "" {
		builder = builder.Where(sq.Eq{"source_name": filter.SourceName})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	builder = builder.Limit(uint64(limit))
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	return r.queryArticles(ctx, query, args...)
}

// CollectedOn returns every article collected on the given UTC day.
func (r *ArticleRepository) CollectedOn(ctx context.Context, day time.Time) ([]domain.Article, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM articles WHERE date(collected_date) = date(?) ORDER BY collected_date DESC",
		strings.Join(articleColumns, ", "),
	)
	return r.queryArticles(ctx, query, day.UTC().Format("2006-01-02"))
}

// Stats aggregates article counts for the status surface.
func (r *ArticleRepository) Stats(ctx context.Context) (domain.ArticleStats, error) {
	var stats domain.ArticleStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'unprocessed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'processed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'archived' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN date(collected_date) = date('now') THEN 1 ELSE 0 END), 0)
		FROM articles`,
	).Scan(&stats.Total, &stats.Unprocessed, &stats.Processing, &stats.Processed,
		&stats.Error, &stats.Archived, &stats.Today)
	if err != nil {
		return domain.ArticleStats{}, fmt.Errorf("article stats: %w", err)
	}
	return stats, nil
}

// ArchiveOlderThan flips stale unprocessed/processed articles to archived.
func (r *ArticleRepository) ArchiveOlderThan(ctx context.Context, days int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET status = 'archived', updated_at = datetime('now')
		WHERE status IN ('unprocessed', 'processed')
		AND collected_date < datetime('now', '-' || ? || ' days')`,
		days,
	)
	if err != nil {
		return 0, fmt.Errorf("archive old articles: %w", err)
	}
	changed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return changed, nil
}

func (r *ArticleRepository) queryArticles(ctx context.Context, query string, args ...any) ([]domain.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var (
		article     domain.Article
		description sql.NullString
		author      sql.NullString
		published   sql.NullString
		content     sql.NullString
		tags        sql.NullString
		metadata    sql.NullString
		collected   string
		createdAt   string
		updatedAt   string
	)

	err := row.Scan(
		&article.ID, &article.SourceType, &article.SourceName, &article.Title,
		&article.URL, &description, &author, &published, &collected,
		&content, &tags, &article.Status, &metadata, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	article.Description = description.String
	article.Author = author.String
	article.PublishedAt = published.String
	article.Content = content.String
	article.CollectedAt = parseStoredTime(collected)
	article.CreatedAt = parseStoredTime(createdAt)
	article.UpdatedAt = parseStoredTime(updatedAt)

	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &article.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &article.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return &article, nil
}

// parseStoredTime accepts both Go-written RFC 3339 values and sqlite's own
// datetime('now') format.
func parseStoredTime(value string) time.Time {
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
