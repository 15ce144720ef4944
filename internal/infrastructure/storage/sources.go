package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"contentops/internal/domain"
	"contentops/internal/ports"
)

// SourceRepository reads and updates configured data sources.
type SourceRepository struct {
	db *sql.DB
}

var _ ports.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository wires the sqlite handle.
func NewSourceRepository(db *sql.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

const sourceColumns = "id, name, type, url, enabled, config, last_collected_at, collection_count, error_count"

// ListSources returns all sources ordered by name, optionally only enabled
// ones.
func (r *SourceRepository) ListSources(ctx context.Context, enabledOnly bool) ([]domain.DataSource, error) {
	query := "SELECT " + sourceColumns + " FROM data_sources"
	if enabledOnly {
		query += " WHERE enabled = 1"
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query data sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.DataSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan data source: %w", err)
		}
		sources = append(sources, *src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate data sources: %w", err)
	}
	return sources, nil
}

// GetSource returns the source with the id, or (nil, nil) when unknown.
func (r *SourceRepository) GetSource(ctx context.Context, id int64) (*domain.DataSource, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sourceColumns+" FROM data_sources WHERE id = ? LIMIT 1", id)
	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get data source: %w", err)
	}
	return src, nil
}

// CreateSource inserts a new data source and assigns its id.
func (r *SourceRepository) CreateSource(ctx context.Context, src *domain.DataSource) error {
	config, err := json.Marshal(src.Config)
	if err != nil {
		return fmt.Errorf("marshal source config: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO data_sources (name, type, url, enabled, config) VALUES (?, ?, ?, ?, ?)",
		src.Name, src.Type, src.URL, src.Enabled, string(config),
	)
	if err != nil {
		return fmt.Errorf("insert data source: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	src.ID = id
	return nil
}

// UpdateSourceStats records one collection attempt: last_collected_at and
// collection_count always move, error_count only on failure.
func (r *SourceRepository) UpdateSourceStats(ctx context.Context, id int64, success bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE data_sources
		SET
			last_collected_at = datetime('now'),
			collection_count = collection_count + 1,
			error_count = CASE WHEN ? THEN error_count ELSE error_count + 1 END,
			updated_at = datetime('now')
		WHERE id = ?`,
		success, id,
	)
	if err != nil {
		return fmt.Errorf("update source stats: %w", err)
	}
	return nil
}

type sourceScanner interface {
	Scan(dest ...any) error
}

func scanSource(row sourceScanner) (*domain.DataSource, error) {
	var (
		src       domain.DataSource
		url       sql.NullString
		config    sql.NullString
		collected sql.NullString
	)

	err := row.Scan(&src.ID, &src.Name, &src.Type, &url, &src.Enabled,
		&config, &collected, &src.CollectionCount, &src.ErrorCount)
	if err != nil {
		return nil, err
	}

	src.URL = url.String
	if config.Valid && config.String != "" {
		if err := json.Unmarshal([]byte(config.String), &src.Config); err != nil {
			return nil, fmt.Errorf("decode source config: %w", err)
		}
	}
	if src.Config == nil {
		src.Config = map[string]string{}
	}
	if collected.Valid && collected.String != "" {
		t := parseStoredTime(collected.String)
		src.LastCollectedAt = &t
	}

	return &src, nil
}
