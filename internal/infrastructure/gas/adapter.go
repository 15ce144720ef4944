package gas

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"contentops/internal/domain"
	"contentops/internal/ports"
	"contentops/internal/source"
)

const defaultAction = "collect_all"

// Adapter collects candidates through a remote script action that answers
// with an items/articles array.
type Adapter struct {
	client ports.ScriptClient
	logger *slog.Logger
}

var _ source.Adapter = (*Adapter)(nil)

// NewAdapter wires the script client.
func NewAdapter(client ports.ScriptClient, logger *slog.Logger) *Adapter {
	return &Adapter{client: client, logger: logger}
}

// Type identifies the adapter inside the registry.
func (a *Adapter) Type() domain.SourceType {
	return domain.SourceGAS
}

// scriptItem is the duck-typed feed item shape returned by script actions.
// Fields carry both naming variants seen in the wild.
type scriptItem struct {
	Title         string         `json:"title"`
	URL           string         `json:"url"`
	Link          string         `json:"link"`
	Description   string         `json:"description"`
	Summary       string         `json:"summary"`
	Author        string         `json:"author"`
	PublishedDate string         `json:"published_date"`
	PubDate       string         `json:"pubDate"`
	Content       string         `json:"content"`
	Tags          []string       `json:"tags"`
	Metadata      map[string]any `json:"metadata"`
}

type scriptPayload struct {
	Items    []scriptItem `json:"items"`
	Articles []scriptItem `json:"articles"`
}

// Fetch executes the source's configured action (default collect_all) and
// maps every returned item to a candidate. Items without a url are dropped.
func (a *Adapter) Fetch(ctx context.Context, src domain.DataSource) ([]domain.Candidate, error) {
	action := src.Config["action"]
	if action == "" {
		action = defaultAction
	}

	result, err := a.client.Execute(ctx, action, map[string]any{"source": src.Name})
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.Name, err)
	}
	if !result.Success {
		return nil, fmt.Errorf("source %s: script action %s failed: %s", src.Name, action, result.Message)
	}

	var payload scriptPayload
	if len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, &payload); err != nil {
			return nil, fmt.Errorf("source %s: decode script items: %w", src.Name, err)
		}
	}

	items := payload.Items
	if len(items) == 0 {
		items = payload.Articles
	}

	candidates := make([]domain.Candidate, 0, len(items))
	for _, item := range items {
		url := item.URL
		if url == "" {
			url = item.Link
		}
		if url == "" {
			a.debug("drop script item without url", "source", src.Name, "title", item.Title)
			continue
		}

		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		description := item.Description
		if description == "" {
			description = item.Summary
		}
		published := item.PublishedDate
		if published == "" {
			published = item.PubDate
		}
		metadata := item.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}

		candidates = append(candidates, domain.Candidate{
			SourceType:  domain.SourceGAS,
			SourceName:  src.Name,
			Title:       title,
			URL:         url,
			Description: description,
			Author:      item.Author,
			PublishedAt: published,
			Content:     item.Content,
			Tags:        item.Tags,
			Metadata:    metadata,
		})
	}

	a.debug("script source fetched", "source", src.Name, "action", action, "candidates", len(candidates))
	return candidates, nil
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
