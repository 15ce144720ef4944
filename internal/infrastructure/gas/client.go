package gas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"contentops/internal/domain"
	"contentops/internal/ports"
)

// Client talks to the remote script (Google Apps Script) web app. Every call
// is a JSON POST of {action, ...params} answered by {success, message, data}.
type Client struct {
	webAppURL  string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ ports.ScriptClient = (*Client)(nil)

// NewClient builds a client; the timeout defaults to 30s.
func NewClient(webAppURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		webAppURL:  webAppURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Execute posts an action with parameters and decodes the response envelope.
func (c *Client) Execute(ctx context.Context, action string, params map[string]any) (*ports.ScriptResult, error) {
	if c.webAppURL == "" {
		return nil, fmt.Errorf("script web app url is not configured")
	}

	payload := map[string]any{"action": action}
	for key, value := range params {
		payload[key] = value
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal script payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webAppURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute %s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("script error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode script response: %w", err)
	}

	c.debug("script action executed", "action", action, "success", env.Success)
	return &ports.ScriptResult{Success: env.Success, Message: env.Message, Data: env.Data}, nil
}

// pushedArticle is the wire shape of one article in a save_articles push.
type pushedArticle struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	SourceName    string `json:"source_name"`
	SourceType    string `json:"source_type"`
	Author        string `json:"author"`
	PublishedDate string `json:"published_date"`
	CollectedDate string `json:"collected_date"`
}

// PushArticles propagates newly collected articles via the save_articles
// action.
func (c *Client) PushArticles(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	payload := make([]pushedArticle, 0, len(articles))
	for _, article := range articles {
		payload = append(payload, pushedArticle{
			Title:         article.Title,
			URL:           article.URL,
			Description:   article.Description,
			SourceName:    article.SourceName,
			SourceType:    string(article.SourceType),
			Author:        article.Author,
			PublishedDate: article.PublishedAt,
			CollectedDate: article.CollectedAt.UTC().Format(time.RFC3339),
		})
	}

	result, err := c.Execute(ctx, "save_articles", map[string]any{"articles": payload})
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("script rejected save_articles: %s", result.Message)
	}
	return nil
}

// Health probes the web app with a plain GET.
func (c *Client) Health(ctx context.Context) error {
	if c.webAppURL == "" {
		return fmt.Errorf("script web app url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.webAppURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("script health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("script health check returned %s", resp.Status)
	}
	return nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
