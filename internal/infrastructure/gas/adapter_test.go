package gas

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"contentops/internal/domain"
	"contentops/internal/ports"
)

// fakeScriptClient records the executed action and returns a canned result.
type fakeScriptClient struct {
	action string
	params map[string]any
	result *ports.ScriptResult
	err    error
}

func (f *fakeScriptClient) Execute(ctx context.Context, action string, params map[string]any) (*ports.ScriptResult, error) {
	f.action = action
	f.params = params
	return f.result, f.err
}

func (f *fakeScriptClient) PushArticles(ctx context.Context, articles []domain.Article) error {
	return nil
}

func (f *fakeScriptClient) Health(ctx context.Context) error { return nil }

func TestGASAdapterFetch(t *testing.T) {
	t.Parallel()

	data, _ := json.Marshal(map[string]any{
		"items": []map[string]any{
			{
				"title":   "Remote Item",
				"link":    "https://example.com/remote/1",
				"summary": "from the script",
				"pubDate": "2025-04-01",
			},
			{
				"title": "No URL",
			},
		},
	})
	client := &fakeScriptClient{result: &ports.ScriptResult{Success: true, Data: data}}
	adapter := NewAdapter(client, nil)

	candidates, err := adapter.Fetch(context.Background(), domain.DataSource{
		Name:   "Remote",
		Type:   domain.SourceGAS,
		Config: map[string]string{"action": "collect_feed"},
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if client.action != "collect_feed" {
		t.Fatalf("unexpected action: %q", client.action)
	}
	if client.params["source"] != "Remote" {
		t.Fatalf("unexpected params: %v", client.params)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	item := candidates[0]
	if item.URL != "https://example.com/remote/1" {
		t.Fatalf("expected link fallback url, got %s", item.URL)
	}
	if item.Description != "from the script" {
		t.Fatalf("expected summary fallback, got %q", item.Description)
	}
	if item.PublishedAt != "2025-04-01" {
		t.Fatalf("expected pubDate fallback, got %q", item.PublishedAt)
	}
	if item.SourceType != domain.SourceGAS {
		t.Fatalf("unexpected source type: %s", item.SourceType)
	}
}

func TestGASAdapterDefaultAction(t *testing.T) {
	t.Parallel()

	client := &fakeScriptClient{result: &ports.ScriptResult{Success: true}}
	adapter := NewAdapter(client, nil)

	candidates, err := adapter.Fetch(context.Background(), domain.DataSource{Name: "Remote", Type: domain.SourceGAS})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if client.action != "collect_all" {
		t.Fatalf("expected default action, got %q", client.action)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestGASAdapterFailures(t *testing.T) {
	t.Parallel()

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		adapter := NewAdapter(&fakeScriptClient{err: errors.New("connection refused")}, nil)
		if _, err := adapter.Fetch(context.Background(), domain.DataSource{Name: "Remote"}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("script failure", func(t *testing.T) {
		t.Parallel()
		adapter := NewAdapter(&fakeScriptClient{result: &ports.ScriptResult{Success: false, Message: "no such action"}}, nil)
		if _, err := adapter.Fetch(context.Background(), domain.DataSource{Name: "Remote"}); err == nil {
			t.Fatal("expected error")
		}
	})
}
