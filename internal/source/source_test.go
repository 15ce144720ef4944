package source

import (
	"context"
	"testing"

	"contentops/internal/domain"
)

type stubAdapter struct {
	typ domain.SourceType
}

func (s *stubAdapter) Type() domain.SourceType { return s.typ }

func (s *stubAdapter) Fetch(ctx context.Context, src domain.DataSource) ([]domain.Candidate, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	rss := &stubAdapter{typ: domain.SourceRSS}
	registry.Register(rss)

	got, err := registry.Resolve(domain.SourceRSS)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != rss {
		t.Fatal("resolved wrong adapter")
	}

	if _, err := registry.Resolve(domain.SourceGAS); err == nil {
		t.Fatal("expected error for unregistered type")
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&stubAdapter{typ: domain.SourceRSS})

	replacement := &stubAdapter{typ: domain.SourceRSS}
	registry.Register(replacement)

	got, err := registry.Resolve(domain.SourceRSS)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != replacement {
		t.Fatal("expected replacement adapter")
	}
}
