package source

import (
	"context"
	"fmt"

	"contentops/internal/domain"
)

// Adapter turns one data source's remote payload into normalized candidates.
// A returned error is a source-level failure: the orchestrator records it and
// moves on, it never aborts the batch. Adapters must not let a single
// malformed item fail the whole fetch; such items are skipped or null-filled.
type Adapter interface {
	Type() domain.SourceType
	Fetch(ctx context.Context, src domain.DataSource) ([]domain.Candidate, error)
}

// Registry keeps a mapping from source types to their adapters.
type Registry struct {
	adapters map[domain.SourceType]Adapter
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[domain.SourceType]Adapter{}}
}

// Register adds or replaces an adapter.
func (r *Registry) Register(adapter Adapter) {
	if r.adapters == nil {
		r.adapters = map[domain.SourceType]Adapter{}
	}
	r.adapters[adapter.Type()] = adapter
}

// Resolve returns the adapter for a source type or an error if none is
// registered. An unsupported type is fatal for that source only.
func (r *Registry) Resolve(t domain.SourceType) (Adapter, error) {
	if adapter, ok := r.adapters[t]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("unsupported source type: %s", t)
}
