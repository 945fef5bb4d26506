package provider

import (
	"context"
	"fmt"

	"github.com/runger/typeahead/internal/snapshot"
)

// IndexSearcher is the slice of the local index the provider needs.
// *index.Store satisfies this.
type IndexSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]snapshot.Hit, error)
}

// IndexProvider answers queries from the local document index.
type IndexProvider struct {
	store IndexSearcher
}

// Compile-time check that IndexProvider implements Provider.
var _ Provider = (*IndexProvider)(nil)

// NewIndexProvider creates a provider over an opened index.
func NewIndexProvider(store IndexSearcher) *IndexProvider {
	return &IndexProvider{store: store}
}

// Search implements Provider.
func (p *IndexProvider) Search(ctx context.Context, req Request) (Response, error) {
	hits, err := p.store.Search(ctx, req.Query, req.Limit)
	if err != nil {
		return Response{}, fmt.Errorf("index provider: %w", err)
	}
	return Response{RequestID: req.RequestID, Hits: hits}, nil
}
