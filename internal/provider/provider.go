// Package provider defines the search provider contract consumed by the
// pipeline, plus the built-in implementations (local index, daemon socket,
// external command).
package provider

import (
	"context"

	"github.com/runger/typeahead/internal/snapshot"
)

// Provider is the interface for data sources that answer search queries.
// Implementations might search a local index, query a daemon, or shell out
// to an external tool. Search must respect ctx cancellation: the pipeline
// cancels a call when a newer query supersedes it.
type Provider interface {
	Search(ctx context.Context, req Request) (Response, error)
}

// Request describes one search query.
type Request struct {
	RequestID uint64 // Monotonically increasing, for stale response detection
	Query     string // The search term
	Limit     int    // Max hits to return (0 = provider default)
}

// Response carries hits back from a Provider.
type Response struct {
	RequestID uint64 // Echoes Request.RequestID
	Hits      []snapshot.Hit
}

// Func adapts a plain function to the Provider interface.
type Func func(ctx context.Context, req Request) (Response, error)

// Search implements Provider.
func (f Func) Search(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}
