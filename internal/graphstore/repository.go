// Package graphstore persists dependency graphs to an external graph
// database for ad-hoc querying across runs.
package graphstore

import (
	"context"

	"github.com/depscope/depscope/internal/depgraph"
)

// Repository provides external storage for dependency graphs.
type Repository interface {
	// StoreGraph persists the full graph under the given project.
	StoreGraph(ctx context.Context, projectID string, g *depgraph.Graph) error
	// LoadGraph retrieves a project's graph.
	LoadGraph(ctx context.Context, projectID string) (*depgraph.Graph, error)
	// QueryDependents returns the IDs of nodes that depend on the given node.
	QueryDependents(ctx context.Context, projectID, nodeID string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}
