// Package neo4j implements graphstore.Repository on Neo4j. Nodes are
// keyed by (project, id) so multiple projects can share one database.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/graphstore"
)

// Repository implements graphstore.Repository using Neo4j.
type Repository struct {
	driver neo4j.DriverWithContext
}

// New creates a Neo4j-backed repository and verifies connectivity.
func New(ctx context.Context, uri, username, password string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Repository{driver: driver}, nil
}

func (r *Repository) StoreGraph(ctx context.Context, projectID string, g *depgraph.Graph) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Replace the project's graph wholesale so removed dependencies
		// do not linger from earlier runs.
		_, err := tx.Run(ctx,
			"MATCH (n:Dependency {project: $project}) DETACH DELETE n",
			map[string]any{"project": projectID})
		if err != nil {
			return nil, err
		}

		for _, node := range g.Nodes {
			_, err := tx.Run(ctx,
				"MERGE (n:Dependency {project: $project, id: $id}) "+
					"SET n.name = $name, n.size = $size, n.kind = $kind, n.depth = $depth",
				map[string]any{
					"project": projectID,
					"id":      node.ID,
					"name":    node.Name,
					"size":    node.Size,
					"kind":    string(node.Type),
					"depth":   node.Depth,
				})
			if err != nil {
				return nil, err
			}
		}

		for _, edge := range g.Edges {
			_, err := tx.Run(ctx,
				"MATCH (a:Dependency {project: $project, id: $source}) "+
					"MATCH (b:Dependency {project: $project, id: $target}) "+
					"MERGE (a)-[r:DEPENDS_ON]->(b) SET r.kind = $kind",
				map[string]any{
					"project": projectID,
					"source":  edge.Source,
					"target":  edge.Target,
					"kind":    string(edge.Kind),
				})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store graph for %s: %w", projectID, err)
	}
	return nil
}

func (r *Repository) LoadGraph(ctx context.Context, projectID string) (*depgraph.Graph, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		g := &depgraph.Graph{}

		records, err := tx.Run(ctx,
			"MATCH (n:Dependency {project: $project}) "+
				"RETURN n.id AS id, n.name AS name, n.size AS size, n.kind AS kind, n.depth AS depth "+
				"ORDER BY id",
			map[string]any{"project": projectID})
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			id, _ := rec.Get("id")
			name, _ := rec.Get("name")
			size, _ := rec.Get("size")
			kind, _ := rec.Get("kind")
			depth, _ := rec.Get("depth")

			g.Nodes = append(g.Nodes, depgraph.Node{
				ID:    id.(string),
				Name:  name.(string),
				Size:  size.(int64),
				Type:  depgraph.NodeKind(kind.(string)),
				Depth: int(depth.(int64)),
			})
		}

		records, err = tx.Run(ctx,
			"MATCH (a:Dependency {project: $project})-[r:DEPENDS_ON]->(b:Dependency {project: $project}) "+
				"RETURN a.id AS source, b.id AS target, r.kind AS kind "+
				"ORDER BY source, target",
			map[string]any{"project": projectID})
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			source, _ := rec.Get("source")
			target, _ := rec.Get("target")
			kind, _ := rec.Get("kind")

			g.Edges = append(g.Edges, depgraph.Edge{
				Source: source.(string),
				Target: target.(string),
				Kind:   depgraph.EdgeKind(kind.(string)),
			})
		}
		return g, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load graph for %s: %w", projectID, err)
	}
	return result.(*depgraph.Graph), nil
}

func (r *Repository) QueryDependents(ctx context.Context, projectID, nodeID string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (a:Dependency {project: $project})-[:DEPENDS_ON]->(:Dependency {project: $project, id: $id}) "+
				"RETURN a.id AS id ORDER BY id",
			map[string]any{"project": projectID, "id": nodeID})
		if err != nil {
			return nil, err
		}
		var ids []string
		for records.Next(ctx) {
			id, _ := records.Record().Get("id")
			ids = append(ids, id.(string))
		}
		return ids, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query dependents of %s: %w", nodeID, err)
	}
	return result.([]string), nil
}

func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ graphstore.Repository = (*Repository)(nil)
