package repo

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// result is the minimal interface needed from a neo4j result.
type result interface {
	Next(ctx context.Context) bool
	Record() *neo4j.Record
}

// runner is the minimal interface needed from a neo4j session.
type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	Close(ctx context.Context) error
}

// Neo4jRepo upserts nodes of a single label.
type Neo4jRepo[T any, ID comparable] struct {
	driver     neo4j.DriverWithContext
	label      string
	idKey      string
	idOf       func(T) ID
	toMap      func(T) map[string]any
	newSession func(ctx context.Context) runner // for testing
}

// Neo4jOption configures a Neo4jRepo.
type Neo4jOption[T any, ID comparable] func(*Neo4jRepo[T, ID])

// WithIDKey sets the property name used as the ID (default "id").
func WithIDKey[T any, ID comparable](key string) Neo4jOption[T, ID] {
	return func(r *Neo4jRepo[T, ID]) { r.idKey = key }
}

// NewNeo4jRepo creates a new Neo4j-backed repository.
func NewNeo4jRepo[T any, ID comparable](
	driver neo4j.DriverWithContext,
	label string,
	idOf func(T) ID,
	toMap func(T) map[string]any,
	opts ...Neo4jOption[T, ID],
) *Neo4jRepo[T, ID] {
	r := &Neo4jRepo[T, ID]{
		driver: driver,
		label:  sanitizeIdent(label, "Node"),
		idKey:  "id",
		idOf:   idOf,
		toMap:  toMap,
	}
	for _, o := range opts {
		o(r)
	}
	r.idKey = sanitizeIdent(r.idKey, "id")
	return r
}

// neo4jSessionAdapter adapts neo4j.SessionWithContext to the runner interface.
type neo4jSessionAdapter struct {
	sess neo4j.SessionWithContext
}

func (a *neo4jSessionAdapter) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return a.sess.Run(ctx, cypher, params)
}

func (a *neo4jSessionAdapter) Close(ctx context.Context) error {
	return a.sess.Close(ctx)
}

func (r *Neo4jRepo[T, ID]) session(ctx context.Context) runner {
	if r.newSession != nil {
		return r.newSession(ctx)
	}
	return &neo4jSessionAdapter{sess: r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})}
}

// Ref returns a reference to the node holding id.
func (r *Neo4jRepo[T, ID]) Ref(id ID) Ref {
	return Ref{Label: r.label, Key: r.idKey, ID: id}
}

// Merge creates the node for entity or updates its properties.
func (r *Neo4jRepo[T, ID]) Merge(ctx context.Context, entity T) error {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf("MERGE (n:%s {%s: $id}) SET n += $props", r.label, r.idKey)
	_, err := sess.Run(ctx, cypher, map[string]any{"id": r.idOf(entity), "props": r.toMap(entity)})
	if err != nil {
		return fmt.Errorf("merge %s: %w", r.label, err)
	}
	return nil
}

// Link merges a relationship of type rel from the node holding id to the
// referenced node. Missing endpoints are skipped by the MATCH.
func (r *Neo4jRepo[T, ID]) Link(ctx context.Context, id ID, rel string, to Ref) error {
	sess := r.session(ctx)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(
		"MATCH (a:%s {%s: $from}), (b:%s {%s: $to}) MERGE (a)-[:%s]->(b)",
		r.label, r.idKey,
		sanitizeIdent(to.Label, "Node"), sanitizeIdent(to.Key, "id"),
		sanitizeRelType(rel),
	)
	_, err := sess.Run(ctx, cypher, map[string]any{"from": id, "to": to.ID})
	if err != nil {
		return fmt.Errorf("link %s-[%s]->%s: %w", r.label, rel, to.Label, err)
	}
	return nil
}
