package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/appheap/tase/pkg/logger"
)

// vertexSchemaStatements returns the idempotent statements for one node
// collection: the unique `_key` constraint plus an `_id` lookup index.
func vertexSchemaStatements(col string) []string {
	return []string{
		fmt.Sprintf("CREATE CONSTRAINT %s_key_unique IF NOT EXISTS FOR (n:%s) REQUIRE n._key IS UNIQUE", col, col),
		fmt.Sprintf("CREATE INDEX %s_id_lookup IF NOT EXISTS FOR (n:%s) ON (n._id)", col, col),
	}
}

// edgeSchemaStatements returns the idempotent statements for one link
// collection. The relationship `_key` uniqueness constraint (Neo4j 5.7+)
// is what the at-most-one-edge-per-derived-key guarantee rests on under
// concurrency; its backing index also serves key lookups.
func edgeSchemaStatements(col string) []string {
	return []string{
		fmt.Sprintf("CREATE CONSTRAINT %s_key_unique IF NOT EXISTS FOR ()-[r:%s]-() REQUIRE r._key IS UNIQUE", col, col),
	}
}

// EnsureSchema creates the storage-side guarantees the framework relies
// on: a unique `_key` constraint per vertex and edge collection (the
// backstop for every get-or-create race) plus lookup indexes. All
// statements are idempotent. Unlike the executor, failures here must
// surface, so this talks to the driver directly.
func EnsureSchema(ctx context.Context, driver neo4j.DriverWithContext, vertexCollections, edgeCollections []string) error {
	log := logger.Named("schema")
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	for _, col := range vertexCollections {
		if !identPattern.MatchString(col) {
			return fmt.Errorf("invalid collection name %q", col)
		}
		for _, stmt := range vertexSchemaStatements(col) {
			if _, err := session.Run(ctx, stmt, nil); err != nil {
				return fmt.Errorf("schema for %s: %w", col, err)
			}
		}
	}

	for _, col := range edgeCollections {
		if !identPattern.MatchString(col) {
			return fmt.Errorf("invalid collection name %q", col)
		}
		for _, stmt := range edgeSchemaStatements(col) {
			if _, err := session.Run(ctx, stmt, nil); err != nil {
				return fmt.Errorf("schema for %s: %w", col, err)
			}
		}
	}

	log.Info("schema ensured",
		zap.Int("vertex_collections", len(vertexCollections)),
		zap.Int("edge_collections", len(edgeCollections)),
	)
	return nil
}
