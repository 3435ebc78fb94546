package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexSchemaStatements(t *testing.T) {
	stmts := vertexSchemaStatements("users")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE CONSTRAINT users_key_unique IF NOT EXISTS")
	assert.Contains(t, stmts[0], "REQUIRE n._key IS UNIQUE")
	assert.Contains(t, stmts[1], "CREATE INDEX users_id_lookup IF NOT EXISTS")
}

func TestEdgeSchemaStatements_EnforceKeyUniqueness(t *testing.T) {
	stmts := edgeSchemaStatements("has")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE CONSTRAINT has_key_unique IF NOT EXISTS")
	assert.Contains(t, stmts[0], "()-[r:has]-()")
	assert.Contains(t, stmts[0], "REQUIRE r._key IS UNIQUE")
}
