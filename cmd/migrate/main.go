package main

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/appheap/tase/internal/graph"
	"github.com/appheap/tase/internal/models"
	"github.com/appheap/tase/pkg/config"
	"github.com/appheap/tase/pkg/logger"
)

// Applies the graph schema (constraints and indexes) without starting
// either service. Safe to run repeatedly.
func main() {
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Neo4j schema migration...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	vertices := models.VertexCollections()
	edges := models.EdgeCollections()
	if err := graph.EnsureSchema(ctx, driver, vertices, edges); err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}

	log.Info("Migration completed",
		zap.Int("vertex_collections", len(vertices)),
		zap.Int("edge_collections", len(edges)),
	)
}
