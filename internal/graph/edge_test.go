package graph

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/appheap/tase/pkg/errors"
)

var connectsSpec = TypeSpec{
	Collection:    "connects",
	SchemaVersion: 1,
	FromKinds:     []string{"widgets"},
	ToKinds:       []string{"widgets"},
}

func TestValidateEndpoints(t *testing.T) {
	from := &widget{Name: "a"}
	to := &widget{Name: "b"}

	assert.NoError(t, ValidateEndpoints(connectsSpec, from, to))

	narrow := connectsSpec
	narrow.FromKinds = []string{"gadgets"}
	err := ValidateEndpoints(narrow, from, to)
	assert.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUsage))
}

func TestEdges_AtMostOnePerPair(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	exec := NewExecutor(driver)
	widgets := testWidgets(driver)
	edges := NewEdges(exec, connectsSpec, func() *plainEdge { return &plainEdge{} })

	stamp := time.Now().Format("20060102150405.000")
	fromKey := "test-edge-from-" + stamp
	toKey := "test-edge-to-" + stamp
	defer cleanupLabel(ctx, driver, "widgets", "test-edge-")

	from := &widget{Name: "from"}
	from.Key = fromKey
	to := &widget{Name: "to"}
	to.Key = toKey
	if _, ok := widgets.Insert(ctx, from); !ok {
		t.Fatal("Insert from failed")
	}
	if _, ok := widgets.Insert(ctx, to); !ok {
		t.Fatal("Insert to failed")
	}

	edgeKey := fromKey + ":" + toKey
	mk := func() *plainEdge {
		e := &plainEdge{}
		e.Key = edgeKey
		e.From = from.ID
		e.To = to.ID
		return e
	}

	first, err := edges.GetOrCreate(ctx, mk())
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if first == nil || !first.Persisted() {
		t.Fatal("Created edge has no identity")
	}

	second, err := edges.GetOrCreate(ctx, mk())
	if err != nil {
		t.Fatalf("Second GetOrCreate failed: %v", err)
	}
	if second.ID != first.ID || second.Rev != first.Rev {
		t.Errorf("Second GetOrCreate created a new edge: %s vs %s", second.ID, first.ID)
	}

	// A bare Link with the same key reports a conflict.
	if _, ok := edges.Link(ctx, mk()); ok {
		t.Error("Link with an existing key should report a conflict")
	}

	count, known := edges.Count(ctx)
	if !known {
		t.Fatal("Count failed")
	}
	if count < 1 {
		t.Errorf("Expected at least one edge, got %d", count)
	}

	got, err := edges.Get(ctx, edgeKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.From != from.ID || got.To != to.ID {
		t.Errorf("Edge endpoints wrong: %+v", got)
	}

	if !edges.DeleteByKey(ctx, edgeKey) {
		t.Error("Delete failed")
	}
	gone, err := edges.Get(ctx, edgeKey)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if gone != nil {
		t.Error("Edge still present after delete")
	}
}

func TestEdges_LinkRejectsForeignEndpoints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	edges := NewEdges(NewExecutor(driver), connectsSpec, func() *plainEdge { return &plainEdge{} })

	e := &plainEdge{}
	e.Key = "test-foreign"
	e.From = "gadgets/1"
	e.To = "widgets/2"
	if _, ok := edges.Link(ctx, e); ok {
		t.Error("Link with a foreign endpoint collection should fail")
	}
}
