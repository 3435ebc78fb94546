package graph

import (
	"context"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/appheap/tase/pkg/logger"
)

// Integration tests require a running Neo4j instance at the default
// local address. Run with -short to skip them.

func init() {
	_ = logger.Init("development")
}

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := "bolt://localhost:7687"
	user := "neo4j"
	password := "password"

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return driver, nil
}

func cleanupLabel(ctx context.Context, driver neo4j.DriverWithContext, label, keyPrefix string) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, _ = session.Run(ctx,
		"MATCH (n:"+label+") WHERE n._key STARTS WITH $prefix DETACH DELETE n",
		map[string]any{"prefix": keyPrefix})
}

func testWidgets(driver neo4j.DriverWithContext) *Collection[*widget] {
	return NewCollection(NewExecutor(driver), widgetSpec, func() *widget { return &widget{} })
}

func TestCollection_InsertAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	col := testWidgets(driver)
	key := "test-widget-" + time.Now().Format("20060102150405.000")
	defer cleanupLabel(ctx, driver, "widgets", key)

	w := &widget{Name: "gear", Color: 2}
	w.Key = key

	if _, ok := col.Insert(ctx, w); !ok {
		t.Fatal("Insert failed")
	}
	if !w.Persisted() {
		t.Error("Insert did not populate identity metadata")
	}
	if w.ID != "widgets/"+key {
		t.Errorf("Expected id widgets/%s, got %s", key, w.ID)
	}

	got, err := col.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for an existing document")
	}
	if got.Name != "gear" || got.Color != 2 {
		t.Errorf("Attributes did not survive the round trip: %+v", got)
	}
}

func TestCollection_InsertConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	col := testWidgets(driver)
	key := "test-conflict-" + time.Now().Format("20060102150405.000")
	defer cleanupLabel(ctx, driver, "widgets", key)

	first := &widget{Name: "first"}
	first.Key = key
	if _, ok := col.Insert(ctx, first); !ok {
		t.Fatal("First insert failed")
	}

	second := &widget{Name: "second"}
	second.Key = key
	if _, ok := col.Insert(ctx, second); ok {
		t.Error("Second insert with the same key should report a conflict")
	}

	// The original document is untouched.
	got, err := col.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.Name != "first" {
		t.Errorf("Conflicting insert modified the stored document: %+v", got)
	}
}

func TestCollection_UpdatePreservesCreatedAt(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	col := testWidgets(driver)
	key := "test-update-" + time.Now().Format("20060102150405.000")
	defer cleanupLabel(ctx, driver, "widgets", key)

	w := &widget{Name: "before"}
	w.Key = key
	if _, ok := col.Insert(ctx, w); !ok {
		t.Fatal("Insert failed")
	}
	createdAt := w.CreatedAt
	rev := w.Rev

	next := &widget{Name: "after"}
	next.CreatedAt = 99999 // must be ignored
	if !col.Update(ctx, w, next) {
		t.Fatal("Update failed")
	}

	if w.Name != "after" {
		t.Errorf("In-memory object not refreshed, name is %q", w.Name)
	}
	if w.CreatedAt != createdAt {
		t.Errorf("Update changed created_at from %d to %d", createdAt, w.CreatedAt)
	}
	if w.Rev == rev {
		t.Error("Update did not mint a fresh revision")
	}
}

func TestCollection_UpdateStaleRevisionFails(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	col := testWidgets(driver)
	key := "test-stale-" + time.Now().Format("20060102150405.000")
	defer cleanupLabel(ctx, driver, "widgets", key)

	w := &widget{Name: "v1"}
	w.Key = key
	if _, ok := col.Insert(ctx, w); !ok {
		t.Fatal("Insert failed")
	}

	// A second handle on the same document wins the race.
	other, err := col.Get(ctx, key)
	if err != nil || other == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !col.Update(ctx, other, &widget{Name: "v2"}) {
		t.Fatal("First update failed")
	}

	// The original handle now carries a stale revision.
	if col.Update(ctx, w, &widget{Name: "v3"}) {
		t.Error("Update with a stale revision should fail")
	}
	if col.Update(ctx, w, &widget{Name: "v3"}, SkipRevisionCheck()) != true {
		t.Error("Update with the check disabled should succeed")
	}
}

func TestCollection_ReplaceOverwritesWholeDocument(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	col := testWidgets(driver)
	key := "test-replace-" + time.Now().Format("20060102150405.000")
	defer cleanupLabel(ctx, driver, "widgets", key)

	w := &widget{Name: "v1", Dims: &widgetDims{Width: 90, Height: 60}}
	w.Key = key
	if _, ok := col.Insert(ctx, w); !ok {
		t.Fatal("Insert failed")
	}
	createdAt := w.CreatedAt
	rev := w.Rev

	next := &widget{Name: "v2"} // no dims
	next.CreatedAt = 99999      // must be ignored
	if _, ok := col.Replace(ctx, w, next); !ok {
		t.Fatal("Replace failed")
	}

	if w.Name != "v2" {
		t.Errorf("In-memory object not refreshed, name is %q", w.Name)
	}
	if w.CreatedAt != createdAt {
		t.Errorf("Replace changed created_at from %d to %d", createdAt, w.CreatedAt)
	}
	if w.Rev == rev {
		t.Error("Replace did not mint a fresh revision")
	}

	// Unlike Update, Replace removes fields absent from the new state.
	got, err := col.Get(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("Get after replace failed: %v", err)
	}
	if got.Dims != nil {
		t.Errorf("Replace left stale fields behind: %+v", got.Dims)
	}
}

func TestCollection_ReplaceStaleRevisionFails(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	col := testWidgets(driver)
	key := "test-replace-stale-" + time.Now().Format("20060102150405.000")
	defer cleanupLabel(ctx, driver, "widgets", key)

	w := &widget{Name: "v1"}
	w.Key = key
	if _, ok := col.Insert(ctx, w); !ok {
		t.Fatal("Insert failed")
	}

	other, err := col.Get(ctx, key)
	if err != nil || other == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, ok := col.Replace(ctx, other, &widget{Name: "v2"}); !ok {
		t.Fatal("First replace failed")
	}

	if _, ok := col.Replace(ctx, w, &widget{Name: "v3"}); ok {
		t.Error("Replace with a stale revision should fail")
	}
	if _, ok := col.Replace(ctx, w, &widget{Name: "v3"}, SkipRevisionCheck()); !ok {
		t.Error("Replace with the check disabled should succeed")
	}
}

func TestCollection_SoftDeleteVisibility(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	col := testWidgets(driver)
	key := "test-softdel-" + time.Now().Format("20060102150405.000")
	defer cleanupLabel(ctx, driver, "widgets", key)

	w := &widget{Name: "gone-soon"}
	w.Key = key
	if _, ok := col.Insert(ctx, w); !ok {
		t.Fatal("Insert failed")
	}

	ok, err := col.SoftDelete(ctx, w, 1000, true)
	if err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	if !ok {
		t.Fatal("SoftDelete reported failure")
	}

	// Unfiltered read still sees the document.
	got, err := col.Get(ctx, key)
	if err != nil || got == nil {
		t.Fatalf("Get after soft delete failed: %v", err)
	}
	if !got.IsSoftDeleted || got.SoftDeletedAt != 1000 {
		t.Errorf("Soft-delete flags not persisted: %+v", got.SoftDeleteMeta)
	}

	// Filtered find does not.
	cursor, err := col.Find(ctx, map[string]any{"name": "gone-soon"}, FilterOutSoftDeleted())
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	for cursor.Next() {
		if cursor.Value().Key == key {
			t.Error("Filtered find returned a soft-deleted document")
		}
	}
}

func TestCollection_DeleteIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	col := testWidgets(driver)
	key := "test-delete-" + time.Now().Format("20060102150405.000")

	w := &widget{Name: "doomed"}
	w.Key = key
	if _, ok := col.Insert(ctx, w); !ok {
		t.Fatal("Insert failed")
	}

	if !col.DeleteByKey(ctx, key) {
		t.Error("Delete of an existing document failed")
	}
	if !col.DeleteByKey(ctx, key) {
		t.Error("Delete of a missing document should still succeed")
	}

	exists, known := col.Has(ctx, key)
	if !known {
		t.Fatal("Has check failed")
	}
	if exists {
		t.Error("Document still present after delete")
	}
}
