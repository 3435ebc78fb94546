package database

import (
	"context"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/appheap/tase/internal/models"
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

// testTelegramID derives a unique negative id so test rows never collide
// with real data or with a parallel run.
func testTelegramID() int64 {
	return -time.Now().UnixNano()
}

func cleanupUser(ctx context.Context, driver neo4j.DriverWithContext, telegramID int64) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	// Remove the user, their playlists and the playlists' edges.
	_, _ = session.Run(ctx, `
		MATCH (u:users {telegram_id: $id})
		OPTIONAL MATCH (u)-[]->(p:playlists)
		DETACH DELETE u, p
	`, map[string]any{"id": telegramID})
}

func TestGetOrCreateUser_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	db := New(driver)
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	id := testTelegramID()
	defer cleanupUser(ctx, driver, id)

	first, err := db.GetOrCreateUser(ctx, id, "Ada", "L", "ada", "en", false)
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	if first == nil || !first.Persisted() {
		t.Fatal("Created user has no identity")
	}

	second, err := db.GetOrCreateUser(ctx, id, "Different", "Name", "other", "fr", false)
	if err != nil {
		t.Fatalf("Second GetOrCreateUser failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Second call created a new user: %s vs %s", second.ID, first.ID)
	}
	if second.FirstName != "Ada" {
		t.Errorf("Get-or-create overwrote attributes, got first name %q", second.FirstName)
	}
}

func TestUpdateOrCreateUser_StoresLanguageCode(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	db := New(driver)
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	id := testTelegramID()
	defer cleanupUser(ctx, driver, id)

	created, err := db.UpdateOrCreateUser(ctx, id, "Ada", "L", "ada", "en", false)
	if err != nil {
		t.Fatalf("UpdateOrCreateUser failed: %v", err)
	}
	if created.ChosenLanguageCode != "en" {
		t.Errorf("Expected language code en, got %q", created.ChosenLanguageCode)
	}

	// A later sighting with a new language refreshes the stored one.
	updated, err := db.UpdateOrCreateUser(ctx, id, "Ada", "L", "ada", "fa", false)
	if err != nil {
		t.Fatalf("Second UpdateOrCreateUser failed: %v", err)
	}
	if updated.ChosenLanguageCode != "fa" {
		t.Errorf("Language code not refreshed, got %q", updated.ChosenLanguageCode)
	}

	stored, err := db.Users.Get(ctx, models.UserKey(id))
	if err != nil || stored == nil {
		t.Fatalf("User lookup failed: %v", err)
	}
	if stored.ChosenLanguageCode != "fa" {
		t.Errorf("Stored language code is %q", stored.ChosenLanguageCode)
	}
}

func TestRemovePlaylist_SwapsHasForHad(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	db := New(driver)
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	id := testTelegramID()
	defer cleanupUser(ctx, driver, id)

	user, err := db.GetOrCreateUser(ctx, id, "Ada", "L", "ada", "en", false)
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}

	playlist, err := db.CreatePlaylist(ctx, user, "My mix", "")
	if err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}
	hasKey := models.HasKey(user, playlist)

	// Precondition: the ownership edge exists.
	if has, err := db.Has.Get(ctx, hasKey); err != nil || has == nil {
		t.Fatalf("Ownership edge missing after create: %v", err)
	}

	if err := db.RemovePlaylist(ctx, user, playlist.Key, 1000); err != nil {
		t.Fatalf("RemovePlaylist failed: %v", err)
	}

	// Has is gone.
	if has, err := db.Has.Get(ctx, hasKey); err != nil {
		t.Fatalf("Has lookup failed: %v", err)
	} else if has != nil {
		t.Error("Ownership edge still present after removal")
	}

	// Had carries the deletion timestamp.
	had, err := db.Had.Get(ctx, models.HadKey(user, playlist, 1000))
	if err != nil {
		t.Fatalf("Had lookup failed: %v", err)
	}
	if had == nil {
		t.Fatal("Historical edge not created")
	}
	if had.DeletedAt != 1000 {
		t.Errorf("Expected deleted_at 1000, got %d", had.DeletedAt)
	}

	// The playlist is soft-deleted, not gone.
	p, err := db.Playlists.Get(ctx, playlist.Key)
	if err != nil {
		t.Fatalf("Playlist lookup failed: %v", err)
	}
	if p == nil {
		t.Fatal("Playlist hard-deleted")
	}
	if !p.IsSoftDeleted || p.SoftDeletedAt != 1000 {
		t.Errorf("Playlist soft-delete flags wrong: %+v", p.SoftDeleteMeta)
	}
}

func TestCreatePlaylist_OwnsEdge(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}
	defer driver.Close(ctx)

	db := New(driver)
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	id := testTelegramID()
	defer cleanupUser(ctx, driver, id)

	user, err := db.GetOrCreateUser(ctx, id, "Ada", "L", "ada", "en", false)
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}

	playlist, err := db.CreatePlaylist(ctx, user, "Roadtrip", "long drives")
	if err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}
	if playlist.Key == "" || !playlist.Persisted() {
		t.Fatal("Playlist has no identity")
	}

	// The owner sees it through the traversal.
	playlists := db.GetUserPlaylists(ctx, user, 0, 10)
	found := false
	for _, p := range playlists {
		if p.Key == playlist.Key {
			found = true
		}
	}
	if !found {
		t.Error("Created playlist not reachable from the owner")
	}

	// Ownership check accepts the owner and rejects strangers.
	got, err := db.GetUserPlaylist(ctx, user, playlist.Key)
	if err != nil || got == nil {
		t.Fatalf("Owner lookup failed: %v", err)
	}

	strangerID := testTelegramID()
	defer cleanupUser(ctx, driver, strangerID)
	stranger, err := db.GetOrCreateUser(ctx, strangerID, "Eve", "", "eve", "en", false)
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	other, err := db.GetUserPlaylist(ctx, stranger, playlist.Key)
	if err != nil {
		t.Fatalf("Stranger lookup failed: %v", err)
	}
	if other != nil {
		t.Error("Stranger can see someone else's playlist")
	}
}
