package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scenescout/scenescout-server/internal/domain"
)

const testEndpoint = "https://catalog.example.com/graphql"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	assert.Equal(t, "wal", journalMode)

	tables := []string{"performers", "studios", "tags", "scenes", "catalog_links"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s not found", table)
	}
}

func TestCreateAndGetEntity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := &domain.Entity{
		ID:       "perf-1",
		Type:     domain.EntityPerformer,
		Name:     "Alex Example",
		Favorite: true,
		CatalogLinks: []domain.CatalogLink{
			{Endpoint: testEndpoint, ExternalID: "ext-perf-1"},
		},
	}
	require.NoError(t, s.CreateEntity(ctx, e))

	got, err := s.GetEntity(ctx, domain.EntityPerformer, "perf-1")
	require.NoError(t, err)
	assert.Equal(t, "Alex Example", got.Name)
	assert.True(t, got.Favorite)
	require.Len(t, got.CatalogLinks, 1)
	assert.Equal(t, "ext-perf-1", got.CatalogLinks[0].ExternalID)

	ext, ok := got.LinkFor(testEndpoint)
	assert.True(t, ok)
	assert.Equal(t, "ext-perf-1", ext)

	_, ok = got.LinkFor("https://other.example.com")
	assert.False(t, ok)
}

func TestCreateEntity_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e := &domain.Entity{ID: "tag-1", Type: domain.EntityTag, Name: "outdoor"}
	require.NoError(t, s.CreateEntity(ctx, e))
	assert.ErrorIs(t, s.CreateEntity(ctx, e), ErrAlreadyExists)
}

func TestGetEntity_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetEntity(context.Background(), domain.EntityStudio, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetFavorite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateEntity(ctx, &domain.Entity{
		ID: "stu-1", Type: domain.EntityStudio, Name: "Example Films",
	}))

	require.NoError(t, s.SetFavorite(ctx, domain.EntityStudio, "stu-1", true))
	got, err := s.GetEntity(ctx, domain.EntityStudio, "stu-1")
	require.NoError(t, err)
	assert.True(t, got.Favorite)

	assert.ErrorIs(t, s.SetFavorite(ctx, domain.EntityStudio, "missing", true), ErrNotFound)
}

func TestListOwnedExternalIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Empty library: empty set, no error.
	owned, err := s.ListOwnedExternalIDs(ctx, testEndpoint)
	require.NoError(t, err)
	assert.Empty(t, owned)

	require.NoError(t, s.CreateScene(ctx, &domain.Scene{
		ID: "scn-1", Title: "Owned One",
		CatalogLinks: []domain.CatalogLink{{Endpoint: testEndpoint, ExternalID: "ext-s1"}},
	}))
	require.NoError(t, s.CreateScene(ctx, &domain.Scene{
		ID: "scn-2", Title: "Owned Two",
		CatalogLinks: []domain.CatalogLink{{Endpoint: "https://other.example.com", ExternalID: "ext-s2"}},
	}))

	owned, err = s.ListOwnedExternalIDs(ctx, testEndpoint)
	require.NoError(t, err)
	assert.Len(t, owned, 1)
	_, ok := owned["ext-s1"]
	assert.True(t, ok)
	_, ok = owned["ext-s2"]
	assert.False(t, ok, "links for other endpoints must not leak in")
}

func TestListFavoriteExternalIDs_TruncationAndOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Three favorite tags with catalog links, ordered by scene_count.
	for i, tc := range []struct {
		id    string
		count int
	}{
		{"tag-a", 5},
		{"tag-b", 50},
		{"tag-c", 20},
	} {
		require.NoError(t, s.CreateEntity(ctx, &domain.Entity{
			ID:         tc.id,
			Type:       domain.EntityTag,
			Name:       tc.id,
			Favorite:   true,
			SceneCount: tc.count,
			CatalogLinks: []domain.CatalogLink{
				{Endpoint: testEndpoint, ExternalID: "ext-" + tc.id},
			},
		}), "entity %d", i)
	}
	// Favorite without a link for this endpoint: excluded entirely.
	require.NoError(t, s.CreateEntity(ctx, &domain.Entity{
		ID: "tag-unlinked", Type: domain.EntityTag, Name: "unlinked", Favorite: true,
	}))
	// Linked but not favorited: excluded.
	require.NoError(t, s.CreateEntity(ctx, &domain.Entity{
		ID: "tag-plain", Type: domain.EntityTag, Name: "plain",
		CatalogLinks: []domain.CatalogLink{{Endpoint: testEndpoint, ExternalID: "ext-plain"}},
	}))

	ids, total, err := s.ListFavoriteExternalIDs(ctx, domain.EntityTag, testEndpoint, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total, "total reflects the untruncated favorite count")
	assert.Equal(t, []string{"ext-tag-b", "ext-tag-c"}, ids, "content-count ordering, truncated to limit")
}

func TestGetScene(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateScene(ctx, &domain.Scene{
		ID: "scn-9", Title: "A Scene", ReleaseDate: "2024-03-01",
		CatalogLinks: []domain.CatalogLink{{Endpoint: testEndpoint, ExternalID: "ext-s9"}},
	}))

	got, err := s.GetScene(ctx, "scn-9")
	require.NoError(t, err)
	assert.Equal(t, "A Scene", got.Title)
	assert.Equal(t, "2024-03-01", got.ReleaseDate)
	require.Len(t, got.CatalogLinks, 1)

	_, err = s.GetScene(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
